//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/finance-service/internal/infrastructure/kafka"
	pkgkafka "github.com/bibbank/finance-service/pkg/kafka"
	"github.com/bibbank/finance-service/pkg/testutil"
)

func createTopic(t *testing.T, brokers []string, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

func TestJournalPoster_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc := testutil.NewKafkaContainer(ctx, t)
	topic := "ledger.postings.requested"
	createTopic(t, kc.Brokers, topic)

	producer, err := pkgkafka.NewProducer(pkgkafka.Config{Brokers: kc.Brokers})
	require.NoError(t, err)
	defer producer.Close()

	id, err := kafka.NewJournalPoster(producer, topic, nil).Post(ctx, journalEntry())
	require.NoError(t, err)

	received := make(chan pkgkafka.Message, 1)
	consumer, err := pkgkafka.NewConsumer(pkgkafka.Config{Brokers: kc.Brokers, ConsumerGroup: "finance-test"}, topic,
		func(_ context.Context, msg pkgkafka.Message) error {
			received <- msg
			return nil
		}, nil)
	require.NoError(t, err)
	defer consumer.Close()

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = consumer.Start(consumeCtx) }()

	select {
	case msg := <-received:
		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, id, body["journal_entry_id"])
		assert.Equal(t, "tenant-1", msg.Headers["tenant_id"])
	case <-ctx.Done():
		t.Fatal("posting request not delivered")
	}
}
