package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/internal/infrastructure/kafka"
	"github.com/bibbank/finance-service/internal/infrastructure/persistence/postgres"
	pkgkafka "github.com/bibbank/finance-service/pkg/kafka"
	"github.com/bibbank/finance-service/pkg/money"
	"github.com/bibbank/finance-service/pkg/testutil"
)

type published struct {
	topic    string
	messages []pkgkafka.Message
}

type mockPublisher struct {
	calls       []published
	publishFunc func(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error {
	if m.publishFunc != nil {
		if err := m.publishFunc(ctx, topic, messages...); err != nil {
			return err
		}
	}
	m.calls = append(m.calls, published{topic: topic, messages: messages})
	return nil
}

type mockPeriods struct {
	closed   []postgres.Period
	reopened []postgres.Period
	err      error
}

func (m *mockPeriods) ClosePeriod(_ context.Context, p postgres.Period, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.closed = append(m.closed, p)
	return nil
}

func (m *mockPeriods) ReopenPeriod(_ context.Context, p postgres.Period) error {
	if m.err != nil {
		return m.err
	}
	m.reopened = append(m.reopened, p)
	return nil
}

func TestEventPublisher_Publish(t *testing.T) {
	producer := &mockPublisher{}
	pub := kafka.NewEventPublisher(producer, "finance.events", nil)
	evt := event.NewOwnerActivated("owner-1", "Loan", "tenant-1", "2025-01-31")

	require.NoError(t, pub.Publish(context.Background(), evt))

	require.Len(t, producer.calls, 1)
	call := producer.calls[0]
	assert.Equal(t, "finance.events", call.topic)
	require.Len(t, call.messages, 1)
	msg := call.messages[0]
	assert.Equal(t, "owner-1", string(msg.Key))
	assert.Equal(t, event.TypeOwnerActivated, msg.Headers["event_type"])
	assert.Equal(t, "tenant-1", msg.Headers["tenant_id"])
	assert.Equal(t, "Loan", msg.Headers["aggregate_type"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "2025-01-31", body["first_due_date"])
	assert.Equal(t, evt.EventID(), body["event_id"])

	t.Run("no events is a no-op", func(t *testing.T) {
		empty := &mockPublisher{}
		require.NoError(t, kafka.NewEventPublisher(empty, "finance.events", nil).Publish(context.Background()))
		assert.Empty(t, empty.calls)
	})

	t.Run("broker error", func(t *testing.T) {
		failing := &mockPublisher{publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			return errors.New("broker down")
		}}
		err := kafka.NewEventPublisher(failing, "finance.events", nil).Publish(context.Background(), evt)
		testutil.AssertErrorContains(t, err, "finance.events")
	})
}

func journalEntry() port.JournalEntry {
	usd := money.MustCurrency("USD")
	try := money.MustCurrency("TRY")
	return port.JournalEntry{
		RequestID:        "req-1",
		TenantID:         "tenant-1",
		OwnerID:          "owner-1",
		OwnerKind:        "LOAN",
		Reference:        "KR-2025-001",
		LineSequence:     1,
		Kind:             "INTEREST",
		Date:             testutil.Date(2025, 1, 31),
		Debit:            valueobject.MustAccountCode("780"),
		Credit:           valueobject.MustAccountCode("102"),
		Amount:           money.NewFromInt(30, usd),
		FunctionalAmount: money.NewFromInt(900, try),
		ExchangeRate:     decimal.NewFromInt(30),
		Memo:             "KR-2025-001 line 1 interest",
	}
}

func TestJournalPoster_Post(t *testing.T) {
	producer := &mockPublisher{}
	poster := kafka.NewJournalPoster(producer, "ledger.postings.requested", nil)

	id, err := poster.Post(context.Background(), journalEntry())
	require.NoError(t, err)
	assert.Equal(t, kafka.JournalEntryID("req-1"), id)

	require.Len(t, producer.calls, 1)
	msg := producer.calls[0].messages[0]
	assert.Equal(t, "owner-1", string(msg.Key))

	var body struct {
		JournalEntryID string `json:"journal_entry_id"`
		EntryDate      string `json:"entry_date"`
		Currency       string `json:"currency"`
		Lines          []struct {
			AccountCode string          `json:"account_code"`
			Debit       decimal.Decimal `json:"debit"`
			Credit      decimal.Decimal `json:"credit"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, id, body.JournalEntryID)
	assert.Equal(t, "2025-01-31", body.EntryDate)
	assert.Equal(t, "USD", body.Currency)
	require.Len(t, body.Lines, 2)
	assert.Equal(t, "780", body.Lines[0].AccountCode)
	testutil.AssertDecimal(t, "900", body.Lines[0].Debit)
	assert.Equal(t, "102", body.Lines[1].AccountCode)
	testutil.AssertDecimal(t, "900", body.Lines[1].Credit)

	t.Run("retries name the same entry", func(t *testing.T) {
		again, err := poster.Post(context.Background(), journalEntry())
		require.NoError(t, err)
		assert.Equal(t, id, again)

		other := journalEntry()
		other.RequestID = "req-2"
		different, err := poster.Post(context.Background(), other)
		require.NoError(t, err)
		assert.NotEqual(t, id, different)
	})

	t.Run("rejects incomplete entries", func(t *testing.T) {
		noID := journalEntry()
		noID.RequestID = ""
		_, err := poster.Post(context.Background(), noID)
		assert.Error(t, err)

		zero := journalEntry()
		zero.FunctionalAmount = money.Zero(money.MustCurrency("TRY"))
		_, err = poster.Post(context.Background(), zero)
		assert.Error(t, err)
	})

	t.Run("broker error", func(t *testing.T) {
		failing := &mockPublisher{publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			return errors.New("broker down")
		}}
		_, err := kafka.NewJournalPoster(failing, "ledger.postings.requested", nil).Post(context.Background(), journalEntry())
		testutil.AssertErrorContains(t, err, "req-1")
	})
}

func TestLedgerEventHandler_Handle(t *testing.T) {
	message := func(eventType, body string) pkgkafka.Message {
		return pkgkafka.Message{Value: []byte(body), Headers: map[string]string{"event_type": eventType}}
	}

	tests := []struct {
		name         string
		msg          pkgkafka.Message
		wantClosed   []postgres.Period
		wantReopened []postgres.Period
		wantErr      bool
	}{
		{
			name:       "period closed",
			msg:        message(kafka.PeriodClosedType, `{"tenant_id":"t1","period":"2025-03"}`),
			wantClosed: []postgres.Period{{TenantID: "t1", Year: 2025, Month: time.March}},
		},
		{
			name:       "kind-specific close",
			msg:        message(kafka.PeriodClosedType, `{"tenant_id":"t1","period":"2025-03","transaction_kind":"DEPRECIATION"}`),
			wantClosed: []postgres.Period{{TenantID: "t1", Year: 2025, Month: time.March, Kind: "DEPRECIATION"}},
		},
		{
			name:         "period reopened",
			msg:          message(kafka.PeriodReopenedType, `{"tenant_id":"t1","period":"2025-12"}`),
			wantReopened: []postgres.Period{{TenantID: "t1", Year: 2025, Month: time.December}},
		},
		{
			name:       "event type from the payload",
			msg:        pkgkafka.Message{Value: []byte(`{"event_type":"ledger.period.closed","tenant_id":"t1","period":"2025-01"}`)},
			wantClosed: []postgres.Period{{TenantID: "t1", Year: 2025, Month: time.January}},
		},
		{
			name: "other ledger events are skipped",
			msg:  message("ledger.entry.posted", `{"tenant_id":"t1"}`),
		},
		{
			name:    "malformed period",
			msg:     message(kafka.PeriodClosedType, `{"tenant_id":"t1","period":"March"}`),
			wantErr: true,
		},
		{
			name:    "missing tenant",
			msg:     message(kafka.PeriodClosedType, `{"period":"2025-03"}`),
			wantErr: true,
		},
		{
			name:    "not json",
			msg:     message(kafka.PeriodClosedType, `closed`),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := &mockPeriods{}
			err := kafka.NewLedgerEventHandler(periods, nil).Handle(context.Background(), tt.msg)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, periods.closed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClosed, periods.closed)
			assert.Equal(t, tt.wantReopened, periods.reopened)
		})
	}

	t.Run("projection failure is returned for redelivery", func(t *testing.T) {
		periods := &mockPeriods{err: errors.New("db down")}
		err := kafka.NewLedgerEventHandler(periods, nil).Handle(context.Background(),
			message(kafka.PeriodClosedType, `{"tenant_id":"t1","period":"2025-03"}`))
		assert.Error(t, err)
	})
}
