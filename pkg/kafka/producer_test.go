package kafka

import (
	"testing"
)

func TestNewProducer(t *testing.T) {
	cfg := Config{
		Brokers:       []string{"localhost:9092", "localhost:9093"},
		ConsumerGroup: "test-group",
	}

	p, err := NewProducer(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(p.brokers))
	}
	if p.brokers[0] != "localhost:9092" {
		t.Errorf("expected broker localhost:9092, got %s", p.brokers[0])
	}
	if p.transport != nil {
		t.Error("expected default transport when TLS and SASL are disabled")
	}
	if len(p.writers) != 0 {
		t.Errorf("expected empty writers map, got %d entries", len(p.writers))
	}
}

func TestNewProducerWithSASL(t *testing.T) {
	tests := []struct {
		name      string
		mechanism string
		wantErr   bool
	}{
		{"plain", "PLAIN", false},
		{"default is plain", "", false},
		{"scram 256", "SCRAM-SHA-256", false},
		{"scram 512", "SCRAM-SHA-512", false},
		{"unsupported", "GSSAPI", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(Config{
				Brokers:       []string{"kafka:9092"},
				SASLEnabled:   true,
				SASLMechanism: tt.mechanism,
				SASLUsername:  "finance",
				SASLPassword:  "secret",
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported mechanism")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.transport == nil || p.transport.SASL == nil {
				t.Error("expected transport with SASL mechanism")
			}
		})
	}
}

func TestNewProducerWithTLS(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"kafka:9093"}, TLS: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.transport == nil || p.transport.TLS == nil {
		t.Fatal("expected transport with TLS config")
	}

	w := p.getOrCreateWriter("finance.events")
	if w.Transport == nil {
		t.Error("expected writer to use the configured transport")
	}
}

func TestGetOrCreateWriter(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w1 := p.getOrCreateWriter("topic-a")
	if w1 == nil {
		t.Fatal("expected non-nil writer")
	}

	// Same topic should return the same writer instance.
	if w2 := p.getOrCreateWriter("topic-a"); w1 != w2 {
		t.Error("expected same writer instance for same topic")
	}

	w3 := p.getOrCreateWriter("topic-b")
	if w1 == w3 {
		t.Error("expected different writer instance for different topic")
	}

	if len(p.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(p.writers))
	}
}

func TestToKafkaMessages(t *testing.T) {
	msgs := toKafkaMessages([]Message{{
		Key:   []byte("loan-123"),
		Value: []byte(`{"amount":"100"}`),
		Headers: map[string]string{
			"event_type": "finance.payment.applied",
		},
	}})

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if string(msgs[0].Key) != "loan-123" {
		t.Errorf("expected key loan-123, got %s", msgs[0].Key)
	}
	if len(msgs[0].Headers) != 1 || msgs[0].Headers[0].Key != "event_type" {
		t.Errorf("unexpected headers: %v", msgs[0].Headers)
	}
}

func TestProducerClose(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = p.getOrCreateWriter("topic-a")
	_ = p.getOrCreateWriter("topic-b")

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}

	if len(p.writers) != 0 {
		t.Errorf("expected 0 writers after close, got %d", len(p.writers))
	}
}
