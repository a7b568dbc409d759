package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := "agg-123"
	tenantID := "tenant-456"

	before := time.Now().UTC()
	event := NewBaseEvent("finance.loan.activated", aggregateID, "Loan", tenantID)
	after := time.Now().UTC()

	if event.EventID() == "" {
		t.Error("expected non-empty event ID")
	}

	if event.EventType() != "finance.loan.activated" {
		t.Errorf("expected event type %q, got %q", "finance.loan.activated", event.EventType())
	}

	if event.AggregateID() != aggregateID {
		t.Errorf("expected aggregate ID %v, got %v", aggregateID, event.AggregateID())
	}

	if event.AggregateType() != "Loan" {
		t.Errorf("expected aggregate type %q, got %q", "Loan", event.AggregateType())
	}

	if event.TenantID() != tenantID {
		t.Errorf("expected tenant ID %q, got %q", tenantID, event.TenantID())
	}

	if event.OccurredAt().Before(before) || event.OccurredAt().After(after) {
		t.Errorf("expected occurredAt between %v and %v, got %v", before, after, event.OccurredAt())
	}
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
}

func TestBaseEventJSONEnvelope(t *testing.T) {
	event := NewBaseEvent("finance.asset.depreciated", "asset-1", "FixedAsset", "tenant-1")

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"event_id", "event_type", "aggregate_id", "aggregate_type", "tenant_id", "occurred_at"} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("expected envelope key %q in %s", key, data)
		}
	}
}

func TestEventCollectorRecord(t *testing.T) {
	collector := &EventCollector{}
	aggregateID := "agg-test"

	e1 := NewBaseEvent("Event1", aggregateID, "Aggregate", "")
	e2 := NewBaseEvent("Event2", aggregateID, "Aggregate", "")

	collector.Record(e1)
	collector.Record(e2)

	events := collector.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if events[0].EventType() != "Event1" {
		t.Errorf("expected first event type %q, got %q", "Event1", events[0].EventType())
	}

	if events[1].EventType() != "Event2" {
		t.Errorf("expected second event type %q, got %q", "Event2", events[1].EventType())
	}
}

func TestEventCollectorCopiesAreIndependent(t *testing.T) {
	original := EventCollector{}
	original.Record(NewBaseEvent("Event1", "agg", "Aggregate", ""))

	copied := original
	copied.Record(NewBaseEvent("Event2", "agg", "Aggregate", ""))
	original.Record(NewBaseEvent("Event3", "agg", "Aggregate", ""))

	if got := copied.Events()[1].EventType(); got != "Event2" {
		t.Errorf("expected copy to keep its own second event, got %q", got)
	}
	if got := original.Events()[1].EventType(); got != "Event3" {
		t.Errorf("expected original to keep its own second event, got %q", got)
	}
}

func TestEventCollectorEventsDoesNotClear(t *testing.T) {
	collector := &EventCollector{}
	collector.Record(NewBaseEvent("Event1", "agg", "Aggregate", ""))

	_ = collector.Events()

	if len(collector.Events()) != 1 {
		t.Error("expected Events() to not clear the internal slice")
	}
}

func TestEventCollectorClearEvents(t *testing.T) {
	collector := &EventCollector{}
	aggregateID := "agg-clear"

	collector.Record(NewBaseEvent("Event1", aggregateID, "Aggregate", ""))
	collector.Record(NewBaseEvent("Event2", aggregateID, "Aggregate", ""))

	cleared := collector.ClearEvents()

	if len(cleared) != 2 {
		t.Fatalf("expected ClearEvents to return 2 events, got %d", len(cleared))
	}

	if len(collector.Events()) != 0 {
		t.Errorf("expected internal slice to be empty after ClearEvents, got %d events", len(collector.Events()))
	}
}

func TestEventCollectorClearEventsOnEmpty(t *testing.T) {
	collector := &EventCollector{}

	cleared := collector.ClearEvents()

	if cleared != nil {
		t.Errorf("expected nil from ClearEvents on empty collector, got %v", cleared)
	}
}

func TestNewOutboxEntry(t *testing.T) {
	aggregateID := "loan-789"
	tenantID := "tenant-012"
	event := NewBaseEvent("finance.payment.applied", aggregateID, "Loan", tenantID)

	entry, err := NewOutboxEntry(event)
	if err != nil {
		t.Fatalf("NewOutboxEntry: %v", err)
	}

	if entry.ID != event.EventID() {
		t.Errorf("expected outbox ID %v, got %v", event.EventID(), entry.ID)
	}

	if entry.TenantID != tenantID {
		t.Errorf("expected tenant ID %q, got %q", tenantID, entry.TenantID)
	}

	if entry.AggregateID != aggregateID {
		t.Errorf("expected aggregate ID %v, got %v", aggregateID, entry.AggregateID)
	}

	if entry.AggregateType != "Loan" {
		t.Errorf("expected aggregate type %q, got %q", "Loan", entry.AggregateType)
	}

	if entry.EventType != "finance.payment.applied" {
		t.Errorf("expected event type %q, got %q", "finance.payment.applied", entry.EventType)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(entry.Payload, &parsed); err != nil {
		t.Errorf("expected valid JSON payload, got error: %v", err)
	}

	if !entry.CreatedAt.Equal(event.OccurredAt()) {
		t.Errorf("expected created at %v, got %v", event.OccurredAt(), entry.CreatedAt)
	}

	if entry.PublishedAt != nil {
		t.Error("expected published at to be nil")
	}
}

func TestNewOutboxEntriesKeepsOrder(t *testing.T) {
	e1 := NewBaseEvent("Event1", "agg", "Aggregate", "t")
	e2 := NewBaseEvent("Event2", "agg", "Aggregate", "t")

	entries, err := NewOutboxEntries(e1, e2)
	if err != nil {
		t.Fatalf("NewOutboxEntries: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != e1.EventID() || entries[1].ID != e2.EventID() {
		t.Errorf("expected entries in event order, got %+v", entries)
	}

	ids := EventIDs(e1, e2)
	if len(ids) != 2 || ids[0] != e1.EventID() || ids[1] != e2.EventID() {
		t.Errorf("expected event ids in order, got %v", ids)
	}
}
