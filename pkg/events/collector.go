package events

// EventCollector is embedded in aggregates to collect domain events during state transitions.
// Copying an aggregate copies the collector; Record always allocates a fresh backing array so
// copies never observe each other's events.
type EventCollector struct {
	events []DomainEvent
}

// Record appends a domain event to the collector.
func (c *EventCollector) Record(event DomainEvent) {
	next := make([]DomainEvent, len(c.events), len(c.events)+1)
	copy(next, c.events)
	c.events = append(next, event)
}

// Events returns a copy of the collected domain events without clearing them.
func (c *EventCollector) Events() []DomainEvent {
	if len(c.events) == 0 {
		return nil
	}
	out := make([]DomainEvent, len(c.events))
	copy(out, c.events)
	return out
}

// ClearEvents returns the collected domain events and clears the internal slice.
func (c *EventCollector) ClearEvents() []DomainEvent {
	collected := c.events
	c.events = nil
	return collected
}
