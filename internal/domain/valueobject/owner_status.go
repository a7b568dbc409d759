package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// OwnerStatus – immutable value object
// ---------------------------------------------------------------------------

// OwnerStatus is the lifecycle stage of a loan, installment plan or fixed asset.
type OwnerStatus struct {
	value string
}

const (
	ownerStatusDraft        = "DRAFT"
	ownerStatusActive       = "ACTIVE"
	ownerStatusClosed       = "CLOSED"
	ownerStatusDefaulted    = "DEFAULTED"
	ownerStatusRestructured = "RESTRUCTURED"
	ownerStatusCancelled    = "CANCELLED"
)

var (
	OwnerStatusDraft        = OwnerStatus{value: ownerStatusDraft}
	OwnerStatusActive       = OwnerStatus{value: ownerStatusActive}
	OwnerStatusClosed       = OwnerStatus{value: ownerStatusClosed}
	OwnerStatusDefaulted    = OwnerStatus{value: ownerStatusDefaulted}
	OwnerStatusRestructured = OwnerStatus{value: ownerStatusRestructured}
	OwnerStatusCancelled    = OwnerStatus{value: ownerStatusCancelled}
)

var validOwnerStatuses = map[string]OwnerStatus{
	ownerStatusDraft:        OwnerStatusDraft,
	ownerStatusActive:       OwnerStatusActive,
	ownerStatusClosed:       OwnerStatusClosed,
	ownerStatusDefaulted:    OwnerStatusDefaulted,
	ownerStatusRestructured: OwnerStatusRestructured,
	ownerStatusCancelled:    OwnerStatusCancelled,
}

// ownerTransitions lists the statuses reachable from each status.
var ownerTransitions = map[string][]string{
	ownerStatusDraft:        {ownerStatusActive, ownerStatusCancelled},
	ownerStatusActive:       {ownerStatusClosed, ownerStatusDefaulted, ownerStatusRestructured, ownerStatusCancelled},
	ownerStatusRestructured: {ownerStatusClosed, ownerStatusDefaulted, ownerStatusRestructured},
	ownerStatusDefaulted:    {ownerStatusRestructured, ownerStatusClosed},
}

// NewOwnerStatus creates an OwnerStatus from a raw string.
func NewOwnerStatus(s string) (OwnerStatus, error) {
	v, ok := validOwnerStatuses[s]
	if !ok {
		return OwnerStatus{}, fmt.Errorf("invalid owner status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s OwnerStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s OwnerStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s OwnerStatus) Equal(other OwnerStatus) bool { return s.value == other.value }

// AcceptsPayments reports whether cash may be applied against the schedule.
func (s OwnerStatus) AcceptsPayments() bool {
	return s.value == ownerStatusActive || s.value == ownerStatusRestructured
}

// IsTerminal reports whether no further transition is possible.
func (s OwnerStatus) IsTerminal() bool {
	return len(ownerTransitions[s.value]) == 0
}

// CanTransitionTo reports whether next is reachable from s.
func (s OwnerStatus) CanTransitionTo(next OwnerStatus) bool {
	for _, v := range ownerTransitions[s.value] {
		if v == next.value {
			return true
		}
	}
	return false
}

// TransitionTo returns next when the move is allowed.
func (s OwnerStatus) TransitionTo(next OwnerStatus) (OwnerStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, next)
	}
	return next, nil
}

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
