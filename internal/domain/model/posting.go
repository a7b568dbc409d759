package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// PostingRequest is a journal entry the owner wants booked. It stays
// pending until the journal acknowledges it with an entry id.
type PostingRequest struct {
	ID             string
	LineSequence   int
	Kind           valueobject.PostingKind
	Date           time.Time
	Debit          valueobject.AccountCode
	Credit         valueobject.AccountCode
	Amount         money.Money
	Memo           string
	Status         valueobject.PostingStatus
	JournalEntryID string
	Attempts       int
	LastError      string
}

// IsPending reports whether the request still needs to reach the journal.
func (p PostingRequest) IsPending() bool {
	return p.Status.Equal(valueobject.PostingStatusPending)
}

func newPostingRequest(
	seq int,
	kind valueobject.PostingKind,
	date time.Time,
	accounts valueobject.PostingAccounts,
	direction valueobject.Direction,
	amount money.Money,
	memo string,
) PostingRequest {
	debit, credit := accounts.Entry(kind, direction)
	return PostingRequest{
		ID:           uuid.New().String(),
		LineSequence: seq,
		Kind:         kind,
		Date:         date,
		Debit:        debit,
		Credit:       credit,
		Amount:       amount,
		Memo:         memo,
		Status:       valueobject.PostingStatusPending,
	}
}

func postingMemo(kind valueobject.OwnerKind, reference string, seq int, posting valueobject.PostingKind) string {
	if seq == 0 {
		return fmt.Sprintf("%s %s %s", kind.AggregateType(), reference, posting)
	}
	return fmt.Sprintf("%s %s line %d %s", kind.AggregateType(), reference, seq, posting)
}

func clonePostings(in []PostingRequest) []PostingRequest {
	if in == nil {
		return nil
	}
	out := make([]PostingRequest, len(in))
	copy(out, in)
	return out
}
