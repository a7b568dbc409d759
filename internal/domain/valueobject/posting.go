package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// PostingKind – immutable value object
// ---------------------------------------------------------------------------

// PostingKind is the component of a cash or depreciation movement being journaled.
type PostingKind struct {
	value string
}

const (
	postingKindPrincipal    = "PRINCIPAL"
	postingKindInterest     = "INTEREST"
	postingKindFee          = "FEE"
	postingKindDepreciation = "DEPRECIATION"
)

var (
	PostingKindPrincipal    = PostingKind{value: postingKindPrincipal}
	PostingKindInterest     = PostingKind{value: postingKindInterest}
	PostingKindFee          = PostingKind{value: postingKindFee}
	PostingKindDepreciation = PostingKind{value: postingKindDepreciation}
)

var validPostingKinds = map[string]PostingKind{
	postingKindPrincipal:    PostingKindPrincipal,
	postingKindInterest:     PostingKindInterest,
	postingKindFee:          PostingKindFee,
	postingKindDepreciation: PostingKindDepreciation,
}

// NewPostingKind creates a PostingKind from a raw string.
func NewPostingKind(s string) (PostingKind, error) {
	v, ok := validPostingKinds[s]
	if !ok {
		return PostingKind{}, fmt.Errorf("invalid posting kind: %q", s)
	}
	return v, nil
}

func (k PostingKind) String() string { return k.value }
func (k PostingKind) IsZero() bool { return k.value == "" }
func (k PostingKind) Equal(other PostingKind) bool { return k.value == other.value }

// ---------------------------------------------------------------------------
// PostingStatus – immutable value object
// ---------------------------------------------------------------------------

// PostingStatus tracks whether a posting request reached the journal.
type PostingStatus struct {
	value string
}

const (
	postingStatusPending = "PENDING"
	postingStatusPosted  = "POSTED"
)

var (
	PostingStatusPending = PostingStatus{value: postingStatusPending}
	PostingStatusPosted  = PostingStatus{value: postingStatusPosted}
)

var validPostingStatuses = map[string]PostingStatus{
	postingStatusPending: PostingStatusPending,
	postingStatusPosted:  PostingStatusPosted,
}

// NewPostingStatus creates a PostingStatus from a raw string.
func NewPostingStatus(s string) (PostingStatus, error) {
	v, ok := validPostingStatuses[s]
	if !ok {
		return PostingStatus{}, fmt.Errorf("invalid posting status: %q", s)
	}
	return v, nil
}

func (s PostingStatus) String() string { return s.value }
func (s PostingStatus) IsZero() bool { return s.value == "" }
func (s PostingStatus) Equal(other PostingStatus) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// TransactionKind – immutable value object
// ---------------------------------------------------------------------------

// TransactionKind is what the accounting period gate is asked to allow.
type TransactionKind struct {
	value string
}

const (
	transactionKindLoanPayment         = "LOAN_PAYMENT"
	transactionKindInstallmentReceipt  = "INSTALLMENT_RECEIPT"
	transactionKindInstallmentPayment  = "INSTALLMENT_PAYMENT"
	transactionKindDepreciation        = "DEPRECIATION"
	transactionKindScheduleRestructure = "SCHEDULE_RESTRUCTURE"
)

var (
	TransactionKindLoanPayment         = TransactionKind{value: transactionKindLoanPayment}
	TransactionKindInstallmentReceipt  = TransactionKind{value: transactionKindInstallmentReceipt}
	TransactionKindInstallmentPayment  = TransactionKind{value: transactionKindInstallmentPayment}
	TransactionKindDepreciation        = TransactionKind{value: transactionKindDepreciation}
	TransactionKindScheduleRestructure = TransactionKind{value: transactionKindScheduleRestructure}
)

var validTransactionKinds = map[string]TransactionKind{
	transactionKindLoanPayment:         TransactionKindLoanPayment,
	transactionKindInstallmentReceipt:  TransactionKindInstallmentReceipt,
	transactionKindInstallmentPayment:  TransactionKindInstallmentPayment,
	transactionKindDepreciation:        TransactionKindDepreciation,
	transactionKindScheduleRestructure: TransactionKindScheduleRestructure,
}

// NewTransactionKind creates a TransactionKind from a raw string.
func NewTransactionKind(s string) (TransactionKind, error) {
	v, ok := validTransactionKinds[s]
	if !ok {
		return TransactionKind{}, fmt.Errorf("invalid transaction kind: %q", s)
	}
	return v, nil
}

func (k TransactionKind) String() string { return k.value }
func (k TransactionKind) IsZero() bool { return k.value == "" }
func (k TransactionKind) Equal(other TransactionKind) bool { return k.value == other.value }
