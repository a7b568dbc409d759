package valueobject

import "fmt"

// PostingAccounts is the chart-of-accounts mapping of one schedule owner.
//
// For loans and installment plans Principal is the liability or receivable
// account and Settlement the bank or cash account. For fixed assets Principal
// is the depreciation expense account and Settlement the accumulated
// depreciation account, booked with DirectionPayable.
type PostingAccounts struct {
	Principal  AccountCode `json:"principal"`
	Interest   AccountCode `json:"interest"`
	Settlement AccountCode `json:"settlement"`
	Fee        AccountCode `json:"fee"`
}

// Default account mappings of the uniform chart of accounts.
var (
	// Bank loans: 300 bank loans, 780 finance expense, 102 banks, 653 commissions.
	DefaultLoanAccounts = PostingAccounts{
		Principal:  MustAccountCode("300"),
		Interest:   MustAccountCode("780"),
		Settlement: MustAccountCode("102"),
		Fee:        MustAccountCode("653"),
	}
	// Installment sales: 120 customers, 642 interest income, 102 banks.
	DefaultReceivablePlanAccounts = PostingAccounts{
		Principal:  MustAccountCode("120"),
		Interest:   MustAccountCode("642"),
		Settlement: MustAccountCode("102"),
		Fee:        MustAccountCode("649"),
	}
	// Installment purchases: 320 suppliers, 780 finance expense, 102 banks.
	DefaultPayablePlanAccounts = PostingAccounts{
		Principal:  MustAccountCode("320"),
		Interest:   MustAccountCode("780"),
		Settlement: MustAccountCode("102"),
		Fee:        MustAccountCode("653"),
	}
	// Fixed assets: 770 general administrative expenses, 257 accumulated depreciation.
	DefaultAssetAccounts = PostingAccounts{
		Principal:  MustAccountCode("770"),
		Interest:   MustAccountCode("780"),
		Settlement: MustAccountCode("257"),
		Fee:        MustAccountCode("689"),
	}
)

// Validate returns an error when a required account is missing.
func (p PostingAccounts) Validate() error {
	if p.Principal.IsZero() || p.Settlement.IsZero() {
		return fmt.Errorf("posting accounts: principal and settlement accounts are required")
	}
	return nil
}

// Entry returns the debit and credit accounts for a posting of the given kind.
func (p PostingAccounts) Entry(kind PostingKind, direction Direction) (debit, credit AccountCode) {
	var side AccountCode
	switch kind {
	case PostingKindInterest:
		side = p.Interest
	case PostingKindFee:
		side = p.Fee
	default:
		side = p.Principal
	}
	if side.IsZero() {
		side = p.Principal
	}
	if direction.Equal(DirectionReceivable) {
		return p.Settlement, side
	}
	return side, p.Settlement
}
