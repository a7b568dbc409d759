package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// Loan is a borrowing repaid on a generated schedule. It is immutable; every
// command returns a new copy.
type Loan struct {
	scheduleOwner

	lender                string
	loanType              string
	prepaymentAllowed     bool
	prepaymentPenaltyRate valueobject.Optional[decimal.Decimal]
	bsmvRate              valueobject.Optional[decimal.Decimal]
	kkdfRate              valueobject.Optional[decimal.Decimal]
	fees                  money.Money
}

// NewLoanParams holds the terms of a new loan. Rates are percentages.
type NewLoanParams struct {
	TenantID     string
	LoanNumber   string
	Lender       string
	LoanType     string
	Principal    money.Money
	AnnualRate   decimal.Decimal
	TermCount    int
	Frequency    valueobject.Frequency
	Method       valueobject.Method
	FirstDueDate time.Time
	GracePeriods int

	PrepaymentAllowed       bool
	PrepaymentPenaltyRate   valueobject.Optional[decimal.Decimal]
	LatePaymentInterestRate valueobject.Optional[decimal.Decimal]
	// BSMVRate and KKDFRate are charged on interest and reported, not amortized.
	BSMVRate valueobject.Optional[decimal.Decimal]
	KKDFRate valueobject.Optional[decimal.Decimal]
	Fees     valueobject.Optional[money.Money]
	// Accounts defaults to DefaultLoanAccounts.
	Accounts valueobject.Optional[valueobject.PostingAccounts]
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan creates a draft loan. The schedule is generated on activation.
func NewLoan(p NewLoanParams, now time.Time) (Loan, error) {
	if p.Method.IsDepreciation() && !p.Method.Equal(valueobject.MethodStraightLine) {
		return Loan{}, invalidArgument("method %s is not a repayment method", p.Method)
	}
	if p.Lender == "" {
		return Loan{}, invalidArgument("lender is required")
	}
	if err := checkRate("prepayment penalty rate", p.PrepaymentPenaltyRate); err != nil {
		return Loan{}, err
	}
	if err := checkRate("BSMV rate", p.BSMVRate); err != nil {
		return Loan{}, err
	}
	if err := checkRate("KKDF rate", p.KKDFRate); err != nil {
		return Loan{}, err
	}
	cur := p.Principal.Currency()
	fees := p.Fees.OrElse(money.Zero(cur))
	if fees.Currency() != cur {
		return Loan{}, currencyMismatch(cur, fees.Currency())
	}
	if fees.IsNegative() {
		return Loan{}, invalidArgument("fees must not be negative")
	}

	core, err := newScheduleOwner(ownerParams{
		tenantID:  p.TenantID,
		kind:      valueobject.OwnerKindLoan,
		reference: p.LoanNumber,
		terms: ScheduleTerms{
			Principal:    p.Principal,
			Salvage:      money.Zero(cur),
			AnnualRate:   p.AnnualRate,
			TermCount:    p.TermCount,
			Frequency:    p.Frequency,
			Method:       p.Method,
			FirstDueDate: p.FirstDueDate,
			GracePeriods: p.GracePeriods,
		},
		accounts:      p.Accounts.OrElse(valueobject.DefaultLoanAccounts),
		direction:     valueobject.DirectionPayable,
		principalKind: valueobject.PostingKindPrincipal,
		lateRate:      p.LatePaymentInterestRate,
	}, now)
	if err != nil {
		return Loan{}, err
	}

	return Loan{
		scheduleOwner:         core,
		lender:                p.Lender,
		loanType:              p.LoanType,
		prepaymentAllowed:     p.PrepaymentAllowed,
		prepaymentPenaltyRate: p.PrepaymentPenaltyRate,
		bsmvRate:              p.BSMVRate,
		kkdfRate:              p.KKDFRate,
		fees:                  fees,
	}, nil
}

// ---------------------------------------------------------------------------
// Owner hooks
// ---------------------------------------------------------------------------

func (l Loan) withBase(c scheduleOwner) Owner {
	l.scheduleOwner = c
	return l
}

// preparePayment rejects prepayments the contract forbids and computes the
// penalty, which is booked as a fee and not applied to the schedule.
func (l Loan) preparePayment(p Payment) (money.Money, error) {
	cur := l.Currency()
	if !p.Mode.Equal(valueobject.PaymentModePrepayment) {
		return money.Zero(cur), nil
	}
	if !l.prepaymentAllowed {
		return money.Money{}, invalidState("loan %s does not allow prepayment", l.reference)
	}
	rate, ok := l.prepaymentPenaltyRate.Get()
	if !ok || p.Amount.Currency() != cur {
		return money.Zero(cur), nil
	}
	penalty := p.Amount.Multiply(rate.Div(hundred)).Round()
	if penalty.Amount().GreaterThanOrEqual(p.Amount.Amount()) {
		return money.Money{}, invalidArgument("prepayment %s does not cover its penalty %s", p.Amount, penalty)
	}
	return penalty, nil
}

// TransactionKind is what the period gate is asked for before a repayment.
func (l Loan) TransactionKind() valueobject.TransactionKind {
	return valueobject.TransactionKindLoanPayment
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) LoanNumber() string { return l.reference }
func (l Loan) Lender() string { return l.lender }
func (l Loan) LoanType() string { return l.loanType }
func (l Loan) Principal() money.Money { return l.terms.Principal }
func (l Loan) PrepaymentAllowed() bool { return l.prepaymentAllowed }
func (l Loan) Fees() money.Money { return l.fees }
func (l Loan) BSMVRate() valueobject.Optional[decimal.Decimal] { return l.bsmvRate }
func (l Loan) KKDFRate() valueobject.Optional[decimal.Decimal] { return l.kkdfRate }

func (l Loan) PrepaymentPenaltyRate() valueobject.Optional[decimal.Decimal] {
	return l.prepaymentPenaltyRate
}

// BSMVTotal is the banking and insurance transaction tax on the scheduled interest.
func (l Loan) BSMVTotal() money.Money { return l.interestTax(l.bsmvRate) }

// KKDFTotal is the resource utilization support fund levy on the scheduled interest.
func (l Loan) KKDFTotal() money.Money { return l.interestTax(l.kkdfRate) }

// TotalCost is principal, interest, taxes and fees together.
func (l Loan) TotalCost() money.Money {
	total := l.terms.Principal.Amount().
		Add(l.TotalInterest().Amount()).
		Add(l.BSMVTotal().Amount()).
		Add(l.KKDFTotal().Amount()).
		Add(l.fees.Amount())
	return money.New(total, l.Currency())
}

func (l Loan) interestTax(rate valueobject.Optional[decimal.Decimal]) money.Money {
	r, ok := rate.Get()
	if !ok {
		return money.Zero(l.Currency())
	}
	return l.TotalInterest().Multiply(r.Div(hundred)).Round()
}

// State returns a persistence snapshot.
func (l Loan) State() OwnerState {
	s := l.stateBase()
	s.Loan = LoanAttributes{
		Lender:                l.lender,
		LoanType:              l.loanType,
		PrepaymentAllowed:     l.prepaymentAllowed,
		PrepaymentPenaltyRate: l.prepaymentPenaltyRate,
		BSMVRate:              l.bsmvRate,
		KKDFRate:              l.kkdfRate,
		Fees:                  l.fees.Amount(),
	}
	return s
}
