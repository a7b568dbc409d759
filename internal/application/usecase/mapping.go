package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// ---------------------------------------------------------------------------
// Request parsing
// ---------------------------------------------------------------------------

func invalid(err error) error {
	return fmt.Errorf("%w: %w", model.ErrInvalidArgument, err)
}

func parseCurrency(code string) (money.Currency, error) {
	cur, err := money.NewCurrency(code)
	if err != nil {
		return money.Currency{}, invalid(err)
	}
	return cur, nil
}

func parseMoney(amount decimal.Decimal, code string) (money.Money, error) {
	cur, err := parseCurrency(code)
	if err != nil {
		return money.Money{}, err
	}
	return money.New(amount, cur), nil
}

func optionalMoney(amount *decimal.Decimal, cur money.Currency) valueobject.Optional[money.Money] {
	if amount == nil {
		return valueobject.None[money.Money]()
	}
	return valueobject.Some(money.New(*amount, cur))
}

func optionalRate(rate *decimal.Decimal) valueobject.Optional[decimal.Decimal] {
	if rate == nil {
		return valueobject.None[decimal.Decimal]()
	}
	return valueobject.Some(*rate)
}

func parseFrequency(s string) (valueobject.Frequency, error) {
	f, err := valueobject.NewFrequency(s)
	if err != nil {
		return valueobject.Frequency{}, invalid(err)
	}
	return f, nil
}

// parseOptionalFrequency maps "" to the zero Frequency.
func parseOptionalFrequency(s string) (valueobject.Frequency, error) {
	if s == "" {
		return valueobject.Frequency{}, nil
	}
	return parseFrequency(s)
}

// parseOptionalMethod maps "" to the zero Method.
func parseOptionalMethod(s string) (valueobject.Method, error) {
	if s == "" {
		return valueobject.Method{}, nil
	}
	m, err := valueobject.NewMethod(s)
	if err != nil {
		return valueobject.Method{}, invalid(err)
	}
	return m, nil
}

func asFixedAsset(owner model.Owner) (model.FixedAsset, error) {
	asset, ok := owner.(model.FixedAsset)
	if !ok {
		return model.FixedAsset{}, fmt.Errorf("%w: %s %s is not a fixed asset",
			model.ErrInvalidArgument, owner.Kind().AggregateType(), owner.ID())
	}
	return asset, nil
}

// ---------------------------------------------------------------------------
// Response mapping
// ---------------------------------------------------------------------------

func toLineResponse(l model.ScheduleLine) dto.ScheduleLineResponse {
	r := dto.ScheduleLineResponse{
		Sequence:         l.Sequence,
		DueDate:          l.DueDate,
		Principal:        l.Principal.Amount(),
		Interest:         l.Interest.Amount(),
		Total:            l.Total.Amount(),
		Paid:             l.Paid.Amount(),
		Remaining:        l.Remaining.Amount(),
		RemainingBalance: l.RemainingBalance.Amount(),
		Discount:         l.Discount.Amount(),
		IsPaid:           l.IsPaid,
		IsPartiallyPaid:  l.IsPartiallyPaid,
		IsBalloon:        l.IsBalloon,
		IsCancelled:      l.IsCancelled,
	}
	r.PaymentDate = timePtr(l.PaymentDate)
	return r
}

func timePtr(o valueobject.Optional[time.Time]) *time.Time {
	if t, ok := o.Get(); ok {
		return &t
	}
	return nil
}

func toPostingResponse(p model.PostingRequest) dto.PostingResponse {
	return dto.PostingResponse{
		ID:             p.ID,
		LineSequence:   p.LineSequence,
		Kind:           p.Kind.String(),
		Date:           p.Date,
		Debit:          p.Debit.String(),
		Credit:         p.Credit.String(),
		Amount:         p.Amount.Amount(),
		Status:         p.Status.String(),
		JournalEntryID: p.JournalEntryID,
		Attempts:       p.Attempts,
		LastError:      p.LastError,
	}
}

func toOwnerResponse(o model.Owner) dto.OwnerResponse {
	terms := o.Terms()
	resp := dto.OwnerResponse{
		ID:               o.ID(),
		TenantID:         o.TenantID(),
		Kind:             o.Kind().String(),
		Reference:        o.Reference(),
		Status:           o.Status().String(),
		Currency:         o.Currency().Code(),
		Principal:        terms.Principal.Amount(),
		AnnualRate:       terms.AnnualRate,
		TermCount:        terms.TermCount,
		Frequency:        terms.Frequency.String(),
		Method:           terms.Method.String(),
		PaidTotal:        o.PaidTotal().Amount(),
		RemainingTotal:   o.RemainingTotal().Amount(),
		TotalInterest:    o.TotalInterest().Amount(),
		PaidInstallments: o.PaidInstallments(),
		RestructureCount: o.RestructureCount(),
		Version:          o.Version(),
		CreatedAt:        o.CreatedAt(),
		UpdatedAt:        o.UpdatedAt(),
	}

	for _, l := range o.Schedule() {
		resp.Schedule = append(resp.Schedule, toLineResponse(l))
	}
	for _, s := range o.SupersededLines() {
		resp.Superseded = append(resp.Superseded, dto.SupersededLineResponse{Round: s.Round, Line: toLineResponse(s.Line)})
	}
	for _, p := range o.PendingPostings() {
		resp.PendingPostings = append(resp.PendingPostings, toPostingResponse(p))
	}

	switch v := o.(type) {
	case model.Loan:
		resp.Loan = &dto.LoanDetails{
			Lender:            v.Lender(),
			LoanType:          v.LoanType(),
			PrepaymentAllowed: v.PrepaymentAllowed(),
			BSMVTotal:         v.BSMVTotal().Amount(),
			KKDFTotal:         v.KKDFTotal().Amount(),
			Fees:              v.Fees().Amount(),
			TotalCost:         v.TotalCost().Amount(),
		}
	case model.InstallmentPlan:
		resp.Plan = &dto.PlanDetails{
			PlanType:          v.PlanType().String(),
			Direction:         v.Direction().String(),
			Counterparty:      v.Counterparty(),
			TotalAmount:       v.TotalAmount().Amount(),
			DownPayment:       v.DownPayment().Amount(),
			InstallmentAmount: v.InstallmentAmount().Amount(),
		}
	case model.FixedAsset:
		details := &dto.AssetDetails{
			Name:                      v.Name(),
			Category:                  v.Category(),
			AcquisitionDate:           v.AcquisitionDate(),
			InServiceDate:             timePtr(v.InServiceDate()),
			UsefulLifeYears:           v.UsefulLifeYears(),
			Cost:                      v.Cost().Amount(),
			SalvageValue:              v.SalvageValue().Amount(),
			AccumulatedDepreciation:   v.AccumulatedDepreciation().Amount(),
			NetBookValue:              v.NetBookValue().Amount(),
			RevaluationTotal:          v.RevaluationTotal().Amount(),
			RemainingUsefulLifeMonths: v.RemainingUsefulLifeMonths(),
			IsFullyDepreciated:        v.IsFullyDepreciated(),
		}
		if d, ok := v.Disposal().Get(); ok {
			details.DisposalType = d.Type.String()
			if g, ok := d.GainLoss.Get(); ok {
				amount := g.Amount()
				details.GainLoss = &amount
			}
		}
		resp.Asset = details
	}

	return resp
}

func toPaymentResponse(o model.Owner, res model.PaymentResult) dto.PaymentResponse {
	return dto.PaymentResponse{
		OwnerID:         o.ID(),
		Status:          o.Status().String(),
		Applied:         res.Applied.Amount(),
		Principal:       res.PrincipalTotal().Amount(),
		Interest:        res.InterestTotal().Amount(),
		Discount:        res.Discount.Amount(),
		Penalty:         res.Penalty.Amount(),
		Currency:        o.Currency().Code(),
		Sequences:       res.Sequences(),
		RemainingTotal:  o.RemainingTotal().Amount(),
		PendingPostings: len(o.PendingPostings()),
	}
}
