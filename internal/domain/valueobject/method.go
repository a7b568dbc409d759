package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// Method – immutable value object
// ---------------------------------------------------------------------------

// Method selects how principal and interest are spread over a schedule.
type Method struct {
	value string
}

const (
	methodStraightLine           = "STRAIGHT_LINE"
	methodDecliningBalance       = "DECLINING_BALANCE"
	methodDoubleDecliningBalance = "DOUBLE_DECLINING_BALANCE"
	methodSumOfYearsDigits       = "SUM_OF_YEARS_DIGITS"
	methodAnnuity                = "ANNUITY"
	methodEqualPrincipal         = "EQUAL_PRINCIPAL"
	methodBullet                 = "BULLET"
	methodInterestOnly           = "INTEREST_ONLY"
	methodSimpleInterest         = "SIMPLE_INTEREST"
)

var (
	MethodStraightLine           = Method{value: methodStraightLine}
	MethodDecliningBalance       = Method{value: methodDecliningBalance}
	MethodDoubleDecliningBalance = Method{value: methodDoubleDecliningBalance}
	MethodSumOfYearsDigits       = Method{value: methodSumOfYearsDigits}
	MethodAnnuity                = Method{value: methodAnnuity}
	MethodEqualPrincipal         = Method{value: methodEqualPrincipal}
	MethodBullet                 = Method{value: methodBullet}
	MethodInterestOnly           = Method{value: methodInterestOnly}
	// MethodSimpleInterest spreads flat interest on the financed amount evenly
	// over the installments (installment sales, credit-card plans).
	MethodSimpleInterest = Method{value: methodSimpleInterest}
)

var validMethods = map[string]Method{
	methodStraightLine:           MethodStraightLine,
	methodDecliningBalance:       MethodDecliningBalance,
	methodDoubleDecliningBalance: MethodDoubleDecliningBalance,
	methodSumOfYearsDigits:       MethodSumOfYearsDigits,
	methodAnnuity:                MethodAnnuity,
	methodEqualPrincipal:         MethodEqualPrincipal,
	methodBullet:                 MethodBullet,
	methodInterestOnly:           MethodInterestOnly,
	methodSimpleInterest:         MethodSimpleInterest,
}

// NewMethod creates a Method from a raw string.
func NewMethod(s string) (Method, error) {
	v, ok := validMethods[s]
	if !ok {
		return Method{}, fmt.Errorf("invalid schedule method: %q", s)
	}
	return v, nil
}

func (m Method) String() string { return m.value }
func (m Method) IsZero() bool { return m.value == "" }
func (m Method) Equal(other Method) bool { return m.value == other.value }

// IsDepreciation reports whether the method is one of the asset depreciation methods.
func (m Method) IsDepreciation() bool {
	switch m.value {
	case methodStraightLine, methodDecliningBalance, methodDoubleDecliningBalance, methodSumOfYearsDigits:
		return true
	}
	return false
}

// IsDecliningBalance reports whether the method charges a rate on the declining book value.
func (m Method) IsDecliningBalance() bool {
	return m.value == methodDecliningBalance || m.value == methodDoubleDecliningBalance
}

// SupportsGracePeriod reports whether leading interest-only periods may precede amortization.
func (m Method) SupportsGracePeriod() bool {
	return m.value == methodAnnuity || m.value == methodEqualPrincipal
}
