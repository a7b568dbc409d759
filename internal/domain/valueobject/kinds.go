package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// PaymentMode – immutable value object
// ---------------------------------------------------------------------------

// PaymentMode tells the payment engine how to allocate an incoming amount.
type PaymentMode struct {
	value string
}

const (
	paymentModeRegular    = "REGULAR"
	paymentModePartial    = "PARTIAL"
	paymentModePrepayment = "PREPAYMENT"
)

var (
	// PaymentModeRegular settles the next unpaid line exactly.
	PaymentModeRegular = PaymentMode{value: paymentModeRegular}
	// PaymentModePartial pays less than the next unpaid line.
	PaymentModePartial = PaymentMode{value: paymentModePartial}
	// PaymentModePrepayment consumes unpaid lines oldest first.
	PaymentModePrepayment = PaymentMode{value: paymentModePrepayment}
)

var validPaymentModes = map[string]PaymentMode{
	paymentModeRegular:    PaymentModeRegular,
	paymentModePartial:    PaymentModePartial,
	paymentModePrepayment: PaymentModePrepayment,
}

// NewPaymentMode creates a PaymentMode from a raw string.
func NewPaymentMode(s string) (PaymentMode, error) {
	v, ok := validPaymentModes[s]
	if !ok {
		return PaymentMode{}, fmt.Errorf("invalid payment mode: %q", s)
	}
	return v, nil
}

func (m PaymentMode) String() string { return m.value }
func (m PaymentMode) IsZero() bool { return m.value == "" }
func (m PaymentMode) Equal(other PaymentMode) bool { return m.value == other.value }

// ---------------------------------------------------------------------------
// OwnerKind – immutable value object
// ---------------------------------------------------------------------------

// OwnerKind tags which aggregate owns a schedule.
type OwnerKind struct {
	value string
	name  string
}

const (
	ownerKindLoan            = "LOAN"
	ownerKindInstallmentPlan = "INSTALLMENT_PLAN"
	ownerKindFixedAsset      = "FIXED_ASSET"
)

var (
	OwnerKindLoan            = OwnerKind{value: ownerKindLoan, name: "Loan"}
	OwnerKindInstallmentPlan = OwnerKind{value: ownerKindInstallmentPlan, name: "InstallmentPlan"}
	OwnerKindFixedAsset      = OwnerKind{value: ownerKindFixedAsset, name: "FixedAsset"}
)

var validOwnerKinds = map[string]OwnerKind{
	ownerKindLoan:            OwnerKindLoan,
	ownerKindInstallmentPlan: OwnerKindInstallmentPlan,
	ownerKindFixedAsset:      OwnerKindFixedAsset,
}

// NewOwnerKind creates an OwnerKind from a raw string.
func NewOwnerKind(s string) (OwnerKind, error) {
	v, ok := validOwnerKinds[s]
	if !ok {
		return OwnerKind{}, fmt.Errorf("invalid owner kind: %q", s)
	}
	return v, nil
}

func (k OwnerKind) String() string { return k.value }
func (k OwnerKind) IsZero() bool { return k.value == "" }
func (k OwnerKind) Equal(other OwnerKind) bool { return k.value == other.value }

// AggregateType returns the name used as aggregate type on domain events.
func (k OwnerKind) AggregateType() string { return k.name }

// ---------------------------------------------------------------------------
// Direction – immutable value object
// ---------------------------------------------------------------------------

// Direction says whether cash applied to a schedule flows in or out.
type Direction struct {
	value string
}

const (
	directionReceivable = "RECEIVABLE"
	directionPayable    = "PAYABLE"
)

var (
	DirectionReceivable = Direction{value: directionReceivable}
	DirectionPayable    = Direction{value: directionPayable}
)

var validDirections = map[string]Direction{
	directionReceivable: DirectionReceivable,
	directionPayable:    DirectionPayable,
}

// NewDirection creates a Direction from a raw string.
func NewDirection(s string) (Direction, error) {
	v, ok := validDirections[s]
	if !ok {
		return Direction{}, fmt.Errorf("invalid direction: %q", s)
	}
	return v, nil
}

func (d Direction) String() string { return d.value }
func (d Direction) IsZero() bool { return d.value == "" }
func (d Direction) Equal(other Direction) bool { return d.value == other.value }

// ---------------------------------------------------------------------------
// PlanType – immutable value object
// ---------------------------------------------------------------------------

// PlanType classifies an installment plan.
type PlanType struct {
	value     string
	direction Direction
}

const (
	planTypeSales      = "SALES"
	planTypePurchase   = "PURCHASE"
	planTypeCreditCard = "CREDIT_CARD"
)

var (
	PlanTypeSales      = PlanType{value: planTypeSales, direction: DirectionReceivable}
	PlanTypePurchase   = PlanType{value: planTypePurchase, direction: DirectionPayable}
	PlanTypeCreditCard = PlanType{value: planTypeCreditCard, direction: DirectionPayable}
)

var validPlanTypes = map[string]PlanType{
	planTypeSales:      PlanTypeSales,
	planTypePurchase:   PlanTypePurchase,
	planTypeCreditCard: PlanTypeCreditCard,
}

// NewPlanType creates a PlanType from a raw string.
func NewPlanType(s string) (PlanType, error) {
	v, ok := validPlanTypes[s]
	if !ok {
		return PlanType{}, fmt.Errorf("invalid plan type: %q", s)
	}
	return v, nil
}

func (p PlanType) String() string { return p.value }
func (p PlanType) IsZero() bool { return p.value == "" }
func (p PlanType) Equal(other PlanType) bool { return p.value == other.value }

// Direction returns whether collections under this plan are received or paid.
func (p PlanType) Direction() Direction { return p.direction }

// ---------------------------------------------------------------------------
// DisposalType – immutable value object
// ---------------------------------------------------------------------------

// DisposalType says how a fixed asset left the books.
type DisposalType struct {
	value string
}

const (
	disposalTypeSale     = "SALE"
	disposalTypeScrap    = "SCRAP"
	disposalTypeTransfer = "TRANSFER"
	disposalTypeDonation = "DONATION"
)

var (
	DisposalTypeSale     = DisposalType{value: disposalTypeSale}
	DisposalTypeScrap    = DisposalType{value: disposalTypeScrap}
	DisposalTypeTransfer = DisposalType{value: disposalTypeTransfer}
	DisposalTypeDonation = DisposalType{value: disposalTypeDonation}
)

var validDisposalTypes = map[string]DisposalType{
	disposalTypeSale:     DisposalTypeSale,
	disposalTypeScrap:    DisposalTypeScrap,
	disposalTypeTransfer: DisposalTypeTransfer,
	disposalTypeDonation: DisposalTypeDonation,
}

// NewDisposalType creates a DisposalType from a raw string.
func NewDisposalType(s string) (DisposalType, error) {
	v, ok := validDisposalTypes[s]
	if !ok {
		return DisposalType{}, fmt.Errorf("invalid disposal type: %q", s)
	}
	return v, nil
}

func (d DisposalType) String() string { return d.value }
func (d DisposalType) IsZero() bool { return d.value == "" }
func (d DisposalType) Equal(other DisposalType) bool { return d.value == other.value }
