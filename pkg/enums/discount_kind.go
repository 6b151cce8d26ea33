package enums

// DiscountKind is the tagged shape of a catalog price rule. Anything the
// bridge cannot mirror on the payment platform is DiscountKindUnsupported
// rather than a loose string.
type DiscountKind string

const (
	DiscountKindPercentage  DiscountKind = "percentage"
	DiscountKindFixedAmount DiscountKind = "fixed_amount"
	DiscountKindUnsupported DiscountKind = "unsupported"
)

var validDiscountKinds = []DiscountKind{
	DiscountKindPercentage,
	DiscountKindFixedAmount,
	DiscountKindUnsupported,
}

// String implements fmt.Stringer.
func (k DiscountKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is recognized.
func (k DiscountKind) IsValid() bool {
	for _, candidate := range validDiscountKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseDiscountKind maps a catalog value_type onto a DiscountKind. Unknown
// shapes come back as DiscountKindUnsupported, never an error.
func ParseDiscountKind(value string) DiscountKind {
	switch value {
	case string(DiscountKindPercentage):
		return DiscountKindPercentage
	case string(DiscountKindFixedAmount):
		return DiscountKindFixedAmount
	default:
		return DiscountKindUnsupported
	}
}
