package enums

// FinancialStatus is the payment state recorded on a synthesized order.
type FinancialStatus string

const (
	FinancialStatusPaid    FinancialStatus = "paid"
	FinancialStatusPending FinancialStatus = "pending"
)

// String implements fmt.Stringer.
func (s FinancialStatus) String() string {
	return string(s)
}
