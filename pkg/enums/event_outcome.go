package enums

// EventOutcome labels how a webhook delivery was handled, for metrics.
type EventOutcome string

const (
	EventOutcomeProcessed EventOutcome = "processed"
	EventOutcomeSkipped   EventOutcome = "skipped"
	EventOutcomeFailed    EventOutcome = "failed"
)

// String implements fmt.Stringer.
func (o EventOutcome) String() string {
	return string(o)
}
