package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v82"

	"github.com/evermois/checkout-bridge/internal/orders"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
)

// OrderSynthesizer turns a completed-session event into a commerce order.
type OrderSynthesizer interface {
	Synthesize(ctx context.Context, event *stripe.Event) (*orders.Result, error)
}

// Service routes verified payment events.
type Service struct {
	orders OrderSynthesizer
}

// NewService builds the webhook dispatch service.
func NewService(synthesizer OrderSynthesizer) (*Service, error) {
	if synthesizer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order synthesizer required")
	}
	return &Service{orders: synthesizer}, nil
}

// HandleEvent dispatches one verified event. Only checkout completions
// produce work; every other event type is acknowledged and skipped.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (*orders.Result, error) {
	if event == nil || event.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.orders.Synthesize(ctx, event)
	default:
		return &orders.Result{Status: orders.StatusSkipped}, nil
	}
}
