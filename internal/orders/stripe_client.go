package orders

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	pkgstripe "github.com/evermois/checkout-bridge/pkg/stripe"
)

type sessionFetcherWrapper struct{}

// NewSessionFetcher wraps the configured Stripe client so the synthesizer
// can be tested against fakes.
func NewSessionFetcher(api *pkgstripe.Client) SessionFetcher {
	if api == nil {
		return nil
	}
	return &sessionFetcherWrapper{}
}

func (w *sessionFetcherWrapper) GetSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items.data.price.product")
	return session.Get(sessionID, params)
}
