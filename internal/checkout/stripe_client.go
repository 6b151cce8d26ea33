package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	pkgstripe "github.com/evermois/checkout-bridge/pkg/stripe"
)

type sessionClientWrapper struct{}

// NewSessionClient wraps the configured Stripe client so the session
// builder can be tested against fakes.
func NewSessionClient(api *pkgstripe.Client) SessionClient {
	if api == nil {
		return nil
	}
	return &sessionClientWrapper{}
}

func (w *sessionClientWrapper) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}
