package stripewebhook

import (
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
)

var errSecretRequired = errors.New("webhook signing secret is required")

// Verifier authenticates inbound payment notifications. It is the sole
// gate between the open internet and order creation: nothing past it runs
// unless the payload's HMAC matches the shared secret.
type Verifier struct {
	secret string
}

// NewVerifier builds a Verifier from the shared signing secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errSecretRequired
	}
	return &Verifier{secret: secret}, nil
}

// Verify checks the signature header against the exact raw payload bytes
// and returns the decoded event. The comparison inside ConstructEvent is
// constant-time. Any mismatch or malformed header fails with
// INVALID_SIGNATURE and the payload must not be processed.
func (v *Verifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if sigHeader == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeInvalidSignature, "signature header missing")
	}
	event, err := webhook.ConstructEvent(payload, sigHeader, v.secret)
	if err != nil {
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeInvalidSignature, err, "verify signature")
	}
	return event, nil
}
