package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"

	"github.com/evermois/checkout-bridge/api/responses"
	"github.com/evermois/checkout-bridge/internal/orders"
	"github.com/evermois/checkout-bridge/pkg/enums"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
	"github.com/evermois/checkout-bridge/pkg/logger"
	"github.com/evermois/checkout-bridge/pkg/metrics"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (*orders.Result, error)
}

type stripeWebhookVerifier interface {
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type webhookAck struct {
	Received bool `json:"received"`
}

// StripeWebhook receives payment event deliveries. Verification runs over
// the raw body bytes before anything is decoded; unverified payloads are
// rejected with 400 and never reach the synthesizer.
func StripeWebhook(svc StripeWebhookService, verifier stripeWebhookVerifier, guard stripeWebhookGuard, m *metrics.CheckoutMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook verifier unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		event, err := verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			m.ObserveWebhookEvent("unverified", string(enums.EventOutcomeFailed))
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithEventID(ctx, event.ID)
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			m.ObserveWebhookEvent(string(event.Type), string(enums.EventOutcomeSkipped))
			if logg != nil {
				logg.Info(ctx, "webhook.event.duplicate")
			}
			responses.WriteSuccess(w, webhookAck{Received: true})
			return
		}

		result, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			// Forget the mark so the sender's retry gets a clean attempt.
			_ = guard.Release(ctx, event.ID)
			m.ObserveWebhookEvent(string(event.Type), string(enums.EventOutcomeFailed))
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch result.Status {
		case orders.StatusCreated:
			m.IncOrderCreated()
			m.ObserveWebhookEvent(string(event.Type), string(enums.EventOutcomeProcessed))
		default:
			m.IncOrderSkipped()
			m.ObserveWebhookEvent(string(event.Type), string(enums.EventOutcomeSkipped))
		}

		if logg != nil {
			logg.Info(ctx, "webhook.event.handled")
		}
		responses.WriteSuccess(w, webhookAck{Received: true})
	}
}
