package controllers

import (
	"context"
	"net/http"

	"github.com/evermois/checkout-bridge/api/responses"
	"github.com/evermois/checkout-bridge/api/validators"
	"github.com/evermois/checkout-bridge/internal/checkout"
	"github.com/evermois/checkout-bridge/internal/pricing"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
	"github.com/evermois/checkout-bridge/pkg/logger"
	"github.com/evermois/checkout-bridge/pkg/metrics"
)

// CheckoutService assembles a hosted payment session from a cart.
type CheckoutService interface {
	Build(ctx context.Context, lines []pricing.CartLine, discountCode string) (*checkout.BuildResult, error)
}

type checkoutItem struct {
	ItemReference string `json:"item_reference"`
	Quantity      int64  `json:"quantity"`
	UnitPrice     string `json:"unit_price,omitempty"`
	Title         string `json:"title,omitempty"`
}

type checkoutRequest struct {
	Items        []checkoutItem `json:"items" validate:"required,min=1"`
	DiscountCode string         `json:"discount_code,omitempty" validate:"omitempty,max=64"`
}

type checkoutResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// CreateCheckoutSession handles the storefront cart hand-off. The response
// body carries only the hosted payment page URL; the storefront redirects
// the shopper there.
func CreateCheckoutSession(svc CheckoutService, m *metrics.CheckoutMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lines := make([]pricing.CartLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, pricing.CartLine{
				ItemReference: item.ItemReference,
				Quantity:      item.Quantity,
				ClientPrice:   item.UnitPrice,
				Title:         item.Title,
			})
		}

		result, err := svc.Build(ctx, lines, req.DiscountCode)
		if err != nil {
			m.IncSessionFailure()
			responses.WriteError(ctx, logg, w, err)
			return
		}

		m.IncSessionCreated()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, result.SessionID)
			logg.Info(ctx, "checkout.session.created")
		}
		responses.WriteSuccess(w, checkoutResponse{RedirectURL: result.RedirectURL})
	}
}
