package discounts

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/coupon"
	"github.com/stripe/stripe-go/v82/promotioncode"

	pkgstripe "github.com/evermois/checkout-bridge/pkg/stripe"
)

type promotionClientWrapper struct{}

// NewPromotionClient wraps the configured Stripe client so the translator
// can be tested against fakes.
func NewPromotionClient(api *pkgstripe.Client) PromotionClient {
	if api == nil {
		return nil
	}
	return &promotionClientWrapper{}
}

func (w *promotionClientWrapper) FindPromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error) {
	params := &stripe.PromotionCodeListParams{
		Code: stripe.String(code),
	}
	params.Context = ctx
	iter := promotioncode.List(params)
	for iter.Next() {
		return iter.PromotionCode(), nil
	}
	return nil, iter.Err()
}

func (w *promotionClientWrapper) CreateCoupon(ctx context.Context, params *stripe.CouponParams) (*stripe.Coupon, error) {
	if params != nil {
		params.Context = ctx
	}
	return coupon.New(params)
}

func (w *promotionClientWrapper) CreatePromotionCode(ctx context.Context, params *stripe.PromotionCodeParams) (*stripe.PromotionCode, error) {
	if params != nil {
		params.Context = ctx
	}
	return promotioncode.New(params)
}
