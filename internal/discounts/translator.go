package discounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"

	"github.com/evermois/checkout-bridge/pkg/enums"
	"github.com/evermois/checkout-bridge/pkg/logger"
	"github.com/evermois/checkout-bridge/pkg/money"
	"github.com/evermois/checkout-bridge/pkg/shopify"
)

// Rule is the tagged representation of a catalog price rule.
type Rule struct {
	Kind             enums.DiscountKind
	Magnitude        decimal.Decimal
	MinSubtotalMinor *int64
}

// PromotionReference points at a payment-platform promotion mirroring a
// storefront discount code.
type PromotionReference struct {
	ExternalID string
	Code       string
}

// CatalogDiscountClient is the catalog-side discount lookup surface.
type CatalogDiscountClient interface {
	LookupDiscountCode(ctx context.Context, code string) (*shopify.DiscountCode, error)
	GetPriceRule(ctx context.Context, priceRuleID int64) (*shopify.PriceRule, error)
}

// PromotionClient is the payment-side promotion surface.
type PromotionClient interface {
	FindPromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error)
	CreateCoupon(ctx context.Context, params *stripe.CouponParams) (*stripe.Coupon, error)
	CreatePromotionCode(ctx context.Context, params *stripe.PromotionCodeParams) (*stripe.PromotionCode, error)
}

// Translator mirrors storefront discount codes as payment-platform
// promotions. Discounts are an enhancement: every failure path degrades to
// "no discount" and checkout proceeds.
type Translator struct {
	catalog  CatalogDiscountClient
	payments PromotionClient
	currency string
	logg     *logger.Logger
}

// NewTranslator builds the discount translator.
func NewTranslator(catalog CatalogDiscountClient, payments PromotionClient, currency string, logg *logger.Logger) (*Translator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog discount client required")
	}
	if payments == nil {
		return nil, fmt.Errorf("promotion client required")
	}
	currency = strings.TrimSpace(strings.ToLower(currency))
	if currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &Translator{
		catalog:  catalog,
		payments: payments,
		currency: currency,
		logg:     logg,
	}, nil
}

// Translate resolves a storefront code into a promotion reference, creating
// the promotion on the payment platform when it does not exist yet. Unknown
// codes, unsupported rule shapes and upstream failures all return nil.
func (t *Translator) Translate(ctx context.Context, code string) *PromotionReference {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	if t.logg != nil {
		ctx = t.logg.WithDiscountCode(ctx, code)
	}

	discountCode, err := t.catalog.LookupDiscountCode(ctx, code)
	if err != nil {
		t.report(ctx, "discount code lookup failed", err)
		return nil
	}
	if discountCode == nil || discountCode.PriceRuleID == 0 {
		return nil
	}

	priceRule, err := t.catalog.GetPriceRule(ctx, discountCode.PriceRuleID)
	if err != nil {
		t.report(ctx, "price rule fetch failed", err)
		return nil
	}

	rule := RuleFromPriceRule(priceRule)
	if rule.Kind == enums.DiscountKindUnsupported {
		if t.logg != nil {
			t.logg.Info(ctx, fmt.Sprintf("discount kind %q not mirrored, proceeding without", priceRule.ValueType))
		}
		return nil
	}

	ref, err := t.ensurePromotion(ctx, code, rule)
	if err != nil {
		t.report(ctx, "promotion provisioning failed", err)
		return nil
	}
	return ref
}

// ensurePromotion is lookup-before-create. Two stateless invocations may
// race here; a failed create is answered with a re-query so "already
// exists" lands on the success path.
func (t *Translator) ensurePromotion(ctx context.Context, code string, rule Rule) (*PromotionReference, error) {
	existing, err := t.payments.FindPromotionCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &PromotionReference{ExternalID: existing.ID, Code: existing.Code}, nil
	}

	created, createErr := t.createPromotion(ctx, code, rule)
	if createErr == nil {
		return &PromotionReference{ExternalID: created.ID, Code: created.Code}, nil
	}

	raced, requeryErr := t.payments.FindPromotionCode(ctx, code)
	if requeryErr == nil && raced != nil {
		return &PromotionReference{ExternalID: raced.ID, Code: raced.Code}, nil
	}
	return nil, createErr
}

func (t *Translator) createPromotion(ctx context.Context, code string, rule Rule) (*stripe.PromotionCode, error) {
	couponParams := &stripe.CouponParams{
		Name:     stripe.String(code),
		Duration: stripe.String(string(stripe.CouponDurationOnce)),
	}
	switch rule.Kind {
	case enums.DiscountKindPercentage:
		percent, _ := rule.Magnitude.Float64()
		couponParams.PercentOff = stripe.Float64(percent)
	case enums.DiscountKindFixedAmount:
		couponParams.AmountOff = stripe.Int64(money.MinorUnits(rule.Magnitude))
		couponParams.Currency = stripe.String(t.currency)
	default:
		return nil, fmt.Errorf("discount kind %q cannot be created", rule.Kind)
	}

	coupon, err := t.payments.CreateCoupon(ctx, couponParams)
	if err != nil {
		return nil, err
	}

	promoParams := &stripe.PromotionCodeParams{
		Coupon: stripe.String(coupon.ID),
		Code:   stripe.String(code),
	}
	if rule.MinSubtotalMinor != nil {
		promoParams.Restrictions = &stripe.PromotionCodeRestrictionsParams{
			MinimumAmount:         stripe.Int64(*rule.MinSubtotalMinor),
			MinimumAmountCurrency: stripe.String(t.currency),
		}
	}
	return t.payments.CreatePromotionCode(ctx, promoParams)
}

// RuleFromPriceRule converts a catalog price rule into the tagged Rule.
// Catalog magnitudes are negative ("-10.0" means 10 off); the sign is
// dropped here.
func RuleFromPriceRule(priceRule *shopify.PriceRule) Rule {
	if priceRule == nil {
		return Rule{Kind: enums.DiscountKindUnsupported}
	}

	kind := enums.ParseDiscountKind(priceRule.ValueType)
	if kind == enums.DiscountKindUnsupported {
		return Rule{Kind: kind}
	}

	magnitude, err := money.ParsePrice(strings.TrimPrefix(strings.TrimSpace(priceRule.Value), "-"))
	if err != nil {
		return Rule{Kind: enums.DiscountKindUnsupported}
	}

	rule := Rule{Kind: kind, Magnitude: magnitude}
	if r := priceRule.PrerequisiteSubtotalRange; r != nil {
		if min, err := money.ParsePrice(r.GreaterThanOrEqualTo); err == nil {
			minMinor := money.MinorUnits(min)
			rule.MinSubtotalMinor = &minMinor
		}
	}
	return rule
}

func (t *Translator) report(ctx context.Context, msg string, err error) {
	if t.logg != nil {
		t.logg.Error(ctx, msg, err)
	}
}
