package discounts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/evermois/checkout-bridge/pkg/enums"
	"github.com/evermois/checkout-bridge/pkg/shopify"
)

type fakeDiscountCatalog struct {
	code    *shopify.DiscountCode
	codeErr error
	rule    *shopify.PriceRule
	ruleErr error
}

func (f *fakeDiscountCatalog) LookupDiscountCode(ctx context.Context, code string) (*shopify.DiscountCode, error) {
	return f.code, f.codeErr
}

func (f *fakeDiscountCatalog) GetPriceRule(ctx context.Context, priceRuleID int64) (*shopify.PriceRule, error) {
	return f.rule, f.ruleErr
}

type fakePromotions struct {
	findResults []*stripe.PromotionCode
	findErr     error
	findCalls   int

	couponParams *stripe.CouponParams
	couponErr    error

	promoParams *stripe.PromotionCodeParams
	promoErr    error
}

func (f *fakePromotions) FindPromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var result *stripe.PromotionCode
	if f.findCalls < len(f.findResults) {
		result = f.findResults[f.findCalls]
	}
	f.findCalls++
	return result, nil
}

func (f *fakePromotions) CreateCoupon(ctx context.Context, params *stripe.CouponParams) (*stripe.Coupon, error) {
	f.couponParams = params
	if f.couponErr != nil {
		return nil, f.couponErr
	}
	return &stripe.Coupon{ID: "cpn_1"}, nil
}

func (f *fakePromotions) CreatePromotionCode(ctx context.Context, params *stripe.PromotionCodeParams) (*stripe.PromotionCode, error) {
	f.promoParams = params
	if f.promoErr != nil {
		return nil, f.promoErr
	}
	return &stripe.PromotionCode{ID: "promo_1", Code: *params.Code}, nil
}

func percentageCatalog() *fakeDiscountCatalog {
	return &fakeDiscountCatalog{
		code: &shopify.DiscountCode{ID: 5, PriceRuleID: 9, Code: "SUMMER10"},
		rule: &shopify.PriceRule{
			ID:        9,
			ValueType: "percentage",
			Value:     "-10.0",
			PrerequisiteSubtotalRange: &shopify.SubtotalRange{
				GreaterThanOrEqualTo: "50.00",
			},
		},
	}
}

func TestTranslateCreatesPercentagePromotion(t *testing.T) {
	payments := &fakePromotions{findResults: []*stripe.PromotionCode{nil}}
	translator, err := NewTranslator(percentageCatalog(), payments, "USD", nil)
	require.NoError(t, err)

	ref := translator.Translate(context.Background(), "SUMMER10")
	require.NotNil(t, ref)
	assert.Equal(t, "promo_1", ref.ExternalID)
	assert.Equal(t, "SUMMER10", ref.Code)

	require.NotNil(t, payments.couponParams)
	require.NotNil(t, payments.couponParams.PercentOff)
	assert.InDelta(t, 10.0, *payments.couponParams.PercentOff, 0.001)
	assert.Nil(t, payments.couponParams.AmountOff)

	require.NotNil(t, payments.promoParams)
	require.NotNil(t, payments.promoParams.Restrictions)
	assert.EqualValues(t, 5000, *payments.promoParams.Restrictions.MinimumAmount)
	assert.Equal(t, "usd", *payments.promoParams.Restrictions.MinimumAmountCurrency)
}

func TestTranslateCreatesFixedAmountPromotion(t *testing.T) {
	catalog := &fakeDiscountCatalog{
		code: &shopify.DiscountCode{ID: 5, PriceRuleID: 9, Code: "5OFF"},
		rule: &shopify.PriceRule{ID: 9, ValueType: "fixed_amount", Value: "-5.00"},
	}
	payments := &fakePromotions{}
	translator, err := NewTranslator(catalog, payments, "usd", nil)
	require.NoError(t, err)

	ref := translator.Translate(context.Background(), "5OFF")
	require.NotNil(t, ref)

	require.NotNil(t, payments.couponParams)
	require.NotNil(t, payments.couponParams.AmountOff)
	assert.EqualValues(t, 500, *payments.couponParams.AmountOff)
	assert.Equal(t, "usd", *payments.couponParams.Currency)
	assert.Nil(t, payments.promoParams.Restrictions)
}

func TestTranslateReusesExistingPromotion(t *testing.T) {
	payments := &fakePromotions{findResults: []*stripe.PromotionCode{
		{ID: "promo_existing", Code: "SUMMER10"},
	}}
	translator, err := NewTranslator(percentageCatalog(), payments, "usd", nil)
	require.NoError(t, err)

	ref := translator.Translate(context.Background(), "SUMMER10")
	require.NotNil(t, ref)
	assert.Equal(t, "promo_existing", ref.ExternalID)
	assert.Nil(t, payments.couponParams, "existing promotion must not be recreated")
}

func TestTranslateResolvesCreateRace(t *testing.T) {
	payments := &fakePromotions{
		findResults: []*stripe.PromotionCode{
			nil,
			{ID: "promo_raced", Code: "SUMMER10"},
		},
		promoErr: errors.New("promotion code already exists"),
	}
	translator, err := NewTranslator(percentageCatalog(), payments, "usd", nil)
	require.NoError(t, err)

	ref := translator.Translate(context.Background(), "SUMMER10")
	require.NotNil(t, ref)
	assert.Equal(t, "promo_raced", ref.ExternalID)
	assert.Equal(t, 2, payments.findCalls)
}

func TestTranslateUnknownCode(t *testing.T) {
	translator, err := NewTranslator(&fakeDiscountCatalog{}, &fakePromotions{}, "usd", nil)
	require.NoError(t, err)

	assert.Nil(t, translator.Translate(context.Background(), "NOPE"))
	assert.Nil(t, translator.Translate(context.Background(), ""))
}

func TestTranslateUnsupportedRule(t *testing.T) {
	catalog := &fakeDiscountCatalog{
		code: &shopify.DiscountCode{ID: 5, PriceRuleID: 9, Code: "SHIPFREE"},
		rule: &shopify.PriceRule{ID: 9, ValueType: "shipping_line", Value: "-100.0"},
	}
	payments := &fakePromotions{}
	translator, err := NewTranslator(catalog, payments, "usd", nil)
	require.NoError(t, err)

	assert.Nil(t, translator.Translate(context.Background(), "SHIPFREE"))
	assert.Equal(t, 0, payments.findCalls, "unsupported rules never reach the payment platform")
}

func TestTranslateDegradesOnLookupFailure(t *testing.T) {
	catalog := &fakeDiscountCatalog{codeErr: errors.New("upstream down")}
	translator, err := NewTranslator(catalog, &fakePromotions{}, "usd", nil)
	require.NoError(t, err)

	assert.Nil(t, translator.Translate(context.Background(), "SUMMER10"))
}

func TestRuleFromPriceRule(t *testing.T) {
	rule := RuleFromPriceRule(&shopify.PriceRule{
		ValueType: "percentage",
		Value:     "-15.5",
	})
	assert.Equal(t, enums.DiscountKindPercentage, rule.Kind)
	assert.Equal(t, "15.5", rule.Magnitude.String())
	assert.Nil(t, rule.MinSubtotalMinor)

	unsupported := RuleFromPriceRule(&shopify.PriceRule{ValueType: "bogus", Value: "-1"})
	assert.Equal(t, enums.DiscountKindUnsupported, unsupported.Kind)

	assert.Equal(t, enums.DiscountKindUnsupported, RuleFromPriceRule(nil).Kind)
}
