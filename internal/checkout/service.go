package checkout

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"golang.org/x/sync/errgroup"

	"github.com/evermois/checkout-bridge/internal/discounts"
	"github.com/evermois/checkout-bridge/internal/pricing"
	"github.com/evermois/checkout-bridge/pkg/config"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
	"github.com/evermois/checkout-bridge/pkg/logger"
	pkgstripe "github.com/evermois/checkout-bridge/pkg/stripe"
)

// LineResolver settles authoritative unit prices per cart line.
type LineResolver interface {
	Resolve(ctx context.Context, line pricing.CartLine) (pricing.ResolvedLineItem, error)
}

// DiscountTranslator mirrors a storefront code into a payment promotion.
type DiscountTranslator interface {
	Translate(ctx context.Context, code string) *discounts.PromotionReference
}

// SessionClient opens hosted payment sessions.
type SessionClient interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// BuildResult is the outcome of a session build.
type BuildResult struct {
	SessionID   string
	RedirectURL string
}

// Service assembles hosted checkout sessions from storefront carts.
type Service struct {
	resolver   LineResolver
	translator DiscountTranslator
	sessions   SessionClient
	cfg        config.CheckoutConfig
	logg       *logger.Logger
}

// NewService builds the checkout session service.
func NewService(resolver LineResolver, translator DiscountTranslator, sessions SessionClient, cfg config.CheckoutConfig, logg *logger.Logger) (*Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("line resolver required")
	}
	if translator == nil {
		return nil, fmt.Errorf("discount translator required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session client required")
	}
	return &Service{
		resolver:   resolver,
		translator: translator,
		sessions:   sessions,
		cfg:        cfg,
		logg:       logg,
	}, nil
}

// Build resolves every cart line, optionally attaches a promotion and opens
// the hosted session. Lines with non-positive quantity or no resolvable
// reference are dropped; catalog outages abort the request.
func (s *Service) Build(ctx context.Context, lines []pricing.CartLine, discountCode string) (*BuildResult, error) {
	candidates := make([]pricing.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		candidates = append(candidates, line)
	}
	if len(candidates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoValidItems, "cart contains no valid items")
	}

	resolved, err := s.resolveAll(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoValidItems, "no cart line resolved to a priced item")
	}

	var promotion *discounts.PromotionReference
	if discountCode != "" {
		promotion = s.translator.Translate(ctx, discountCode)
	}

	params := s.sessionParams(resolved, promotion)
	session, err := s.sessions.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSessionCreation, err, "create hosted session")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithSessionID(ctx, session.ID), "hosted checkout session opened")
	}
	return &BuildResult{SessionID: session.ID, RedirectURL: session.URL}, nil
}

// resolveAll prices candidate lines concurrently and reassembles them in
// cart order. Missing-reference lines are dropped; upstream lookup
// failures cancel the group and abort the build.
func (s *Service) resolveAll(ctx context.Context, candidates []pricing.CartLine) ([]pricing.ResolvedLineItem, error) {
	slots := make([]*pricing.ResolvedLineItem, len(candidates))
	g, gctx := errgroup.WithContext(ctx)

	for i, line := range candidates {
		i, line := i, line
		g.Go(func() error {
			item, err := s.resolver.Resolve(gctx, line)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeMissingReference {
					if s.logg != nil {
						s.logg.Warn(gctx, fmt.Sprintf("dropping cart line %d: %s", i, typed.Message()))
					}
					return nil
				}
				return err
			}
			slots[i] = &item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make([]pricing.ResolvedLineItem, 0, len(slots))
	for _, item := range slots {
		if item != nil {
			resolved = append(resolved, *item)
		}
	}
	return resolved, nil
}

func (s *Service) sessionParams(items []pricing.ResolvedLineItem, promotion *discounts.PromotionReference) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.UnitAmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.DisplayName),
					Metadata: map[string]string{
						pkgstripe.MetadataItemReference: item.ItemReference,
					},
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:                lineItems,
		PaymentMethodTypes:       stripe.StringSlice(s.cfg.PaymentMethodTypes),
		Locale:                   stripe.String(s.cfg.Locale),
		BillingAddressCollection: stripe.String(s.cfg.BillingCollection),
		SuccessURL:               stripe.String(s.cfg.SuccessURL),
		CancelURL:                stripe.String(s.cfg.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(s.cfg.ShippingCountries),
		},
	}
	if s.cfg.AutomaticTax {
		params.AutomaticTax = &stripe.CheckoutSessionAutomaticTaxParams{
			Enabled: stripe.Bool(true),
		}
	}
	if s.cfg.DefaultShippingRateID != "" {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripe.String(s.cfg.DefaultShippingRateID)},
		}
	}

	// A programmatic promotion and the customer-entered code box are
	// mutually exclusive; attaching both would double-apply the discount
	// (and Stripe rejects the combination).
	if promotion != nil {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{PromotionCode: stripe.String(promotion.ExternalID)},
		}
	} else {
		params.AllowPromotionCodes = stripe.Bool(true)
	}

	return params
}
