package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
	"github.com/evermois/checkout-bridge/pkg/money"
	"github.com/evermois/checkout-bridge/pkg/shopify"
)

const fallbackDisplayName = "Product"

// CartLine is one untrusted storefront cart entry. ClientPrice is the
// storefront's asserted unit price, used when the storefront has already
// applied its own discounting; it is a hint, never the system of record.
type CartLine struct {
	ItemReference string
	Quantity      int64
	ClientPrice   string
	Title         string
}

// ResolvedLineItem is a cart line with an authoritative unit amount in the
// currency's smallest unit.
type ResolvedLineItem struct {
	ItemReference   string
	Quantity        int64
	UnitAmountMinor int64
	DisplayName     string
	Currency        string
}

// CatalogClient is the read-only variant lookup the resolver falls back to.
type CatalogClient interface {
	GetVariant(ctx context.Context, variantID int64) (*shopify.Variant, error)
}

// Resolver produces authoritative unit prices for cart lines.
type Resolver struct {
	catalog  CatalogClient
	currency string
}

// NewResolver builds the price resolver.
func NewResolver(catalog CatalogClient, currency string) (*Resolver, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &Resolver{catalog: catalog, currency: currency}, nil
}

// Resolve returns the line with its unit amount settled. A parseable
// client price wins and skips the catalog entirely; otherwise the variant
// price is fetched by item reference.
func (r *Resolver) Resolve(ctx context.Context, line CartLine) (ResolvedLineItem, error) {
	resolved := ResolvedLineItem{
		ItemReference: strings.TrimSpace(line.ItemReference),
		Quantity:      line.Quantity,
		DisplayName:   displayName(line.Title, ""),
		Currency:      r.currency,
	}

	if raw := strings.TrimSpace(line.ClientPrice); raw != "" {
		if amount, err := money.ParsePrice(raw); err == nil {
			resolved.UnitAmountMinor = money.MinorUnits(amount)
			return resolved, nil
		}
		// Unparseable asserted price falls through to the catalog.
	}

	variantID, err := parseReference(resolved.ItemReference)
	if err != nil {
		return ResolvedLineItem{}, err
	}

	variant, err := r.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return ResolvedLineItem{}, pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, err, "fetch variant price")
	}
	if strings.TrimSpace(variant.Price) == "" {
		return ResolvedLineItem{}, pkgerrors.New(pkgerrors.CodeUpstreamLookup, fmt.Sprintf("variant %d has no price", variantID))
	}

	amount, err := money.ParsePrice(variant.Price)
	if err != nil {
		return ResolvedLineItem{}, pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, err, "parse variant price")
	}

	resolved.UnitAmountMinor = money.MinorUnits(amount)
	resolved.DisplayName = displayName(line.Title, variant.Title)
	return resolved, nil
}

func parseReference(ref string) (int64, error) {
	if ref == "" {
		return 0, pkgerrors.New(pkgerrors.CodeMissingReference, "cart line has neither a usable price nor an item reference")
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeMissingReference, fmt.Sprintf("item reference %q is not resolvable", ref))
	}
	return id, nil
}

func displayName(title, variantTitle string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if t := strings.TrimSpace(variantTitle); t != "" {
		return t
	}
	return fallbackDisplayName
}
