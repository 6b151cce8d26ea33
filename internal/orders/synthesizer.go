package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"

	"github.com/evermois/checkout-bridge/pkg/enums"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
	"github.com/evermois/checkout-bridge/pkg/logger"
	"github.com/evermois/checkout-bridge/pkg/shopify"
	pkgstripe "github.com/evermois/checkout-bridge/pkg/stripe"
)

// Status reports how a delivery was handled.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of synthesizing one payment event.
type Result struct {
	Status    Status
	SessionID string
	OrderID   int64
}

// SessionFetcher retrieves the authoritative session state, line items
// expanded, from the payment platform.
type SessionFetcher interface {
	GetSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

// CommerceClient is the order-recording surface of the commerce platform.
// FindOrderBySessionNote is the idempotency check: an order already
// carrying the session id means the delivery is a duplicate.
type CommerceClient interface {
	FindOrderBySessionNote(ctx context.Context, sessionID string) (*shopify.Order, error)
	CreateOrder(ctx context.Context, order shopify.OrderRequest) (*shopify.Order, error)
}

// Synthesizer turns verified "checkout completed" events into commerce
// platform orders, exactly once per session.
type Synthesizer struct {
	sessions SessionFetcher
	commerce CommerceClient
	logg     *logger.Logger
}

// NewSynthesizer builds the order synthesizer.
func NewSynthesizer(sessions SessionFetcher, commerce CommerceClient, logg *logger.Logger) (*Synthesizer, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session fetcher required")
	}
	if commerce == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	return &Synthesizer{sessions: sessions, commerce: commerce, logg: logg}, nil
}

// Synthesize handles one webhook event. Event payloads may be partial or
// stale, so only the session id is taken from them; everything else is
// re-fetched. Errors propagate so the caller answers non-2xx and the
// payment platform redelivers.
func (s *Synthesizer) Synthesize(ctx context.Context, event *stripe.Event) (*Result, error) {
	if event == nil || event.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return &Result{Status: StatusSkipped}, nil
	}

	var embedded stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &embedded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode session from event")
	}
	if embedded.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event carries no session id")
	}
	sessionID := embedded.ID
	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, sessionID)
	}

	existing, err := s.commerce.FindOrderBySessionNote(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if s.logg != nil {
			s.logg.Info(ctx, fmt.Sprintf("order %d already references session, skipping", existing.ID))
		}
		return &Result{Status: StatusSkipped, SessionID: sessionID, OrderID: existing.ID}, nil
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, err, "retrieve session")
	}

	request, err := s.orderRequest(session, sessionID)
	if err != nil {
		return nil, err
	}

	created, err := s.commerce.CreateOrder(ctx, *request)
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("order %d synthesized", created.ID))
	}
	return &Result{Status: StatusCreated, SessionID: sessionID, OrderID: created.ID}, nil
}

func (s *Synthesizer) orderRequest(session *stripe.CheckoutSession, sessionID string) (*shopify.OrderRequest, error) {
	lines := orderLines(session)
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamLookup, "session has no line items with item references")
	}

	var email, phone string
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
		phone = session.CustomerDetails.Phone
	}

	status := enums.FinancialStatusPending
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		status = enums.FinancialStatusPaid
	}

	currency := strings.ToUpper(string(session.Currency))
	if currency == "" {
		currency = "USD"
	}

	return &shopify.OrderRequest{
		Email:           email,
		FinancialStatus: status.String(),
		Currency:        currency,
		LineItems:       lines,
		ShippingAddress: shippingAddress(session, phone),
		Note:            fmt.Sprintf("Stripe session: %s", sessionID),
	}, nil
}

// orderLines recovers catalog references from the product metadata stamped
// at session creation. Lines without a reference cannot be recorded and
// are dropped.
func orderLines(session *stripe.CheckoutSession) []shopify.OrderLineItem {
	if session == nil || session.LineItems == nil {
		return nil
	}
	lines := make([]shopify.OrderLineItem, 0, len(session.LineItems.Data))
	for _, li := range session.LineItems.Data {
		if li == nil || li.Price == nil || li.Price.Product == nil {
			continue
		}
		ref := li.Price.Product.Metadata[pkgstripe.MetadataItemReference]
		variantID, err := strconv.ParseInt(ref, 10, 64)
		if err != nil || variantID <= 0 {
			continue
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, shopify.OrderLineItem{VariantID: variantID, Quantity: qty})
	}
	return lines
}

// shippingAddress prefers the collected shipping details and falls back to
// the billing-side customer details; older API versions populate one or
// the other.
func shippingAddress(session *stripe.CheckoutSession, phone string) *shopify.ShippingAddress {
	var name string
	var addr *stripe.Address

	if session.CollectedInformation != nil && session.CollectedInformation.ShippingDetails != nil {
		name = session.CollectedInformation.ShippingDetails.Name
		addr = session.CollectedInformation.ShippingDetails.Address
	}
	if addr == nil && session.CustomerDetails != nil {
		if name == "" {
			name = session.CustomerDetails.Name
		}
		addr = session.CustomerDetails.Address
	}
	if addr == nil && name == "" {
		return nil
	}

	first, last := splitName(name)
	shipping := &shopify.ShippingAddress{
		FirstName: first,
		LastName:  last,
		Phone:     phone,
	}
	if addr != nil {
		shipping.Address1 = addr.Line1
		shipping.Address2 = addr.Line2
		shipping.City = addr.City
		shipping.Province = addr.State
		shipping.Country = addr.Country
		shipping.Zip = addr.PostalCode
	}
	return shipping
}

// splitName cuts the payer's full name at the first whitespace boundary.
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
