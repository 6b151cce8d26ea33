package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evermois/checkout-bridge/pkg/config"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
)

const (
	defaultAPIVersion         = "2024-10"
	accessTokenHeader         = "X-Shopify-Access-Token"
	errorBodyReadLimit  int64 = 2048
	orderSearchPageSize       = 250
)

var (
	errDomainRequired = errors.New("shopify store domain is required")
	errTokenRequired  = errors.New("shopify admin token is required")
)

// Client wraps the Shopify Admin REST API surface the bridge depends on:
// variant pricing, discount lookups and order creation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the derived Admin API base URL. Used by tests to
// point the client at a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Shopify Admin client from config.
func NewClient(cfg config.ShopifyConfig, opts ...Option) (*Client, error) {
	domain := strings.TrimSpace(cfg.StoreDomain)
	if domain == "" {
		return nil, errDomainRequired
	}
	token := strings.TrimSpace(cfg.AdminToken)
	if token == "" {
		return nil, errTokenRequired
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}

	client := &Client{
		token:      token,
		baseURL:    fmt.Sprintf("https://%s/admin/api/%s", domain, version),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return client, nil
}

// Variant is the slice of Shopify's variant payload the resolver needs.
type Variant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
}

// DiscountCode is the lookup result for a storefront discount code.
type DiscountCode struct {
	ID          int64  `json:"id"`
	PriceRuleID int64  `json:"price_rule_id"`
	Code        string `json:"code"`
}

// PriceRule carries the discount structure behind a code.
type PriceRule struct {
	ID        int64  `json:"id"`
	ValueType string `json:"value_type"`
	Value     string `json:"value"`
	Title     string `json:"title"`

	PrerequisiteSubtotalRange *SubtotalRange `json:"prerequisite_subtotal_range"`
}

// SubtotalRange is the minimum-subtotal restriction on a price rule.
type SubtotalRange struct {
	GreaterThanOrEqualTo string `json:"greater_than_or_equal_to"`
}

// OrderLineItem references a catalog variant on an order-creation request.
type OrderLineItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int64 `json:"quantity"`
}

// ShippingAddress mirrors Shopify's order shipping address payload.
type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
	Phone     string `json:"phone"`
}

// OrderRequest is the order-creation payload submitted after payment.
type OrderRequest struct {
	Email           string           `json:"email"`
	FinancialStatus string           `json:"financial_status"`
	Currency        string           `json:"currency"`
	LineItems       []OrderLineItem  `json:"line_items"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	Note            string           `json:"note"`
}

// Order is the created order reference returned by Shopify.
type Order struct {
	ID   int64  `json:"id"`
	Note string `json:"note"`
}

// GetVariant fetches the authoritative variant record by id.
func (c *Client) GetVariant(ctx context.Context, variantID int64) (*Variant, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}
	if variantID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}

	var payload struct {
		Variant *Variant `json:"variant"`
	}
	path := fmt.Sprintf("variants/%d.json", variantID)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamLookup, fmt.Sprintf("variant %d not found", variantID))
	}
	return payload.Variant, nil
}

// LookupDiscountCode resolves a storefront code to its discount-code record.
// A code Shopify does not know yields (nil, nil).
func (c *Client) LookupDiscountCode(ctx context.Context, code string) (*DiscountCode, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	var payload struct {
		DiscountCode *DiscountCode `json:"discount_code"`
	}
	query := url.Values{"code": []string{trimmed}}
	err := c.get(ctx, "discount_codes/lookup.json", query, &payload)
	if err != nil {
		var notFound *statusError
		if errors.As(err, &notFound) && notFound.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return payload.DiscountCode, nil
}

// GetPriceRule fetches the price rule behind a discount code.
func (c *Client) GetPriceRule(ctx context.Context, priceRuleID int64) (*PriceRule, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}
	if priceRuleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price rule id is required")
	}

	var payload struct {
		PriceRule *PriceRule `json:"price_rule"`
	}
	path := fmt.Sprintf("price_rules/%d.json", priceRuleID)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	if payload.PriceRule == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamLookup, fmt.Sprintf("price rule %d not found", priceRuleID))
	}
	return payload.PriceRule, nil
}

// CreateOrder submits the order-creation request.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}
	if len(order.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no line items")
	}

	body := struct {
		Order OrderRequest `json:"order"`
	}{Order: order}

	var payload struct {
		Order *Order `json:"order"`
	}
	if err := c.post(ctx, "orders.json", body, &payload); err != nil {
		return nil, err
	}
	if payload.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamLookup, "order creation returned no order")
	}
	return payload.Order, nil
}

// FindOrderBySessionNote scans recent orders for one whose note carries the
// given payment session id. This is the commerce-side idempotency check:
// create only if no order already references the session.
func (c *Client) FindOrderBySessionNote(ctx context.Context, sessionID string) (*Order, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	var payload struct {
		Orders []Order `json:"orders"`
	}
	query := url.Values{
		"status": []string{"any"},
		"fields": []string{"id,note"},
		"limit":  []string{fmt.Sprintf("%d", orderSearchPageSize)},
	}
	if err := c.get(ctx, "orders.json", query, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Orders {
		if strings.Contains(payload.Orders[i].Note, trimmed) {
			return &payload.Orders[i], nil
		}
	}
	return nil, nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, dest any) error {
	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, err, "marshal shopify request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, err, "build shopify request")
	}
	httpReq.Header.Set(accessTokenHeader, c.token)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, err, "execute shopify request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		cause := &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, cause, "shopify request failed")
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamLookup, err, "decode shopify response")
	}
	return nil
}
