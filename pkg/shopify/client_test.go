package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evermois/checkout-bridge/pkg/config"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		config.ShopifyConfig{StoreDomain: "demo.myshopify.com", AdminToken: "shpat_test"},
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestGetVariant(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/variants/123.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "shpat_test" {
			t.Fatalf("unexpected access token header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"variant": map[string]any{"id": 123, "product_id": 7, "title": "Medium", "price": "19.99"},
		})
	}))

	variant, err := client.GetVariant(context.Background(), 123)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if variant.ID != 123 || variant.Price != "19.99" {
		t.Fatalf("unexpected variant %+v", variant)
	}
}

func TestGetVariantUpstreamFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"Internal Server Error"}`, http.StatusInternalServerError)
	}))

	_, err := client.GetVariant(context.Background(), 123)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUpstreamLookup {
		t.Fatalf("expected upstream lookup failure, got %v", err)
	}
}

func TestLookupDiscountCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discount_codes/lookup.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("code"); got != "SUMMER10" {
			t.Fatalf("unexpected code query %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"discount_code": map[string]any{"id": 5, "price_rule_id": 9, "code": "SUMMER10"},
		})
	}))

	code, err := client.LookupDiscountCode(context.Background(), " SUMMER10 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code == nil || code.PriceRuleID != 9 {
		t.Fatalf("unexpected discount code %+v", code)
	}
}

func TestLookupDiscountCodeUnknownIsNotAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	code, err := client.LookupDiscountCode(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != nil {
		t.Fatalf("expected nil for unknown code, got %+v", code)
	}
}

func TestGetPriceRule(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price_rules/9.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"price_rule": map[string]any{
				"id":         9,
				"value_type": "percentage",
				"value":      "-10.0",
				"title":      "SUMMER10",
				"prerequisite_subtotal_range": map[string]any{
					"greater_than_or_equal_to": "50.00",
				},
			},
		})
	}))

	rule, err := client.GetPriceRule(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.ValueType != "percentage" || rule.Value != "-10.0" {
		t.Fatalf("unexpected rule %+v", rule)
	}
	if rule.PrerequisiteSubtotalRange == nil || rule.PrerequisiteSubtotalRange.GreaterThanOrEqualTo != "50.00" {
		t.Fatalf("expected subtotal restriction, got %+v", rule.PrerequisiteSubtotalRange)
	}
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders.json" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Order OrderRequest `json:"order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode order body: %v", err)
		}
		if body.Order.Note != "Stripe session: cs_test_1" {
			t.Fatalf("unexpected note %q", body.Order.Note)
		}
		if len(body.Order.LineItems) != 1 || body.Order.LineItems[0].VariantID != 123 {
			t.Fatalf("unexpected line items %+v", body.Order.LineItems)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"id": 42, "note": body.Order.Note},
		})
	}))

	created, err := client.CreateOrder(context.Background(), OrderRequest{
		Email:           "buyer@example.com",
		FinancialStatus: "paid",
		Currency:        "USD",
		LineItems:       []OrderLineItem{{VariantID: 123, Quantity: 2}},
		Note:            "Stripe session: cs_test_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 42 {
		t.Fatalf("unexpected order id %d", created.ID)
	}
}

func TestCreateOrderRequiresLineItems(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	if _, err := client.CreateOrder(context.Background(), OrderRequest{}); err == nil {
		t.Fatal("expected error for empty order")
	}
}

func TestFindOrderBySessionNote(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "any" || q.Get("fields") != "id,note" || q.Get("limit") != "250" {
			t.Fatalf("unexpected query %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"orders": []map[string]any{
				{"id": 1, "note": "manual order"},
				{"id": 2, "note": "Stripe session: cs_test_2"},
			},
		})
	}))

	found, err := client.FindOrderBySessionNote(context.Background(), "cs_test_2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != 2 {
		t.Fatalf("expected order 2, got %+v", found)
	}

	missing, err := client.FindOrderBySessionNote(context.Background(), "cs_test_404")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unseen session, got %+v", missing)
	}
}
