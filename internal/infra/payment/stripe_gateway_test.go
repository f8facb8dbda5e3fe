//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
)

func TestStripeGateway_CreateSession(t *testing.T) {
	var gotForm map[string][]string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/sessions" || r.Method != http.MethodPost {
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		r.ParseForm()
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":  "cs_test_1",
			"url": "https://checkout.example/cs_test_1",
		})
	}))
	defer srv.Close()

	g := NewStripeGateway("sk_test", srv.URL, "https://shop.example/success", "https://shop.example/cancel")
	meta := model.CheckoutMetadata{
		BuyerID:    "buyer_1",
		CouponCode: "GIFT01",
		LineItems:  []model.LineItem{{ProductID: "prod_1", Quantity: 2, UnitPrice: 12500}},
	}
	id, payURL, err := g.CreateSession(context.Background(), 25000, "gw_coupon_1", meta)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id != "cs_test_1" || payURL != "https://checkout.example/cs_test_1" {
		t.Errorf("got (%q, %q)", id, payURL)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("auth = %q", gotAuth)
	}
	if got := gotForm["metadata[buyer_id]"]; len(got) != 1 || got[0] != "buyer_1" {
		t.Errorf("buyer metadata = %v", got)
	}
	if got := gotForm["line_items[0][price_data][unit_amount]"]; len(got) != 1 || got[0] != "12500" {
		t.Errorf("unit amount = %v", got)
	}
	if got := gotForm["discounts[0][coupon]"]; len(got) != 1 || got[0] != "gw_coupon_1" {
		t.Errorf("discount = %v", got)
	}
}

func TestStripeGateway_RetrieveSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/checkout/sessions/cs_paid":
			items, _ := json.Marshal([]model.LineItem{{ProductID: "prod_1", Quantity: 2, UnitPrice: 12500}})
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":             "cs_paid",
				"payment_status": "paid",
				"amount_total":   25000,
				"metadata": map[string]string{
					"buyer_id":   "buyer_1",
					"line_items": string(items),
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"type": "invalid_request_error", "message": "No such checkout session"},
			})
		}
	}))
	defer srv.Close()

	g := NewStripeGateway("sk_test", srv.URL, "", "")

	conf, err := g.RetrieveSession(context.Background(), "cs_paid")
	if err != nil {
		t.Fatalf("RetrieveSession: %v", err)
	}
	if conf.PaymentStatus != model.PaymentStatusPaid || conf.AmountTotal != 25000 {
		t.Errorf("conf = %+v", conf)
	}
	if conf.Metadata.BuyerID != "buyer_1" {
		t.Errorf("buyer = %q", conf.Metadata.BuyerID)
	}
	if len(conf.Metadata.LineItems) != 1 || conf.Metadata.LineItems[0].UnitPrice != 12500 {
		t.Errorf("line items = %+v", conf.Metadata.LineItems)
	}

	if _, err := g.RetrieveSession(context.Background(), "cs_missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
}

func TestStripeGateway_CreateDiscount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coupons" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		r.ParseForm()
		if got := r.PostForm.Get("percent_off"); got != "10" {
			t.Errorf("percent_off = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "co_test_1"})
	}))
	defer srv.Close()

	g := NewStripeGateway("sk_test", srv.URL, "", "")
	id, err := g.CreateDiscount(context.Background(), 10)
	if err != nil {
		t.Fatalf("CreateDiscount: %v", err)
	}
	if id != "co_test_1" {
		t.Errorf("id = %q", id)
	}
}

func TestStripeGateway_ErrorBodySurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"type": "card_error", "message": "Your card was declined"},
		})
	}))
	defer srv.Close()

	g := NewStripeGateway("sk_test", srv.URL, "", "")
	_, err := g.CreateDiscount(context.Background(), 10)
	if err == nil || !strings.Contains(err.Error(), "declined") {
		t.Errorf("err = %v, want the provider message", err)
	}
}
