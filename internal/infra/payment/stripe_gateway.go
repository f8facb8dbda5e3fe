package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements PaymentGateway using direct HTTP calls against the
// Stripe-style checkout API (hosted sessions, percent-off coupons).
type StripeGateway struct {
	apiKey     string
	baseURL    string
	successURL string
	cancelURL  string
	client     *http.Client
}

func NewStripeGateway(apiKey, baseURL, successURL, cancelURL string) *StripeGateway {
	return &StripeGateway{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		successURL: successURL,
		cancelURL:  cancelURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

// sessionResponse is the subset of the checkout session object we consume.
type sessionResponse struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	URL           string            `json:"url"`
	Metadata      map[string]string `json:"metadata"`
}

type couponResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateSession opens a hosted checkout session. The provider derives the
// charge from line items and discounts, so amount is not sent on the wire.
func (g *StripeGateway) CreateSession(ctx context.Context, amount int64, gatewayCouponID string, meta model.CheckoutMetadata) (string, string, error) {
	items, err := json.Marshal(meta.LineItems)
	if err != nil {
		return "", "", fmt.Errorf("marshal line items: %w", err)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.successURL)
	form.Set("cancel_url", g.cancelURL)
	form.Set("metadata[buyer_id]", meta.BuyerID)
	form.Set("metadata[coupon_code]", meta.CouponCode)
	form.Set("metadata[line_items]", string(items))
	for i, li := range meta.LineItems {
		p := fmt.Sprintf("line_items[%d]", i)
		form.Set(p+"[quantity]", strconv.Itoa(li.Quantity))
		form.Set(p+"[price_data][currency]", "usd")
		form.Set(p+"[price_data][unit_amount]", strconv.FormatInt(li.UnitPrice, 10))
		form.Set(p+"[price_data][product_data][name]", li.ProductID)
	}
	if gatewayCouponID != "" {
		form.Set("discounts[0][coupon]", gatewayCouponID)
	}

	var resp sessionResponse
	if err := g.post(ctx, "/checkout/sessions", form, &resp); err != nil {
		return "", "", err
	}
	return resp.ID, resp.URL, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*model.PaymentConfirmation, error) {
	var resp sessionResponse
	if err := g.get(ctx, "/checkout/sessions/"+url.PathEscape(sessionID), &resp); err != nil {
		return nil, err
	}

	conf := &model.PaymentConfirmation{
		SessionID:   resp.ID,
		AmountTotal: resp.AmountTotal,
		Metadata: model.CheckoutMetadata{
			BuyerID:    resp.Metadata["buyer_id"],
			CouponCode: resp.Metadata["coupon_code"],
		},
	}
	switch resp.PaymentStatus {
	case "paid":
		conf.PaymentStatus = model.PaymentStatusPaid
	default:
		conf.PaymentStatus = model.PaymentStatus(resp.PaymentStatus)
	}
	if raw := resp.Metadata["line_items"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &conf.Metadata.LineItems); err != nil {
			return nil, fmt.Errorf("decode session line items: %w", err)
		}
	}
	return conf, nil
}

func (g *StripeGateway) CreateDiscount(ctx context.Context, percentage int) (string, error) {
	form := url.Values{}
	form.Set("percent_off", strconv.Itoa(percentage))
	form.Set("duration", "once")

	var resp couponResponse
	if err := g.post(ctx, "/coupons", form, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (g *StripeGateway) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}
	return g.do(req, out)
}

func (g *StripeGateway) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req, out)
}

func (g *StripeGateway) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrSessionNotFound
	}
	if resp.StatusCode >= 400 {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return fmt.Errorf("gateway error (%d): %s", resp.StatusCode, e.Error.Message)
		}
		return fmt.Errorf("gateway error: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode gateway response: %w, body: %s", err, string(body))
	}
	return nil
}
