package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// orderView is the wire shape of an order; totals are rendered in major
// currency units for display while storage stays in minor units.
type orderView struct {
	ID          string           `json:"id"`
	LineItems   []model.LineItem `json:"line_items"`
	TotalAmount float64          `json:"total_amount"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toOrderView(o *model.Order) orderView {
	return orderView{
		ID:          o.ID,
		LineItems:   o.LineItems,
		TotalAmount: o.TotalMajor(),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
}

func toOrderViews(orders []*model.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	return out
}

// ---- checkout ----

type createSessionRequest struct {
	Items      []model.LineItem `json:"items"`
	CouponCode string           `json:"coupon_code"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	res, err := s.checkoutUC.CreateSession(ctx, BuyerID(ctx), req.Items, req.CouponCode)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid or empty items")
			return
		}
		s.log.Error().Err(err).Msg("create checkout session failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create checkout session")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type checkoutSuccessRequest struct {
	SessionID string `json:"session_id"`
}

type checkoutSuccessResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

func (s *Server) handleCheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req checkoutSuccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}

	res, err := s.checkoutUC.Complete(ctx, req.SessionID, BuyerID(ctx))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, "forbidden", "session belongs to another buyer")
		case errors.Is(err, domain.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "not_found", "checkout session not found")
		case errors.Is(err, domain.ErrPaymentIncomplete):
			writeError(w, http.StatusBadRequest, "payment_incomplete", err.Error())
		case errors.Is(err, domain.ErrOrderPersistFailed):
			// Retryable: payment is confirmed at the gateway, retrying the
			// same session id is safe and will not duplicate the order.
			writeError(w, http.StatusBadGateway, "order_persist_failed", "payment confirmed but order not recorded; retry")
		default:
			s.log.Error().Err(err).Str("session_id", req.SessionID).Msg("checkout completion failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, checkoutSuccessResponse{Success: true, OrderID: res.OrderID})
}

// ---- orders ----

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orders, err := s.orderUC.ListByBuyer(ctx, BuyerID(ctx))
	if err != nil {
		s.log.Error().Err(err).Msg("list orders failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list orders")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []orderView `json:"data"`
	}{Data: toOrderViews(orders)})
}

func (s *Server) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)
	orders, err := s.orderUC.ListAll(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list orders")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []orderView `json:"data"`
		Offset int         `json:"offset"`
		Limit  int         `json:"limit"`
	}{Data: toOrderViews(orders), Offset: offset, Limit: limit})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleAdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}
	o, err := s.orderUC.UpdateStatus(r.Context(), chi.URLParam(r, "id"), model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "order not found")
		case errors.Is(err, domain.ErrInvalidStatusTransition):
			writeError(w, http.StatusConflict, "invalid_transition", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "could not update order")
		}
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// ---- auth ----

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleRenew exchanges a valid refresh cookie for a fresh access token. This
// is the server side of the client SDK's single-flight renewal.
func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	buyerID, err := s.auth.BuyerFromRefreshCookie(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
		return
	}
	token, exp, err := s.auth.MintAccess(buyerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not mint token")
		return
	}
	// Rotate the refresh cookie alongside the access token.
	if err := s.auth.SetRefreshCookie(w, buyerID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not mint token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, ExpiresAt: exp})
}

type loginRequest struct {
	Assertion string `json:"assertion"`
}

// handleLogin exchanges an identity assertion for an access token and a
// refresh cookie. The assertion is minted by the identity service, which
// shares the signing secret with this server.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Assertion == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "assertion is required")
		return
	}
	buyerID, err := s.auth.BuyerFromAssertion(req.Assertion)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid assertion")
		return
	}
	token, exp, err := s.auth.MintAccess(buyerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not mint token")
		return
	}
	if err := s.auth.SetRefreshCookie(w, buyerID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not mint token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, ExpiresAt: exp})
}

type devTokenRequest struct {
	BuyerID string `json:"buyer_id"`
}

func (s *Server) handleDevToken(w http.ResponseWriter, r *http.Request) {
	var req devTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BuyerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "buyer_id is required")
		return
	}
	token, exp, err := s.auth.MintAccess(req.BuyerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not mint token")
		return
	}
	if err := s.auth.SetRefreshCookie(w, req.BuyerID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not mint token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, ExpiresAt: exp})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
