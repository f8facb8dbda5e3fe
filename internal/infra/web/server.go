package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"storefront/internal/infra/logging"
	"storefront/internal/usecase"
)

type Server struct {
	checkoutUC usecase.CheckoutUseCase
	orderUC    usecase.OrderUseCase
	auth       *AuthManager
	adminKey   string
	dev        bool
	log        *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	orderUC usecase.OrderUseCase,
	auth *AuthManager,
	adminKey string,
	dev bool,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC: checkoutUC,
		orderUC:    orderUC,
		auth:       auth,
		adminKey:   adminKey,
		dev:        dev,
		log:        logger,
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/renew", s.handleRenew)
		if s.dev {
			// Dev-only token mint; real deployments get tokens from the
			// identity service.
			r.Post("/auth/token", s.handleDevToken)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/checkout/session", s.handleCreateSession)
			r.Post("/checkout/success", s.handleCheckoutSuccess)
			r.Get("/orders", s.handleListOrders)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Get("/admin/orders", s.handleAdminListOrders)
			r.Patch("/admin/orders/{id}/status", s.handleAdminUpdateStatus)
		})
	})
	return r
}

// traceMiddleware puts a trace id into the request context for log correlation.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authMiddleware resolves the buyer identity from the access token. Expired
// tokens answer 401 with code "token_expired", which is the signal the client
// SDK's single-flight renewer keys on.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := s.auth.BuyerFromRequest(r)
		if err != nil {
			switch err {
			case errTokenExpired:
				writeError(w, http.StatusUnauthorized, "token_expired", "access token expired")
			default:
				writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			}
			return
		}
		ctx := withBuyer(logging.WithBuyerID(r.Context(), buyerID), buyerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminMiddleware provides simple Bearer key authentication for admin routes.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			writeError(w, http.StatusForbidden, "forbidden", "admin API disabled")
			return
		}
		hdr := r.Header.Get("Authorization")
		parts := strings.SplitN(hdr, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] != s.adminKey {
			writeError(w, http.StatusForbidden, "forbidden", "invalid admin key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe runs the server with sane timeouts.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv.ListenAndServe()
}
