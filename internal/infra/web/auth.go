package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Session/JWT primitives =====

const RefreshCookieName = "storefront_refresh"

var (
	errNoToken      = errors.New("no token presented")
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("token invalid")
)

type AuthManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthManager(secret string, accessTTL, refreshTTL time.Duration) *AuthManager {
	return &AuthManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

type sessionClaims struct {
	TokenType string `json:"token_type"` // access | refresh | identity
	jwt.RegisteredClaims
}

func (a *AuthManager) mint(buyerID, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := sessionClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   buyerID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	return signed, exp, err
}

// MintAccess returns a short-lived bearer token for API calls.
func (a *AuthManager) MintAccess(buyerID string) (string, time.Time, error) {
	return a.mint(buyerID, "access", a.accessTTL)
}

// SetRefreshCookie mints a refresh token and installs it as an HTTP-only cookie.
func (a *AuthManager) SetRefreshCookie(w http.ResponseWriter, buyerID string) error {
	signed, _, err := a.mint(buyerID, "refresh", a.refreshTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    signed,
		Path:     "/api/v1/auth",
		MaxAge:   int(a.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (a *AuthManager) parse(raw, wantType string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errTokenInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errTokenExpired
		}
		return "", errTokenInvalid
	}
	if claims.TokenType != wantType || claims.Subject == "" {
		return "", errTokenInvalid
	}
	return claims.Subject, nil
}

// BuyerFromRequest resolves the authenticated buyer from the Authorization
// header. errTokenExpired is surfaced distinctly so the HTTP layer can tell
// clients to renew rather than re-authenticate.
func (a *AuthManager) BuyerFromRequest(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return "", errNoToken
	}
	if !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return "", errTokenInvalid
	}
	return a.parse(strings.TrimSpace(hdr[7:]), "access")
}

// MintIdentityAssertion signs a short-lived identity assertion for a buyer.
// In deployment these come from the identity service, which shares the
// signing secret; locally the dev token endpoint mints them.
func (a *AuthManager) MintIdentityAssertion(buyerID string) (string, error) {
	signed, _, err := a.mint(buyerID, "identity", 5*time.Minute)
	return signed, err
}

// BuyerFromAssertion validates an identity assertion presented at login.
func (a *AuthManager) BuyerFromAssertion(raw string) (string, error) {
	return a.parse(raw, "identity")
}

// BuyerFromRefreshCookie validates the refresh cookie for the renewal endpoint.
func (a *AuthManager) BuyerFromRefreshCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return "", errNoToken
	}
	return a.parse(c.Value, "refresh")
}

// ===== Request-scoped buyer identity =====

type buyerCtxKey struct{}

func withBuyer(ctx context.Context, buyerID string) context.Context {
	return context.WithValue(ctx, buyerCtxKey{}, buyerID)
}

// BuyerID returns the authenticated buyer stored by the auth middleware.
func BuyerID(ctx context.Context) string {
	if v, ok := ctx.Value(buyerCtxKey{}).(string); ok {
		return v
	}
	return ""
}
