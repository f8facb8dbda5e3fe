// Package client is the storefront API client SDK. Its main job beyond thin
// HTTP plumbing is coordinating credential renewal: any number of concurrent
// requests may discover an expired access token at once, and exactly one
// renewal call must be made on their collective behalf.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned to every waiter when renewal fails; the
// session is over and the caller must re-authenticate.
var ErrSessionExpired = errors.New("session expired: credential renewal failed")

// Credentials is the client's stored identity.
type Credentials struct {
	AccessToken string
	ExpiresAt   time.Time
}

// RenewFunc performs one renewal round-trip against the auth endpoint.
type RenewFunc func(ctx context.Context) (Credentials, error)

// Renewer owns the process-wide "one renewal in flight" slot. It is an
// explicit, injectable coordinator rather than a package-level variable so
// tests can substitute a deterministic fake. The singleflight group makes the
// check-or-claim of the in-flight slot atomic: concurrent callers share one
// execution and all observe its outcome.
type Renewer struct {
	renew   RenewFunc
	timeout time.Duration

	group singleflight.Group

	mu    sync.RWMutex
	creds Credentials
}

// NewRenewer wires the renewal call and a bound on how long any renewal
// attempt (and therefore any waiter) may stall.
func NewRenewer(renew RenewFunc, timeout time.Duration) *Renewer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Renewer{renew: renew, timeout: timeout}
}

// Credentials returns the currently stored identity.
func (r *Renewer) Credentials() Credentials {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creds
}

// SetCredentials seeds the stored identity, e.g. after login.
func (r *Renewer) SetCredentials(c Credentials) {
	r.mu.Lock()
	r.creds = c
	r.mu.Unlock()
}

// Renew obtains fresh credentials, collapsing concurrent calls into a single
// renewal round-trip. On success every caller receives the new credentials;
// on failure the stored identity is cleared and every caller receives
// ErrSessionExpired. The slot is released before Renew returns, so a later
// expiry starts a fresh cycle.
func (r *Renewer) Renew(ctx context.Context) (Credentials, error) {
	v, err, _ := r.group.Do("renew", func() (interface{}, error) {
		// The renewal runs on its own deadline, detached from any single
		// caller's context: one cancelled waiter must not fail the shared
		// outcome for the others.
		rctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		creds, err := r.renew(rctx)
		if err != nil {
			r.mu.Lock()
			r.creds = Credentials{}
			r.mu.Unlock()
			return Credentials{}, err
		}
		r.mu.Lock()
		r.creds = creds
		r.mu.Unlock()
		return creds, nil
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	select {
	case <-ctx.Done():
		// The shared renewal may have succeeded, but this caller is gone.
		return Credentials{}, ctx.Err()
	default:
	}
	return v.(Credentials), nil
}
