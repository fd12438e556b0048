package sessionsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/yusufsyaifudin/ylog"
)

// Session holds credentials of one operator. Every dispatch reads it while the HTTP layer
// may submit or logout at the same time, hence the lock.
type Session struct {
	verifier Verifier

	mu    sync.RWMutex
	creds *Credentials
}

// NewSession returns unauthenticated session. verifier is optional,
// when nil Submit grants the authenticated state without network round trip.
func NewSession(verifier Verifier) *Session {
	return &Session{
		verifier: verifier,
	}
}

// Submit normalizes the input and transitions the session to authenticated.
// Any failure leaves the session unauthenticated, including when it was authenticated before.
func (s *Session) Submit(ctx context.Context, address, secret string) (err error) {
	creds, err := NormalizeCredentials(address, secret)
	if err != nil {
		s.Logout()
		return
	}

	if s.verifier != nil {
		if err = s.verifier.Verify(ctx, creds); err != nil {
			s.Logout()

			ylog.Info(ctx, "credentials rejected on login", ylog.KV("address", creds.Address))
			err = fmt.Errorf("%w: %s", ErrAuthenticationRejected, err)
			return
		}
	}

	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()

	ylog.Info(ctx, "session authenticated", ylog.KV("address", creds.Address))
	return
}

// Logout is idempotent.
func (s *Session) Logout() {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
}

func (s *Session) Current() (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil {
		return Credentials{}, ErrNotAuthenticated
	}

	return *s.creds, nil
}

func (s *Session) State() State {
	if s.Authenticated() {
		return StateAuthenticated
	}

	return StateUnauthenticated
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds != nil
}

// Address returns the authenticated address or empty string.
func (s *Session) Address() string {
	creds, err := s.Current()
	if err != nil {
		return ""
	}

	return creds.Address
}
