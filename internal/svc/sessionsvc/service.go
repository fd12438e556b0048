package sessionsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/segmentio/encoding/json"
)

var (
	ErrIncompleteCredentials  = errors.New("address and secret are both required")
	ErrAuthenticationRejected = errors.New("authentication rejected by mail relay")
	ErrNotAuthenticated       = errors.New("not authenticated")
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

const redacted = "[REDACTED]"

// Credentials is the operator mail identity. Secret never leaves this struct in text form,
// String and MarshalJSON always redact it.
type Credentials struct {
	Address string
	Secret  string
}

// NormalizeCredentials trims address and removes every whitespace character from secret.
// App passwords are commonly copied as "abcd efgh ijkl mnop".
func NormalizeCredentials(address, secret string) (Credentials, error) {
	creds := Credentials{
		Address: strings.TrimSpace(address),
		Secret: strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, secret),
	}

	if creds.Address == "" || creds.Secret == "" {
		return Credentials{}, ErrIncompleteCredentials
	}

	return creds, nil
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Address: %s, Secret: %s}", c.Address, redacted)
}

func (c Credentials) GoString() string {
	return c.String()
}

func (c Credentials) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"address": c.Address,
		"secret":  redacted,
	})
}

// Verifier makes one trial connection with the credentials.
type Verifier interface {
	Verify(ctx context.Context, creds Credentials) error
}

// VerifierFunc adapts function into Verifier.
type VerifierFunc func(ctx context.Context, creds Credentials) error

func (f VerifierFunc) Verify(ctx context.Context, creds Credentials) error {
	return f(ctx, creds)
}
