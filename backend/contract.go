package backend

import (
	"context"
	"fmt"

	"github.com/yusufsyaifudin/ngundang/pkg/mailclient"
)

var (
	ErrProviderAlreadyRegistered = fmt.Errorf("provider already registered")
	ErrProviderNotRegistered     = fmt.Errorf("provider not registered")
)

// Credential is the operator identity for the relay, passed per call and never kept by any Sender.
type Credential struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// String never prints the password.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{Username: %s, Password: [REDACTED]}", c.Username)
}

// Message is one email to one recipient.
type Message struct {
	ReferenceID string                 `validate:"required"`
	Email       mailclient.EmailSingle `validate:"required"`
}

// Sender is a mail relay backend.
type Sender interface {
	// Send does exactly one transmission attempt of msg.
	Send(ctx context.Context, cred Credential, msg *Message) (err error)

	// Verify checks that cred is accepted by the relay without sending anything.
	Verify(ctx context.Context, cred Credential) (err error)
}

// SenderMux used by internal application to route to the specific Sender based on provider name.
type SenderMux interface {
	Send(ctx context.Context, provider string, cred Credential, msg *Message) (err error)
	Verify(ctx context.Context, provider string, cred Credential) (err error)

	// ListProviders will return all registered providers in sorted order
	ListProviders(ctx context.Context) (providers []string)
}
