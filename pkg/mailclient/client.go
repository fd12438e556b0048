package mailclient

import (
	"context"
)

// Client sends email through a relay.
// Every call opens its own connection and closes it before return, no connection is reused.
type Client interface {
	// SendEmail does one full transaction: connect, authenticate, MAIL, RCPT, DATA, QUIT.
	SendEmail(ctx context.Context, cred *EmailCredential, data EmailSingle) error

	// Verify only connects and authenticates, then quit without sending anything.
	Verify(ctx context.Context, cred *EmailCredential) error
}
