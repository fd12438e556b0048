package besmtp

import (
	"context"
	"fmt"

	"github.com/yusufsyaifudin/ngundang/backend"
	"github.com/yusufsyaifudin/ngundang/pkg/mailclient"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Backend sends the message through SMTP relay, one connection per message.
type Backend struct {
	Client mailclient.Client
}

var _ backend.Sender = (*Backend)(nil)

func NewBE(relay mailclient.Relay) (*Backend, error) {
	client, err := mailclient.NewSmtp(mailclient.SmtpMailerConfig{
		Relay: relay,
	})
	if err != nil {
		err = fmt.Errorf("smtp client failed: %w", err)
		return nil, err
	}

	return &Backend{Client: client}, nil
}

func (b *Backend) Send(ctx context.Context, cred backend.Credential, msg *backend.Message) (err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "besmtp.Send")
	defer span.End()

	if msg == nil {
		err = fmt.Errorf("nil message")
		return
	}

	span.SetAttributes(attribute.String("reference_id", msg.ReferenceID))

	err = b.Client.SendEmail(ctx, &mailclient.EmailCredential{
		Username: cred.Username,
		Password: cred.Password,
	}, msg.Email)
	return
}

func (b *Backend) Verify(ctx context.Context, cred backend.Credential) (err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "besmtp.Verify")
	defer span.End()

	err = b.Client.Verify(ctx, &mailclient.EmailCredential{
		Username: cred.Username,
		Password: cred.Password,
	})
	return
}
