package backend

import (
	"context"
	"fmt"

	"github.com/yusufsyaifudin/ngundang/pkg/mailclient"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
)

// NoopBackend renders the message but never connects anywhere. Useful for dry run.
type NoopBackend struct{}

var _ Sender = (*NoopBackend)(nil)

func NewNoopSender() *NoopBackend {
	return &NoopBackend{}
}

func (b *NoopBackend) Send(ctx context.Context, cred Credential, msg *Message) (err error) {
	if err = b.Verify(ctx, cred); err != nil {
		return
	}

	err = validator.Validate(msg)
	if err != nil {
		err = fmt.Errorf("noop message malformed: %w", err)
		return
	}

	raw, err := mailclient.BuildMessage(msg.Email)
	if err != nil {
		return
	}

	ylog.Debug(ctx, "noop backend: message discarded",
		ylog.KV("reference_id", msg.ReferenceID),
		ylog.KV("to", msg.Email.To),
		ylog.KV("size", len(raw)),
	)
	return
}

func (b *NoopBackend) Verify(_ context.Context, cred Credential) (err error) {
	err = validator.Validate(cred)
	if err != nil {
		err = fmt.Errorf("noop credential malformed: %w", err)
	}

	return
}
