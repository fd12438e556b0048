package dispatchsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/yusufsyaifudin/ngundang/backend"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/mailclient"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultAttemptTimeout = 30 * time.Second

type EngineConfig struct {
	SenderMux backend.SenderMux `validate:"required"`
	Provider  string            `validate:"required"`

	// AttemptTimeout bounds one whole attempt: dial, auth and transfer. Zero means DefaultAttemptTimeout.
	AttemptTimeout time.Duration `validate:"min=0"`
}

type Engine struct {
	Config EngineConfig
}

var _ Dispatcher = (*Engine)(nil)
var _ sessionsvc.Verifier = (*Engine)(nil)

func NewEngine(cfg EngineConfig) (*Engine, error) {
	err := validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	registered := false
	for _, provider := range cfg.SenderMux.ListProviders(context.Background()) {
		if provider == cfg.Provider {
			registered = true
			break
		}
	}

	if !registered {
		return nil, fmt.Errorf("%w: '%s'", backend.ErrProviderNotRegistered, cfg.Provider)
	}

	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}

	return &Engine{Config: cfg}, nil
}

// Send makes one attempt to deliver msg to recipient using creds.
func (e *Engine) Send(ctx context.Context, creds sessionsvc.Credentials, msg composesvc.Message, category catalogsvc.Category, recipient catalogsvc.Recipient) (out Outcome) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "dispatchsvc.Send")
	span.SetAttributes(
		attribute.String("provider", e.Config.Provider),
		attribute.String("category_code", category.Code),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Failure(category.Code, recipient.Email, fmt.Sprintf("panic during send: %v", r))
		}

		if out.Status != StatusSuccess {
			span.SetStatus(codes.Error, out.Reason)
			ylog.Error(ctx, "send failed",
				ylog.KV("category_code", out.CategoryCode),
				ylog.KV("recipient_email", out.RecipientEmail),
				ylog.KV("reason", out.Reason),
				ylog.KV("elapsed", time.Since(start).String()),
			)
			return
		}

		ylog.Info(ctx, "send success",
			ylog.KV("category_code", out.CategoryCode),
			ylog.KV("recipient_email", out.RecipientEmail),
			ylog.KV("elapsed", time.Since(start).String()),
		)
	}()

	email := mailclient.EmailSingle{
		From:    creds.Address,
		To:      recipient.Email,
		Subject: msg.Subject,
	}

	if msg.HTML {
		email.PlainBody = msg.PlainFallback
		email.HTMLBody = msg.Body
	} else {
		email.PlainBody = msg.Body
	}

	ctx, cancel := context.WithTimeout(ctx, e.Config.AttemptTimeout)
	defer cancel()

	err := e.Config.SenderMux.Send(ctx, e.Config.Provider, credential(creds), &backend.Message{
		ReferenceID: fmt.Sprintf("%s/%s", category.Code, recipient.Email),
		Email:       email,
	})
	if err != nil {
		out = Failure(category.Code, recipient.Email, err.Error())
		return
	}

	out = Success(category.Code, recipient.Email)
	return
}

// Verify is one trial connection with authentication, used when login must be verified.
func (e *Engine) Verify(ctx context.Context, creds sessionsvc.Credentials) (err error) {
	ctx, cancel := context.WithTimeout(ctx, e.Config.AttemptTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during verify: %v", r)
		}
	}()

	err = e.Config.SenderMux.Verify(ctx, e.Config.Provider, credential(creds))
	return
}

func credential(creds sessionsvc.Credentials) backend.Credential {
	return backend.Credential{
		Username: creds.Address,
		Password: creds.Secret,
	}
}
