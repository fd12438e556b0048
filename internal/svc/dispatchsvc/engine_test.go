package dispatchsvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/ngundang/backend"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/dispatchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
)

type senderFunc struct {
	send   func(ctx context.Context, cred backend.Credential, msg *backend.Message) error
	verify func(ctx context.Context, cred backend.Credential) error
}

func (s *senderFunc) Send(ctx context.Context, cred backend.Credential, msg *backend.Message) error {
	return s.send(ctx, cred, msg)
}

func (s *senderFunc) Verify(ctx context.Context, cred backend.Credential) error {
	return s.verify(ctx, cred)
}

var (
	creds     = sessionsvc.Credentials{Address: "me@example.com", Secret: "apppassword"}
	category  = catalogsvc.Category{Name: "Algorithms", Code: "CS101"}
	recipient = catalogsvc.Recipient{Salutation: "Dr. Rao", Email: "rao@example.edu"}
)

func newEngine(t *testing.T, sender backend.Sender, timeout time.Duration) *dispatchsvc.Engine {
	t.Helper()

	mux := backend.NewSenderMux()
	mux.MustRegister("fake", sender)

	engine, err := dispatchsvc.NewEngine(dispatchsvc.EngineConfig{
		SenderMux:      mux,
		Provider:       "fake",
		AttemptTimeout: timeout,
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngine(t *testing.T) {
	_, err := dispatchsvc.NewEngine(dispatchsvc.EngineConfig{})
	assert.Error(t, err)

	mux := backend.NewSenderMux()
	mux.MustRegister("noop", backend.NewNoopSender())

	_, err = dispatchsvc.NewEngine(dispatchsvc.EngineConfig{SenderMux: mux, Provider: "smtp"})
	assert.ErrorIs(t, err, backend.ErrProviderNotRegistered)

	engine, err := dispatchsvc.NewEngine(dispatchsvc.EngineConfig{SenderMux: mux, Provider: "noop"})
	require.NoError(t, err)
	assert.Equal(t, dispatchsvc.DefaultAttemptTimeout, engine.Config.AttemptTimeout)
}

func TestEngine_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("plain message", func(t *testing.T) {
		var got *backend.Message
		var gotCred backend.Credential
		engine := newEngine(t, &senderFunc{send: func(ctx context.Context, cred backend.Credential, msg *backend.Message) error {
			gotCred, got = cred, msg
			return nil
		}}, time.Second)

		out := engine.Send(ctx, creds, composesvc.Message{Subject: "Hello", Body: "plain body"}, category, recipient)
		assert.Equal(t, dispatchsvc.Success("CS101", "rao@example.edu"), out)

		require.NotNil(t, got)
		assert.Equal(t, backend.Credential{Username: "me@example.com", Password: "apppassword"}, gotCred)
		assert.Equal(t, "CS101/rao@example.edu", got.ReferenceID)
		assert.Equal(t, "me@example.com", got.Email.From)
		assert.Equal(t, "rao@example.edu", got.Email.To)
		assert.Equal(t, "Hello", got.Email.Subject)
		assert.Equal(t, "plain body", got.Email.PlainBody)
		assert.Empty(t, got.Email.HTMLBody)
	})

	t.Run("html message", func(t *testing.T) {
		var got *backend.Message
		engine := newEngine(t, &senderFunc{send: func(ctx context.Context, cred backend.Credential, msg *backend.Message) error {
			got = msg
			return nil
		}}, time.Second)

		out := engine.Send(ctx, creds, composesvc.Message{
			Subject:       "Invitation",
			Body:          "<p>hi</p>",
			HTML:          true,
			PlainFallback: "enable html",
		}, category, recipient)
		assert.Equal(t, dispatchsvc.StatusSuccess, out.Status)

		require.NotNil(t, got)
		assert.Equal(t, "<p>hi</p>", got.Email.HTMLBody)
		assert.Equal(t, "enable html", got.Email.PlainBody)
	})

	t.Run("error text verbatim", func(t *testing.T) {
		engine := newEngine(t, &senderFunc{send: func(ctx context.Context, cred backend.Credential, msg *backend.Message) error {
			return errors.New("535 5.7.8 Username and Password not accepted")
		}}, time.Second)

		out := engine.Send(ctx, creds, composesvc.Message{Subject: "s", Body: "b"}, category, recipient)
		assert.Equal(t, dispatchsvc.Failure("CS101", "rao@example.edu", "535 5.7.8 Username and Password not accepted"), out)
	})

	t.Run("panic is failure", func(t *testing.T) {
		engine := newEngine(t, &senderFunc{send: func(ctx context.Context, cred backend.Credential, msg *backend.Message) error {
			panic("boom")
		}}, time.Second)

		var out dispatchsvc.Outcome
		assert.NotPanics(t, func() {
			out = engine.Send(ctx, creds, composesvc.Message{Subject: "s", Body: "b"}, category, recipient)
		})
		assert.Equal(t, dispatchsvc.StatusFailure, out.Status)
		assert.Contains(t, out.Reason, "boom")
		assert.Equal(t, "rao@example.edu", out.RecipientEmail)
	})

	t.Run("attempt timeout", func(t *testing.T) {
		engine := newEngine(t, &senderFunc{send: func(ctx context.Context, cred backend.Credential, msg *backend.Message) error {
			<-ctx.Done()
			return ctx.Err()
		}}, 50*time.Millisecond)

		start := time.Now()
		out := engine.Send(ctx, creds, composesvc.Message{Subject: "s", Body: "b"}, category, recipient)
		assert.Equal(t, dispatchsvc.StatusFailure, out.Status)
		assert.Equal(t, context.DeadlineExceeded.Error(), out.Reason)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("noop backend", func(t *testing.T) {
		engine := newEngine(t, backend.NewNoopSender(), time.Second)

		out := engine.Send(ctx, creds, composesvc.Message{Subject: "s", Body: "b"}, category, recipient)
		assert.Equal(t, dispatchsvc.StatusSuccess, out.Status)

		out = engine.Send(ctx, sessionsvc.Credentials{}, composesvc.Message{Subject: "s", Body: "b"}, category, recipient)
		assert.Equal(t, dispatchsvc.StatusFailure, out.Status)
		assert.NotEmpty(t, out.Reason)
	})
}

func TestEngine_Verify(t *testing.T) {
	ctx := context.Background()

	var got backend.Credential
	engine := newEngine(t, &senderFunc{verify: func(ctx context.Context, cred backend.Credential) error {
		got = cred
		if cred.Password != "apppassword" {
			return errors.New("535 rejected")
		}
		return nil
	}}, time.Second)

	assert.NoError(t, engine.Verify(ctx, creds))
	assert.Equal(t, "me@example.com", got.Username)

	assert.EqualError(t, engine.Verify(ctx, sessionsvc.Credentials{Address: "me@example.com", Secret: "x"}), "535 rejected")

	t.Run("as session verifier", func(t *testing.T) {
		session := sessionsvc.NewSession(engine)
		err := session.Submit(ctx, "me@example.com", "wrong")
		assert.ErrorIs(t, err, sessionsvc.ErrAuthenticationRejected)
		assert.NoError(t, session.Submit(ctx, "me@example.com", "app password"))
	})

	t.Run("panic", func(t *testing.T) {
		engine := newEngine(t, &senderFunc{verify: func(ctx context.Context, cred backend.Credential) error {
			panic("boom")
		}}, time.Second)
		assert.Error(t, engine.Verify(ctx, creds))
	})
}
