package mailclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"go.uber.org/multierr"
)

type SmtpMailerConfig struct {
	Relay Relay `validate:"required"`
}

type SmtpMailer struct {
	Config SmtpMailerConfig
}

var _ Client = (*SmtpMailer)(nil)

// NewSmtp will return new smtp client without any real connection is made.
func NewSmtp(cfg SmtpMailerConfig) (*SmtpMailer, error) {
	err := validator.Validate(cfg)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return nil, err
	}

	return &SmtpMailer{Config: cfg}, nil
}

func (m *SmtpMailer) SendEmail(ctx context.Context, cred *EmailCredential, data EmailSingle) (err error) {
	raw, err := BuildMessage(data)
	if err != nil {
		return
	}

	c, err := initClient(ctx, m.Config.Relay, cred)
	if err != nil {
		return
	}

	// The message is accepted by the relay once DATA is closed successfully,
	// so a failing QUIT after that must not turn the send into a failure.
	delivered := false
	defer func() {
		if _err := closeClient(c); _err != nil && !delivered {
			err = multierr.Append(err, _err)
		}
	}()

	// New transaction is initiated using the MAIL command (tools.ietf.org/html/rfc5321#section-4.1.1.2).
	err = c.Mail(data.From, nil)
	if err != nil {
		err = fmt.Errorf("MAIL cmd failed: %w", err)
		return
	}

	err = c.Rcpt(data.To)
	if err != nil {
		err = fmt.Errorf("error recipient %s: %w", data.To, err)
		return
	}

	wc, err := c.Data()
	if err != nil {
		err = fmt.Errorf("error data writer: %w", err)
		return
	}

	_, err = io.Copy(wc, bytes.NewReader(raw))
	if err != nil {
		err = multierr.Append(fmt.Errorf("error data copy: %w", err), wc.Close())
		return
	}

	err = wc.Close()
	if err != nil {
		err = fmt.Errorf("error data close: %w", err)
		return
	}

	delivered = true
	return
}

func (m *SmtpMailer) Verify(ctx context.Context, cred *EmailCredential) error {
	c, err := initClient(ctx, m.Config.Relay, cred)
	if err != nil {
		return err
	}

	return closeClient(c)
}

// ----- Function here is intended to have simple function (not as method handler in a struct),
// because it will be easier to debug and test. In addition, we can ensure it will not use the variable that stateful.

func initClient(ctx context.Context, relay Relay, cred *EmailCredential) (*smtp.Client, error) {
	if cred == nil {
		return nil, fmt.Errorf("nil email credential")
	}

	err := validator.Validate(cred)
	if err != nil {
		err = fmt.Errorf("validation on email credential error: %w", err)
		return nil, err
	}

	smtpAddr := net.JoinHostPort(relay.Host, strconv.Itoa(relay.Port))

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", smtpAddr)
	if err != nil {
		err = fmt.Errorf("tcp dial error: %w", err)
		return nil, err
	}

	// every SMTP command after this point is bound to the same deadline as the caller context
	if deadline, ok := ctx.Deadline(); ok {
		if err = conn.SetDeadline(deadline); err != nil {
			err = multierr.Append(fmt.Errorf("set connection deadline: %w", err), conn.Close())
			return nil, err
		}
	}

	tlsConfig := &tls.Config{
		ServerName:         relay.Host,
		InsecureSkipVerify: relay.InsecureSkipVerify,
	}

	if relay.TLSMode == TLSImplicit {
		tlsConn := tls.Client(conn, tlsConfig)
		if err = tlsConn.HandshakeContext(ctx); err != nil {
			err = multierr.Append(fmt.Errorf("tls handshake error: %w", err), conn.Close())
			return nil, err
		}

		conn = tlsConn
	}

	c, err := smtp.NewClient(conn, relay.Host)
	if err != nil {
		err = multierr.Append(fmt.Errorf("error new smtp client: %w", err), conn.Close())
		return nil, err
	}

	if relay.HelloName != "" {
		if err = c.Hello(relay.HelloName); err != nil {
			err = multierr.Append(fmt.Errorf("error hello: %w", err), c.Close())
			return nil, err
		}
	}

	if relay.TLSMode == TLSStartTLS {
		if err = c.StartTLS(tlsConfig); err != nil {
			err = multierr.Append(fmt.Errorf("error start tls: %w", err), c.Close())
			return nil, err
		}
	}

	err = c.Auth(sasl.NewPlainClient("", cred.Username, cred.Password))
	if err != nil {
		err = multierr.Append(fmt.Errorf("error auth: %w", err), c.Close())
		return nil, err
	}

	return c, nil
}

// closeClient sends QUIT and falls back to closing the connection.
// https://stackoverflow.com/a/19670136/5489910
func closeClient(c *smtp.Client) error {
	_err := c.Quit()
	if _err == nil {
		return nil
	}

	err := fmt.Errorf("quit command error: %w", _err)
	if _err = c.Close(); _err != nil {
		err = multierr.Append(err, fmt.Errorf("close command error: %w", _err))
	}

	return err
}
