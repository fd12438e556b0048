package mailclient

import "time"

// TLSMode tells how the connection to the relay is secured.
type TLSMode string

const (
	// TLSImplicit wraps the connection in TLS before the SMTP greeting, usually port 465.
	TLSImplicit TLSMode = "implicit"
	// TLSStartTLS upgrades plain connection using STARTTLS command, usually port 587.
	TLSStartTLS TLSMode = "starttls"
	// TLSNone sends everything in plain text. Only use this for local relay.
	TLSNone TLSMode = "none"
)

// Relay is the mail submission endpoint.
type Relay struct {
	Host               string  `json:"host" yaml:"host" validate:"required"`
	Port               int     `json:"port" yaml:"port" validate:"required,min=1,max=65535"`
	TLSMode            TLSMode `json:"tls_mode" yaml:"tlsMode" validate:"required,oneof=implicit starttls none"`
	InsecureSkipVerify bool    `json:"insecure_skip_verify" yaml:"insecureSkipVerify"`
	HelloName          string  `json:"hello_name" yaml:"helloName"` // empty means go-smtp default
}

// EmailCredential is the authentication identity used for one connection.
// It is never stored by this package.
type EmailCredential struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// EmailSingle is one message addressed to exactly one recipient.
type EmailSingle struct {
	From      string `validate:"required"`
	To        string `validate:"required"`
	ToName    string `validate:"-"`
	Subject   string `validate:"-"`
	PlainBody string `validate:"-"`
	HTMLBody  string `validate:"-"` // when not empty, sent as text/html alternative of PlainBody

	// Date of the message header, zero value means time.Now()
	Date time.Time `validate:"-"`
}
