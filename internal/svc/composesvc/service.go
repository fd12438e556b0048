package composesvc

import (
	"errors"
)

const (
	TemplateRequest    = "request"
	TemplateInvitation = "invitation"
)

var ErrUnknownTemplate = errors.New("unknown template")

// Fields are operator entered values. They are opaque, empty value is allowed and rendered as empty.
type Fields struct {
	Name          string `json:"name" schema:"name"`
	Roll          string `json:"roll" schema:"roll"`
	Year          string `json:"year" schema:"year"`
	Venue         string `json:"venue" schema:"venue"`
	GroupChatLink string `json:"group_chat_link" schema:"group_chat_link"`
	GroupNumber   string `json:"group_number" schema:"group_number"`
	ContactInfo   string `json:"contact_info" schema:"contact_info"`
}

// Message is the composed result. When HTML is true Body is markup and PlainFallback
// is sent as the text/plain alternative.
type Message struct {
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	HTML          bool   `json:"html"`
	PlainFallback string `json:"plain_fallback,omitempty"`
}

// TemplateConfig is the wording of one template, written with text/template placeholders:
// {{.Salutation}} {{.RecipientEmail}} {{.CategoryName}} {{.CategoryCode}} and every field of Fields.
type TemplateConfig struct {
	Subject       string `yaml:"subject" validate:"required"`
	Body          string `yaml:"body" validate:"required"`
	HTML          bool   `yaml:"html"`
	PlainFallback string `yaml:"plainFallback"` // empty means derived from the HTML body

	// Markdown body is rendered to HTML after substitution, the substituted markdown is the plain part.
	Markdown bool `yaml:"markdown"`
}

// templateData is what placeholders are resolved against.
type templateData struct {
	Fields

	Salutation     string
	RecipientEmail string
	CategoryName   string
	CategoryCode   string
}
