package composesvc

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"sort"
	"strings"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	mdhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
)

//go:embed templates
var builtinFS embed.FS

var (
	// templates come from the operator config, so raw HTML inside markdown is kept
	markdown = goldmark.New(
		goldmark.WithRendererOptions(mdhtml.WithHardWraps(), mdhtml.WithUnsafe()),
	)

	// StrictPolicy strips every tag and keeps the text
	stripTags = bluemonday.StrictPolicy()
)

type ComposerConfig struct {
	// DefaultTemplate is used when Compose is called with empty name.
	DefaultTemplate string

	// Templates overrides a built-in template with the same name, or adds a new one.
	Templates map[string]TemplateConfig
}

// Composer is safe for concurrent use, it only holds parsed templates.
type Composer struct {
	defaultName string
	templates   map[string]*compiled
}

type compiled struct {
	subject       *template.Template
	body          *template.Template
	html          bool
	markdown      bool
	plainFallback string
}

func NewComposer(cfg ComposerConfig) (*Composer, error) {
	builtins, err := Builtins()
	if err != nil {
		err = fmt.Errorf("load built-in templates: %w", err)
		return nil, err
	}

	merged := builtins
	for name, tmplCfg := range cfg.Templates {
		merged[name] = tmplCfg
	}

	c := &Composer{
		defaultName: cfg.DefaultTemplate,
		templates:   make(map[string]*compiled, len(merged)),
	}

	if c.defaultName == "" {
		c.defaultName = TemplateRequest
	}

	for name, tmplCfg := range merged {
		if err = validator.Validate(tmplCfg); err != nil {
			err = fmt.Errorf("template '%s': %w", name, err)
			return nil, err
		}

		c.templates[name], err = compile(name, tmplCfg)
		if err != nil {
			return nil, err
		}
	}

	if _, exist := c.templates[c.defaultName]; !exist {
		err = fmt.Errorf("%w: default template '%s'", ErrUnknownTemplate, c.defaultName)
		return nil, err
	}

	return c, nil
}

// Builtins returns the wording of request and invitation template.
func Builtins() (map[string]TemplateConfig, error) {
	read := func(name string) (string, error) {
		b, err := builtinFS.ReadFile("templates/" + name)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	out := map[string]TemplateConfig{}
	for _, name := range []string{TemplateRequest, TemplateInvitation} {
		subject, err := read(name + ".subject.tmpl")
		if err != nil {
			return nil, err
		}

		body, err := read(name + ".body.tmpl")
		if err != nil {
			return nil, err
		}

		tmplCfg := TemplateConfig{
			Subject: strings.TrimSpace(subject),
			Body:    body,
		}

		// a fallback file marks the template as HTML
		fallback, err := read(name + ".fallback.tmpl")
		if err == nil {
			tmplCfg.HTML = true
			tmplCfg.PlainFallback = strings.TrimSpace(fallback)
		}

		out[name] = tmplCfg
	}

	return out, nil
}

func compile(name string, cfg TemplateConfig) (*compiled, error) {
	subject, err := template.New(name + ".subject").Option("missingkey=error").Parse(cfg.Subject)
	if err != nil {
		return nil, fmt.Errorf("template '%s' subject: %w", name, err)
	}

	body, err := template.New(name + ".body").Option("missingkey=error").Parse(cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("template '%s' body: %w", name, err)
	}

	c := &compiled{
		subject:       subject,
		body:          body,
		html:          cfg.HTML,
		markdown:      cfg.Markdown,
		plainFallback: cfg.PlainFallback,
	}

	// placeholder that does not exist only shows up on execution, so fail here instead of in the middle of a batch
	if _, err = c.execute(templateData{}); err != nil {
		return nil, fmt.Errorf("template '%s': %w", name, err)
	}

	return c, nil
}

func (c *compiled) execute(data templateData) (msg Message, err error) {
	var subject, body bytes.Buffer
	if err = c.subject.Execute(&subject, data); err != nil {
		return
	}

	if err = c.body.Execute(&body, data); err != nil {
		return
	}

	msg = Message{
		Subject: singleLine(subject.String()),
		Body:    body.String(),
		HTML:    c.html,
	}

	switch {
	case c.markdown:
		var rendered bytes.Buffer
		if err = markdown.Convert(body.Bytes(), &rendered); err != nil {
			err = fmt.Errorf("render markdown: %w", err)
			return
		}

		msg.HTML = true
		msg.Body = rendered.String()
		msg.PlainFallback = c.plainFallback
		if msg.PlainFallback == "" {
			msg.PlainFallback = strings.TrimSpace(body.String())
		}

	case c.html:
		msg.PlainFallback = c.plainFallback
		if msg.PlainFallback == "" {
			msg.PlainFallback = plainText(msg.Body)
		}
	}

	return
}

// plainText strips the markup and drops repeated blank lines left by the removed tags.
func plainText(markup string) string {
	text := html.UnescapeString(stripTags.Sanitize(markup))

	lines := make([]string, 0)
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(lines) > 0 {
				lines = append(lines, "")
			}
			blank = true
			continue
		}

		blank = false
		lines = append(lines, line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Compose renders the named template for one recipient. Empty name means the default template.
// Values are substituted verbatim, nothing is escaped.
func (c *Composer) Compose(name string, category catalogsvc.Category, recipient catalogsvc.Recipient, fields Fields) (Message, error) {
	tmpl, err := c.lookup(name)
	if err != nil {
		return Message{}, err
	}

	msg, err := tmpl.execute(templateData{
		Fields:         fields,
		Salutation:     recipient.Salutation,
		RecipientEmail: recipient.Email,
		CategoryName:   category.Name,
		CategoryCode:   category.Code,
	})
	if err != nil {
		err = fmt.Errorf("compose '%s': %w", name, err)
		return Message{}, err
	}

	return msg, nil
}

func (c *Composer) lookup(name string) (*compiled, error) {
	if name == "" {
		name = c.defaultName
	}

	tmpl, exist := c.templates[name]
	if !exist {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownTemplate, name)
	}

	return tmpl, nil
}

// Check returns ErrUnknownTemplate when name does not resolve to a template,
// so callers can reject it before anything is sent. Empty name resolves to the default one.
func (c *Composer) Check(name string) error {
	_, err := c.lookup(name)
	return err
}

func (c *Composer) DefaultTemplate() string {
	return c.defaultName
}

// Names of all templates, sorted.
func (c *Composer) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine keeps subject in one header line.
func singleLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}
