package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SenderMultiplexer struct {
	lock   sync.RWMutex
	sender map[string]Sender
}

var _ SenderMux = (*SenderMultiplexer)(nil)

func NewSenderMux() *SenderMultiplexer {
	return &SenderMultiplexer{
		sender: map[string]Sender{},
	}
}

func (s *SenderMultiplexer) MustRegister(provider string, sender Sender) {
	err := s.Register(provider, sender)
	if err != nil {
		panic(err)
	}
}

// Register new provider with the implemented Sender
func (s *SenderMultiplexer) Register(provider string, sender Sender) (err error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		err = fmt.Errorf("cannot assign empty provider name")
		return
	}

	if provider != strings.ToLower(provider) {
		err = fmt.Errorf("provider name must only contain lower case")
		return
	}

	if !utf8.ValidString(provider) {
		err = fmt.Errorf("provider name must only use utf8 characters")
		return
	}

	if sender == nil {
		err = fmt.Errorf("cannot assign nil sender")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, exist := s.sender[provider]; exist {
		err = fmt.Errorf("%w '%s'", ErrProviderAlreadyRegistered, provider)
		return
	}

	s.sender[provider] = sender
	return
}

func (s *SenderMultiplexer) get(provider string) (Sender, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	client, exist := s.sender[provider]
	if !exist {
		return nil, fmt.Errorf("%w: '%s'", ErrProviderNotRegistered, provider)
	}

	return client, nil
}

func (s *SenderMultiplexer) Send(ctx context.Context, provider string, cred Credential, msg *Message) (err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "backendmux.Send")
	span.SetAttributes(attribute.String("provider", provider))
	defer span.End()

	if msg == nil {
		err = fmt.Errorf("passed message is nil, we cannot process that")
		return
	}

	client, err := s.get(provider)
	if err != nil {
		return
	}

	err = client.Send(ctx, cred, msg)
	if err != nil {
		span.RecordError(err)
	}

	return
}

func (s *SenderMultiplexer) Verify(ctx context.Context, provider string, cred Credential) (err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "backendmux.Verify")
	span.SetAttributes(attribute.String("provider", provider))
	defer span.End()

	client, err := s.get(provider)
	if err != nil {
		return
	}

	err = client.Verify(ctx, cred)
	return
}

func (s *SenderMultiplexer) ListProviders(_ context.Context) (providers []string) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	providers = make([]string, 0, len(s.sender))
	for provider := range s.sender {
		providers = append(providers, provider)
	}

	sort.Strings(providers)
	return
}
