package container

import (
	"context"
	"fmt"
	"time"

	"github.com/yusufsyaifudin/ngundang/backend"
	"github.com/yusufsyaifudin/ngundang/backend/besmtp"
	"github.com/yusufsyaifudin/ngundang/internal/svc/batchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/dispatchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/uid"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

type Services interface {
	Catalog() *catalogsvc.Catalog
	Composer() *composesvc.Composer
	Sessions() *sessionsvc.Store
	Batch() batchsvc.Service
	Senders() backend.SenderMux
}

type ServicesImpl struct {
	catalog  *catalogsvc.Catalog
	composer *composesvc.Composer
	sessions *sessionsvc.Store
	batch    *batchsvc.Coordinator
	senders  *backend.SenderMultiplexer

	closers []namedCloser
}

// namedCloser is closed in reverse order of registration.
type namedCloser struct {
	name  string
	close func() error
}

var _ Services = (*ServicesImpl)(nil)

// SetupServices wires every service from config. Catalog failure is not an error:
// the catalog is empty and the reason stays in Catalog().Warning().
func SetupServices(ctx context.Context, cfg Config) (svc *ServicesImpl, err error) {
	svc = &ServicesImpl{
		closers: make([]namedCloser, 0),
	}

	// ** recipient catalog
	catalog, catalogErr := catalogsvc.Load(cfg.Catalog.Path)
	if catalogErr != nil {
		ylog.Error(ctx, "catalog not loaded, continue with empty catalog", ylog.KV("error", catalogErr))
	} else {
		ylog.Info(ctx, "catalog loaded", ylog.KV("path", cfg.Catalog.Path), ylog.KV("categories", catalog.Len()))
	}

	svc.catalog = catalog

	// ** message composer
	svc.composer, err = composesvc.NewComposer(composesvc.ComposerConfig{
		DefaultTemplate: cfg.Composer.DefaultTemplate,
		Templates:       cfg.Composer.Templates,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare composer: %w", err)
		return
	}

	// ** relay backends, both are always registered so the provider can be switched in config only
	svc.senders, err = SetupSenders(cfg.Relay)
	if err != nil {
		err = fmt.Errorf("services cannot prepare relay backends: %w", err)
		return
	}

	engine, err := dispatchsvc.NewEngine(dispatchsvc.EngineConfig{
		SenderMux:      svc.senders,
		Provider:       cfg.Relay.Provider,
		AttemptTimeout: cfg.Dispatch.AttemptTimeout,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare dispatch engine: %w", err)
		return
	}

	// ** operator sessions
	storeCfg := sessionsvc.StoreConfig{
		MaxSize: cfg.Session.MaxSessions,
		MaxIdle: cfg.Session.MaxIdle,
	}

	if cfg.Session.VerifyLogin {
		storeCfg.Verifier = engine
	}

	svc.sessions, err = sessionsvc.NewStore(storeCfg)
	if err != nil {
		err = fmt.Errorf("services cannot prepare session store: %w", err)
		return
	}

	svc.closers = append(svc.closers, namedCloser{name: "session store", close: svc.sessions.Close})

	// ** batch coordinator
	runID, err := uid.NewSonyflake(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		err = fmt.Errorf("services cannot prepare run id generator: %w", err)
		return
	}

	svc.batch, err = batchsvc.New(batchsvc.CoordinatorConfig{
		Catalog:     svc.catalog,
		Composer:    svc.composer,
		Dispatcher:  engine,
		RunID:       runID,
		MaxParallel: cfg.Dispatch.MaxParallel,
		Dedupe:      cfg.Dispatch.Dedupe,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare batch coordinator: %w", err)
		return
	}

	svc.closers = append(svc.closers, namedCloser{name: "batch coordinator", close: svc.batch.Close})

	ylog.Info(ctx, "services ready",
		ylog.KV("provider", cfg.Relay.Provider),
		ylog.KV("verify_login", cfg.Session.VerifyLogin),
		ylog.KV("max_parallel", cfg.Dispatch.MaxParallel),
		ylog.KV("dedupe", cfg.Dispatch.Dedupe),
	)

	return svc, nil
}

// SetupSenders registers noop and, when the relay is configured, smtp backend.
func SetupSenders(relay ConfigRelay) (mux *backend.SenderMultiplexer, err error) {
	mux = backend.NewSenderMux()

	err = mux.Register(ProviderNoop, backend.NewNoopSender())
	if err != nil {
		err = fmt.Errorf("register backend noop failed: %w", err)
		return
	}

	if relay.Provider != ProviderSMTP {
		return
	}

	beSmtp, err := besmtp.NewBE(relay.Relay)
	if err != nil {
		err = fmt.Errorf("be smtp failed: %w", err)
		return
	}

	err = mux.Register(ProviderSMTP, beSmtp)
	if err != nil {
		err = fmt.Errorf("register backend smtp failed: %w", err)
		return
	}

	return
}

func (s *ServicesImpl) Catalog() *catalogsvc.Catalog {
	return s.catalog
}

func (s *ServicesImpl) Composer() *composesvc.Composer {
	return s.composer
}

func (s *ServicesImpl) Sessions() *sessionsvc.Store {
	return s.sessions
}

func (s *ServicesImpl) Batch() batchsvc.Service {
	return s.batch
}

func (s *ServicesImpl) Senders() backend.SenderMux {
	return s.senders
}

// Close will close all dependencies.
func (s *ServicesImpl) Close() error {
	if s == nil {
		return nil
	}

	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if _err := s.closers[i].close(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("close %s error: %w", s.closers[i].name, _err))
		}
	}

	s.closers = nil
	return err
}
