package restapi

import (
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yusufsyaifudin/ngundang/assets"
	"github.com/yusufsyaifudin/ngundang/internal/svc/batchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"github.com/yusufsyaifudin/ngundang/transport/restapi/handlercatalog"
	"github.com/yusufsyaifudin/ngundang/transport/restapi/handlermsg"
	"github.com/yusufsyaifudin/ngundang/transport/restapi/handlersession"
	"go.opentelemetry.io/otel"
)

type Config struct {
	AppVersion   string               `validate:"required"`
	Catalog      *catalogsvc.Catalog  `validate:"required"`
	Composer     *composesvc.Composer `validate:"required"`
	Sessions     *sessionsvc.Store    `validate:"required"`
	BatchService batchsvc.Service     `validate:"required"`
}

type DefaultHTTP struct {
	router *chi.Mux
}

func NewHTTPTransport(cfg Config) (*DefaultHTTP, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("http transport cfg error: %w", err)
	}

	// ** Session handler
	handlerSession, err := handlersession.NewHandler()
	if err != nil {
		return nil, err
	}

	// ** Catalog handler
	handlerCatalogCfg := handlercatalog.HandlerConfig{
		Catalog:  cfg.Catalog,
		Composer: cfg.Composer,
	}

	handlerCatalog, err := handlercatalog.NewHandler(handlerCatalogCfg)
	if err != nil {
		return nil, err
	}

	// ** Messaging handler
	handlerMsgCfg := handlermsg.HandlerConfig{
		BatchService: cfg.BatchService,
	}

	handlerMessage, err := handlermsg.NewHandler(handlerMsgCfg)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	skip := func(r *http.Request) bool {
		switch strings.TrimSpace(path.Clean(r.URL.Path)) {
		case "/",
			"/ping":
			return true
		}

		return false
	}

	router.Use(middleware.StripSlashes)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Tracer-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Use(func(next http.Handler) http.Handler {
		return tracer.Middleware(tracer.MiddlewareConfig{
			TracerName:     "github.com/yusufsyaifudin/ngundang",
			ServiceName:    assets.ServiceName,
			SkipFunc:       skip,
			TracerProvider: otel.GetTracerProvider(),    // global tracer provider
			TextPropagator: otel.GetTextMapPropagator(), // use global text map propagator
		}, next)
	})

	// add trace id and also log request response
	router.Use(func(next http.Handler) http.Handler {
		return requestLogger(skip, next)
	})

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fmt.Sprintf(`{"pong": true, "version": %q}`, cfg.AppVersion)))
	})

	webDir, err := fs.Sub(assets.WebUI, "web")
	if err != nil {
		return nil, fmt.Errorf("web ui assets: %w", err)
	}

	router.Handle("/", http.FileServer(http.FS(webDir)))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return sessionResolver(cfg.Sessions, next)
		})

		// Resource: session
		r.Get("/session", handlerSession.GetSession())
		r.Post("/session", handlerSession.Login())
		r.Delete("/session", handlerSession.Logout())

		// Resource: categories
		r.Get("/categories", handlerCatalog.ListCategories())

		// Resource: messages
		r.Post("/messages/one", handlerMessage.SendOne())
		r.Post("/messages/batch", handlerMessage.SendBatch())
	})

	instance := &DefaultHTTP{
		router: router,
	}

	return instance, nil
}

// Server .
func (a *DefaultHTTP) Server() http.Handler {
	return a.router
}
