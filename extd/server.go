package extd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/ngundang/container"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"github.com/yusufsyaifudin/ngundang/transport/restapi"
	"github.com/yusufsyaifudin/ylog"
	jaegerPropagator "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const shutdownTimeout = 10 * time.Second

// RunServer located in extd (extended) so another binary can reuse the whole wiring with its own config.
func RunServer(ctx context.Context, appVersion string, cfg container.Config) (err error) {

	if ctx == nil {
		ctx = context.TODO()
	}

	ctx = setupLog(ctx)

	shutdownTracer, err := setupTracing(ctx, cfg.Tracing)
	if err != nil {
		ylog.Error(ctx, "cannot setup tracing", ylog.KV("error", err))
		return
	}

	defer func() {
		if _err := shutdownTracer(context.Background()); _err != nil {
			ylog.Error(ctx, "tracing shutdown: failed", ylog.KV("error", _err))
		}
	}()

	// ** START SERVICES
	ylog.Info(ctx, "services preparation: starting")
	services, err := container.SetupServices(ctx, cfg)
	defer func() {
		ylog.Info(ctx, "closing services: starting")
		if services == nil {
			ylog.Info(ctx, "closing services: no need to close")
			return
		}

		if _err := services.Close(); _err != nil {
			ylog.Error(ctx, "closing services: failed", ylog.KV("error", _err))
		}

		ylog.Info(ctx, "closing services: done")
	}()

	if err != nil {
		ylog.Error(ctx, "service preparation: failed", ylog.KV("error", err))
		return
	}

	ylog.Info(ctx, "services preparation: done")

	// ** HTTP TRANSPORT
	serverConfig := restapi.Config{
		AppVersion:   appVersion,
		Catalog:      services.Catalog(),
		Composer:     services.Composer(),
		Sessions:     services.Sessions(),
		BatchService: services.Batch(),
	}

	ylog.Info(ctx, "http transport: starting")
	server, err := restapi.NewHTTPTransport(serverConfig)
	if err != nil {
		ylog.Error(ctx, "http transport: failed", ylog.KV("error", err))
		return
	}

	httpPort := fmt.Sprintf(":%d", cfg.Transport.HTTP.Port)
	h2s := &http2.Server{}
	httpServer := &http.Server{
		Addr:              httpPort,
		Handler:           h2c.NewHandler(server.Server(), h2s), // HTTP/2 Cleartext handler
		ReadHeaderTimeout: 10 * time.Second,
	}

	var apiErrChan = make(chan error, 1)
	go func() {
		ylog.Info(ctx, fmt.Sprintf("http transport: done running on port %d", cfg.Transport.HTTP.Port))
		apiErrChan <- httpServer.ListenAndServe()
	}()

	ylog.Info(ctx, "system: up and running...")

	// ** listen for sigterm signal
	var signalChan = make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-signalChan:
		ylog.Info(ctx, "system: exiting...")
		ylog.Info(ctx, "http transport: exiting...")

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if _err := httpServer.Shutdown(shutdownCtx); _err != nil {
			ylog.Error(ctx, "http transport: ", ylog.KV("error", _err))
		}

	case _err := <-apiErrChan:
		if _err != nil && !errors.Is(_err, http.ErrServerClosed) {
			ylog.Error(ctx, "http transport: error", ylog.KV("error", _err))
			err = _err
		}
	}

	return
}

// setupLog installs zap as global ylog logger and returns ctx carrying the system tracer data.
func setupLog(ctx context.Context) context.Context {

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), // pipe to multiple writer
		zapcore.DebugLevel,
	)

	zapLog := zap.New(core)

	propagateData := tracer.LogData{
		RemoteAddr: "system",
		TraceID:    uuid.NewV4().String(),
	}

	traceLog, err := ylog.NewTracer(propagateData, ylog.WithTag("tracer"))
	if err != nil {
		log.Fatalf("error prepare tracer system data: %s", err)
		return ctx
	}

	// inject context
	ctx = ylog.Inject(ctx, traceLog)

	// ** set global logger
	ylog.SetGlobalLogger(ylog.NewZap(zapLog))

	return ctx
}

// setupTracing registers OT and Jaeger propagators. Spans are exported only when jaeger endpoint is set,
// otherwise the global noop provider is kept.
func setupTracing(ctx context.Context, cfg container.ConfigTracing) (shutdown func(context.Context) error, err error) {
	shutdown = func(context.Context) error { return nil }

	// register ot propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		&ot.OT{},
		&jaegerPropagator.Jaeger{},
	))

	if cfg.JaegerEndpoint == "" {
		ylog.Info(ctx, "tracing: no jaeger endpoint, spans are not exported")
		return
	}

	exp, err := jaeger.New(
		jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)),
	)
	if err != nil {
		err = fmt.Errorf("cannot setup jaeger exporter: %w", err)
		return
	}

	tp := tracer.InitTraceProvider(exp, cfg.Environment)
	shutdown = tp.Shutdown

	ylog.Info(ctx, "tracing: exporting to jaeger", ylog.KV("endpoint", cfg.JaegerEndpoint))
	return
}
