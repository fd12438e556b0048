package tracer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yusufsyaifudin/ngundang/assets"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerAppName = "ngundang"

// LogData is the tracer data propagated into every log line through the context.
type LogData struct {
	RemoteAddr string `json:"remote_addr"`
	TraceID    string `json:"trace_id"`
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(tracerAppName).Start(ctx, spanName, opts...)
}

// InitTraceProvider sets global tracer provider which batch the spans into exp.
// The returned provider must be shutdown to flush the remaining spans.
func InitTraceProvider(exp sdktrace.SpanExporter, environment string) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(assets.ServiceName),
			attribute.String("environment", environment),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp
}

type MiddlewareConfig struct {
	TracerName     string                        `validate:"required"`
	ServiceName    string                        `validate:"required"`
	SkipFunc       func(r *http.Request) bool    `validate:"-"`
	TracerProvider trace.TracerProvider          `validate:"required"`
	TextPropagator propagation.TextMapPropagator `validate:"required"`
}

// Middleware starts a server span per request. Invalid config disables tracing instead of failing the server.
func Middleware(cfg MiddlewareConfig, next http.Handler) http.HandlerFunc {
	if _err := validator.Validate(cfg); _err != nil {
		return next.ServeHTTP
	}

	if cfg.SkipFunc == nil {
		cfg.SkipFunc = func(r *http.Request) bool {
			return false
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.SkipFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := cfg.TextPropagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		opts := []trace.SpanStartOption{
			trace.WithAttributes(semconv.NetAttributesFromHTTPRequest("tcp", r)...),
			trace.WithAttributes(semconv.HTTPServerAttributesFromHTTPRequest(cfg.ServiceName, r.URL.Path, r)...),
			trace.WithSpanKind(trace.SpanKindServer),
		}

		spanName := r.URL.Path
		if spanName == "" {
			spanName = fmt.Sprintf("HTTP %s route not found", r.Method)
		}

		newCtx, span := cfg.TracerProvider.Tracer(cfg.TracerName).Start(ctx, spanName, opts...)
		defer span.End()

		sw := &statusWriter{
			ResponseWriter: w,
			beforeHeader: func(h http.Header) {
				cfg.TextPropagator.Inject(newCtx, propagation.HeaderCarrier(h))
			},
		}

		next.ServeHTTP(sw, r.WithContext(newCtx))

		status := sw.Status()
		spanStatus, spanMessage := semconv.SpanStatusFromHTTPStatusCodeAndSpanKind(status, trace.SpanKindServer)
		span.SetAttributes(semconv.HTTPAttributesFromHTTPStatusCode(status)...)
		span.SetStatus(spanStatus, spanMessage)
	}
}

// statusWriter remembers the status code. beforeHeader runs once, right before the header is sent.
type statusWriter struct {
	http.ResponseWriter
	beforeHeader func(http.Header)
	status       int
}

func (s *statusWriter) WriteHeader(code int) {
	if s.status != 0 {
		return
	}

	s.status = code
	s.beforeHeader(s.ResponseWriter.Header())
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.WriteHeader(http.StatusOK)
	}

	return s.ResponseWriter.Write(b)
}

// Status is 200 when the handler wrote nothing.
func (s *statusWriter) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}

	return s.status
}

func (s *statusWriter) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		if s.status == 0 {
			s.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}
