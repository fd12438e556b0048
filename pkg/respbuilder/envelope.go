package respbuilder

import (
	"context"
)

type requestInfoKey struct{}

// RequestInfo identifies the request in every response envelope and in the Tracer-ID header.
type RequestInfo struct {
	RemoteAddr string
	TraceID    string
}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns zero RequestInfo when the request logger did not run.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// Error builds the error envelope. Debug is the error text, never set for an unregistered kind.
func Error(ctx context.Context, kind ErrKind, err error) HTTPError {
	traceID := RequestInfoFrom(ctx).TraceID

	reason, ok := ReasonMap[kind]
	if !ok {
		return HTTPError{
			Err: ErrorEntity{
				Code:    "XX",
				Message: "unknown error kind",
				TraceID: traceID,
			},
		}
	}

	return reason.envelope(traceID, err)
}

func Success(ctx context.Context, data interface{}) HTTPSuccess {
	return HTTPSuccess{
		TraceID: RequestInfoFrom(ctx).TraceID,
		Data:    data,
	}
}

func (r Reason) envelope(traceID string, err error) HTTPError {
	var debug string
	if err != nil {
		debug = err.Error()
	}

	return HTTPError{
		Err: ErrorEntity{
			Code:    r.Code,
			Message: r.Message,
			Debug:   debug,
			TraceID: traceID,
		},
	}
}
