package respbuilder

import "net/http"

type ErrKind int64

const (
	ErrUnhandled ErrKind = iota + 1
	ErrValidation
	ErrUnauthorized
	ErrResourceNotFound
	ErrUnknownTemplate
)

type Reason struct {
	Code       string
	Message    string
	HTTPStatus int
}

var ReasonMap = map[ErrKind]Reason{
	ErrUnhandled:        {Code: "01", Message: "unhandled error", HTTPStatus: http.StatusInternalServerError},
	ErrValidation:       {Code: "02", Message: "error validation", HTTPStatus: http.StatusBadRequest},
	ErrUnauthorized:     {Code: "03", Message: "unauthorized", HTTPStatus: http.StatusUnauthorized},
	ErrResourceNotFound: {Code: "04", Message: "resource not found", HTTPStatus: http.StatusNotFound},
	ErrUnknownTemplate:  {Code: "05", Message: "unknown message template", HTTPStatus: http.StatusNotFound},
}

// HTTPStatus returns the http status code of the error kind, unknown kind is treated as 500.
func HTTPStatus(kind ErrKind) int {
	reason, ok := ReasonMap[kind]
	if !ok {
		return http.StatusInternalServerError
	}

	return reason.HTTPStatus
}

// ErrorEntity contain code, message, debug (*if applicable) and trace id.
type ErrorEntity struct {
	Code    string `json:"error_code"`        // to handle by FE
	Message string `json:"error_description"` // to handle by FE (string version of the error code)
	Debug   string `json:"debug,omitempty"`   // technical error
	TraceID string `json:"trace_id"`
}

// HTTPError follow Facebook error response object:
// https://developers.facebook.com/docs/graph-api/using-graph-api/error-handling/
type HTTPError struct {
	Err ErrorEntity `json:"error"`
}

func (e HTTPError) Error() string {
	return e.Err.Message + ": " + e.Err.Debug
}

// HTTPSuccess success response always wrap in data key.
type HTTPSuccess struct {
	TraceID string      `json:"trace_id"`
	Data    interface{} `json:"data"`
}
