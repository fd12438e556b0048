package respbuilder

import (
	"net/http"

	"github.com/segmentio/encoding/json"
)

func WriteJSON(httpStatus int, rw http.ResponseWriter, r *http.Request, data interface{}) {
	traceID := RequestInfoFrom(r.Context()).TraceID

	rw.Header().Set("Content-Type", "application/json")
	rw.Header().Set("Tracer-ID", traceID)
	rw.WriteHeader(httpStatus)

	err := json.NewEncoder(rw).Encode(data)
	if err != nil {
		// status is already written, only the body can still tell what went wrong
		errPayload, _ := json.Marshal(ReasonMap[ErrUnhandled].envelope(traceID, err))
		_, _ = rw.Write(errPayload)
	}
}

// WriteError writes error envelope using the http status registered for the kind.
func WriteError(rw http.ResponseWriter, r *http.Request, kind ErrKind, err error) {
	WriteJSON(HTTPStatus(kind), rw, r, Error(r.Context(), kind, err))
}

// WriteSuccess writes data in success envelope with status 200.
func WriteSuccess(rw http.ResponseWriter, r *http.Request, data interface{}) {
	WriteJSON(http.StatusOK, rw, r, Success(r.Context(), data))
}
