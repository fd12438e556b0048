package respbuilder_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/ngundang/pkg/respbuilder"
)

func TestError(t *testing.T) {
	ctx := respbuilder.WithRequestInfo(context.Background(), respbuilder.RequestInfo{TraceID: "trace-1"})

	t.Run("known kind", func(t *testing.T) {
		out := respbuilder.Error(ctx, respbuilder.ErrUnauthorized, errors.New("not authenticated"))
		assert.Equal(t, "03", out.Err.Code)
		assert.Equal(t, "not authenticated", out.Err.Debug)
		assert.Equal(t, "trace-1", out.Err.TraceID)
	})

	t.Run("unknown kind hides debug", func(t *testing.T) {
		out := respbuilder.Error(ctx, respbuilder.ErrKind(99), errors.New("secret detail"))
		assert.Equal(t, "XX", out.Err.Code)
		assert.Empty(t, out.Err.Debug)
	})
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(respbuilder.WithRequestInfo(r.Context(), respbuilder.RequestInfo{TraceID: "trace-2"}))
	w := httptest.NewRecorder()

	respbuilder.WriteError(w, r, respbuilder.ErrResourceNotFound, errors.New("category 'X' not found"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "trace-2", w.Header().Get("Tracer-ID"))

	var body respbuilder.HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "04", body.Err.Code)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, respbuilder.HTTPStatus(respbuilder.ErrValidation))
	assert.Equal(t, http.StatusInternalServerError, respbuilder.HTTPStatus(respbuilder.ErrKind(0)))
}

func TestWriteSuccess(t *testing.T) {
	// no request info in context
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	respbuilder.WriteSuccess(w, r, map[string]int{"sent": 3})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"trace_id": "", "data": {"sent": 3}}`, w.Body.String())
}
