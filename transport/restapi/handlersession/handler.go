package handlersession

import (
	"fmt"
	"net/http"

	"github.com/yusufsyaifudin/ngundang/pkg/respbuilder"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"github.com/yusufsyaifudin/ngundang/transport/restapi/httptyped"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct{}

func NewHandler() (*Handler, error) {
	return &Handler{}, nil
}

type LoginReq struct {
	Address string `json:"address" schema:"address"`
	Secret  string `json:"secret" schema:"secret"`
}

type SessionResp struct {
	httptyped.SessionEntity
}

// GetSession returns the session state.
// Path     : GET /api/v1/session
// Response : SessionResp
func (h *Handler) GetSession() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, ok := httptyped.SessionFrom(ctx)
		if !ok {
			err := fmt.Errorf("no session in request context")
			respbuilder.WriteError(w, r, respbuilder.ErrUnhandled, err)
			return
		}

		respbuilder.WriteSuccess(w, r, SessionResp{httptyped.SessionEntityFromSvc(session)})
	}
}

// Login submits the credentials. Whitespace inside secret is removed.
// Path         : POST /api/v1/session
// Request Body : LoginReq
// Response     : SessionResp
func (h *Handler) Login() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var span trace.Span
		ctx, span = tracer.StartSpan(ctx, "handlersession.Login")
		defer span.End()

		session, ok := httptyped.SessionFrom(ctx)
		if !ok {
			err := fmt.Errorf("no session in request context")
			respbuilder.WriteError(w, r, respbuilder.ErrUnhandled, err)
			return
		}

		var reqBody LoginReq
		err := httptyped.DecodeBody(r, &reqBody)
		if err != nil {
			respbuilder.WriteError(w, r, respbuilder.ErrValidation, err)
			return
		}

		err = session.Submit(ctx, reqBody.Address, reqBody.Secret)
		if err != nil {
			respbuilder.WriteError(w, r, httptyped.ErrKind(err), err)
			return
		}

		respbuilder.WriteSuccess(w, r, SessionResp{httptyped.SessionEntityFromSvc(session)})
	}
}

// Logout clears the credentials, calling it twice is fine.
// Path     : DELETE /api/v1/session
// Response : SessionResp
func (h *Handler) Logout() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, ok := httptyped.SessionFrom(ctx)
		if !ok {
			err := fmt.Errorf("no session in request context")
			respbuilder.WriteError(w, r, respbuilder.ErrUnhandled, err)
			return
		}

		session.Logout()
		respbuilder.WriteSuccess(w, r, SessionResp{httptyped.SessionEntityFromSvc(session)})
	}
}
