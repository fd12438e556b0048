package handlermsg

import (
	"fmt"
	"net/http"

	"github.com/yusufsyaifudin/ngundang/internal/svc/batchsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/respbuilder"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"github.com/yusufsyaifudin/ngundang/transport/restapi/httptyped"
	"go.opentelemetry.io/otel/trace"
)

type HandlerConfig struct {
	BatchService batchsvc.Service `validate:"required"`
}

type Handler struct {
	Config HandlerConfig
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	err := validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	return &Handler{Config: cfg}, nil
}

type SendOneReq struct {
	Category       string           `json:"category" schema:"category"`
	RecipientEmail string           `json:"recipient_email" schema:"recipient_email"`
	Template       string           `json:"template" schema:"template"`
	Fields         httptyped.Fields `json:"fields" schema:"fields"`
}

type SendBatchReq struct {
	Categories []string         `json:"categories" schema:"categories"`
	Template   string           `json:"template" schema:"template"`
	Fields     httptyped.Fields `json:"fields" schema:"fields"`
}

// SendOne sends to one recipient of a category. Delivery failure is still 200, see the outcome status.
// Path         : POST /api/v1/messages/one
// Request Body : SendOneReq
// Response     : dispatchsvc.Outcome
func (h *Handler) SendOne() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var span trace.Span
		ctx, span = tracer.StartSpan(ctx, "handlermsg.SendOne")
		defer span.End()

		session, ok := httptyped.SessionFrom(ctx)
		if !ok {
			err := fmt.Errorf("no session in request context")
			respbuilder.WriteError(w, r, respbuilder.ErrUnhandled, err)
			return
		}

		var reqBody SendOneReq
		err := httptyped.DecodeBody(r, &reqBody)
		if err != nil {
			respbuilder.WriteError(w, r, respbuilder.ErrValidation, err)
			return
		}

		out, err := h.Config.BatchService.SendOne(ctx, session, batchsvc.InputSendOne{
			Category:       reqBody.Category,
			RecipientEmail: reqBody.RecipientEmail,
			Template:       reqBody.Template,
			Fields:         reqBody.Fields.ToSvc(),
		})
		if err != nil {
			kind := httptyped.ErrKind(err)
			if kind == respbuilder.ErrUnhandled {
				kind = respbuilder.ErrValidation
			}

			respbuilder.WriteError(w, r, kind, err)
			return
		}

		respbuilder.WriteSuccess(w, r, out)
	}
}

// SendBatch sends to every recipient of every selected category, in the selected order.
// Path         : POST /api/v1/messages/batch
// Request Body : SendBatchReq
// Response     : batchsvc.Report
func (h *Handler) SendBatch() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var span trace.Span
		ctx, span = tracer.StartSpan(ctx, "handlermsg.SendBatch")
		defer span.End()

		session, ok := httptyped.SessionFrom(ctx)
		if !ok {
			err := fmt.Errorf("no session in request context")
			respbuilder.WriteError(w, r, respbuilder.ErrUnhandled, err)
			return
		}

		var reqBody SendBatchReq
		err := httptyped.DecodeBody(r, &reqBody)
		if err != nil {
			respbuilder.WriteError(w, r, respbuilder.ErrValidation, err)
			return
		}

		report, err := h.Config.BatchService.Run(ctx, session, batchsvc.InputRun{
			Categories: reqBody.Categories,
			Template:   reqBody.Template,
			Fields:     reqBody.Fields.ToSvc(),
		})
		if err != nil {
			respbuilder.WriteError(w, r, httptyped.ErrKind(err), err)
			return
		}

		respbuilder.WriteSuccess(w, r, report)
	}
}
