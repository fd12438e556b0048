package httptyped

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ngundang/internal/svc/batchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/respbuilder"
)

// SessionCookieName holds the opaque id of the operator session.
const SessionCookieName = "ngundang_session"

type sessionCtxKey struct{}

// InjectSession puts the operator session into the request context.
func InjectSession(ctx context.Context, session *sessionsvc.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFrom returns the operator session injected by the session middleware.
func SessionFrom(ctx context.Context) (*sessionsvc.Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*sessionsvc.Session)
	return session, ok && session != nil
}

// DecodeBody reads JSON body, or form body when the content type is application/x-www-form-urlencoded.
func DecodeBody(r *http.Request, dst interface{}) (err error) {
	if r.Body == nil {
		err = fmt.Errorf("request body is nil")
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err = r.ParseForm(); err != nil {
			err = fmt.Errorf("failed parse form: %w", err)
			return
		}

		formDec := schema.NewDecoder()
		formDec.IgnoreUnknownKeys(true)
		if err = formDec.Decode(dst, r.PostForm); err != nil {
			err = fmt.Errorf("failed decode form: %w", err)
		}

		return

	default:
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err = dec.Decode(dst); err != nil {
			err = fmt.Errorf("failed decode json: %w", err)
		}

		return
	}
}

// ErrKind maps service errors into response error kind.
func ErrKind(err error) respbuilder.ErrKind {
	switch {
	case errors.Is(err, sessionsvc.ErrIncompleteCredentials),
		errors.Is(err, batchsvc.ErrDuplicateCategory):
		return respbuilder.ErrValidation
	case errors.Is(err, sessionsvc.ErrNotAuthenticated),
		errors.Is(err, sessionsvc.ErrAuthenticationRejected):
		return respbuilder.ErrUnauthorized
	case errors.Is(err, batchsvc.ErrUnknownCategory),
		errors.Is(err, batchsvc.ErrUnknownRecipient):
		return respbuilder.ErrResourceNotFound
	case errors.Is(err, composesvc.ErrUnknownTemplate):
		return respbuilder.ErrUnknownTemplate
	default:
		return respbuilder.ErrUnhandled
	}
}

// Fields are the personalization values entered by the operator.
type Fields struct {
	Name          string `json:"name" schema:"name"`
	Roll          string `json:"roll" schema:"roll"`
	Year          string `json:"year" schema:"year"`
	Venue         string `json:"venue" schema:"venue"`
	GroupChatLink string `json:"group_chat_link" schema:"group_chat_link"`
	GroupNumber   string `json:"group_number" schema:"group_number"`
	ContactInfo   string `json:"contact_info" schema:"contact_info"`
}

func (f Fields) ToSvc() composesvc.Fields {
	return composesvc.Fields{
		Name:          f.Name,
		Roll:          f.Roll,
		Year:          f.Year,
		Venue:         f.Venue,
		GroupChatLink: f.GroupChatLink,
		GroupNumber:   f.GroupNumber,
		ContactInfo:   f.ContactInfo,
	}
}

type RecipientEntity struct {
	Salutation string `json:"salutation"`
	Email      string `json:"email"`
}

type CategoryEntity struct {
	Name       string            `json:"name"`
	Code       string            `json:"code"`
	Recipients []RecipientEntity `json:"recipients"`
}

func CategoryEntityFromSvc(category catalogsvc.Category) CategoryEntity {
	recipients := make([]RecipientEntity, 0, len(category.Recipients))
	for _, r := range category.Recipients {
		recipients = append(recipients, RecipientEntity{
			Salutation: r.Salutation,
			Email:      r.Email,
		})
	}

	return CategoryEntity{
		Name:       category.Name,
		Code:       category.Code,
		Recipients: recipients,
	}
}

// SessionEntity never contains the secret.
type SessionEntity struct {
	State   sessionsvc.State `json:"state"`
	Address string           `json:"address,omitempty"`
}

func SessionEntityFromSvc(session *sessionsvc.Session) SessionEntity {
	return SessionEntity{
		State:   session.State(),
		Address: session.Address(),
	}
}
