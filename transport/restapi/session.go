package restapi

import (
	"net/http"

	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
	"github.com/yusufsyaifudin/ngundang/transport/restapi/httptyped"
	"github.com/yusufsyaifudin/ylog"
)

// sessionResolver finds the operator session by cookie, a new one is created when the cookie is
// missing or the session already expired.
func sessionResolver(store *sessionsvc.Store, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var id string
		if cookie, err := r.Cookie(httptyped.SessionCookieName); err == nil {
			id = cookie.Value
		}

		id, session, created := store.GetOrCreate(id)
		if created {
			ylog.Debug(ctx, "new operator session", ylog.KV("sessions", store.Len()))
		}

		// always refresh, the browser keeps the cookie only for the session
		http.SetCookie(w, &http.Cookie{
			Name:     httptyped.SessionCookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteStrictMode,
		})

		next.ServeHTTP(w, r.WithContext(httptyped.InjectSession(ctx, session)))
	}
}
