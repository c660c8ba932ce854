package middleware

import (
	"net/http"

	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/rs/zerolog"
)

// Session attaches the caller's session state and forwards the browser
// cookies to backend calls made while serving the request.
func Session(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var id string
			if c, err := req.Cookie(session.CookieName); err == nil {
				id = c.Value
			}

			state := store.Get(id)
			if state.ID != id {
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    state.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := session.WithState(req.Context(), state)
			ctx = client.WithCredentials(ctx, req.Header.Get("Cookie"))

			logger := zerolog.Ctx(ctx).With().Str("session", state.ID).Logger()
			ctx = logger.WithContext(ctx)

			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
