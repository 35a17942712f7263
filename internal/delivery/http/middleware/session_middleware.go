package middleware

import (
	"context"
	"net/http"

	"storefront/config"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// SessionCookieName holds the signed anonymous session token.
const SessionCookieName = "storefrontSession"

type sessionKey struct{}

// SessionID returns the session bound by NewSessionMiddleware, or "".
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// WithSessionID binds sid to ctx.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

// NewSessionMiddleware binds every request to a browsing session. A missing,
// tampered or expired cookie starts a fresh session; it never rejects the
// request.
func NewSessionMiddleware(signer *utils.SessionSigner, cfg *config.Config) func(http.Handler) http.Handler {
	secure := cfg.Env == "production"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if verified, err := signer.Verify(cookie.Value); err == nil {
					sid = verified
				} else {
					logger.Debug().Err(err).Msg("Discarding invalid session cookie")
				}
			}

			if sid == "" {
				newSID, token, err := signer.Issue()
				if err != nil {
					logger.Error().Err(err).Msg("Failed to issue session")
					utils.WriteError(w, http.StatusInternalServerError, "Failed to start session")
					return
				}
				sid = newSID
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.SessionTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
		})
	}
}
