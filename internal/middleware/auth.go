package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

// SessionCookie carries the signed session token.
const SessionCookie = "session"

// Authenticator resolves a session token to the account behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, string, error)
}

// TokenFrom reads the token from the session cookie or an Authorization: Bearer header.
func TokenFrom(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		Expires:  time.Now().Add(ttl),
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// WithAuth attaches the actor of a live session to the request context.
// Requests without a valid session continue anonymously; handlers decide.
func WithAuth(log zerolog.Logger, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFrom(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, sid, err := auth.Authenticate(r.Context(), tok)
			if err != nil {
				log.Debug().Err(err).Msg("session rejected")
				// clear broken/expired cookie so it stops being sent
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := utils.WithActor(r.Context(), models.ActorOf(u), sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
