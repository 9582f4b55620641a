package middleware

import (
	"net/http"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

// RequireAuth blocks when no actor is present in context (set by WithAuth).
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if utils.ActorFrom(r.Context()) == nil {
			utils.Error(w, http.StatusUnauthorized, apperr.KindUnauthorized, "Unauthorized user")
			return
		}
		next.ServeHTTP(w, r)
	})
}
