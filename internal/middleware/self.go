package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

// RequireSelfOrRoles allows if {id} is the actor's own id OR the actor has any of the given roles.
func RequireSelfOrRoles(roles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := utils.ActorFrom(r.Context())
			if a == nil {
				utils.Error(w, http.StatusUnauthorized, apperr.KindUnauthorized, "Unauthorized user")
				return
			}
			if _, ok := roleSet[a.Role]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if chi.URLParam(r, "id") == a.ID {
				next.ServeHTTP(w, r)
				return
			}
			utils.Error(w, http.StatusUnauthorized, apperr.KindUnauthorized, "Unauthorized action")
		})
	}
}
