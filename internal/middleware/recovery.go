package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

func Recoverer(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).
						Str("path", r.URL.Path).Msg("panic")
					utils.Error(w, http.StatusInternalServerError, apperr.KindInternal, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
