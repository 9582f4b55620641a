package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

// Health reports whether the document store answers a ping.
func Health(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			utils.Error(w, http.StatusServiceUnavailable, apperr.KindInternal, "store unavailable")
			return
		}
		utils.OK(w, http.StatusOK, "", map[string]string{"status": "ok"})
	}
}
