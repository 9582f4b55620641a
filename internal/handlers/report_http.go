package handlers

import (
	"net/http"

	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

// GET /ticket/summary
// Returns: { initiated, assigned, unassigned, resolved, total }
func (h *TicketHTTP) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := h.svc.Summary(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("ticket summary failed")
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, "", counts)
	}
}
