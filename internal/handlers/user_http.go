package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/service"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

type UserHTTP struct {
	svc *service.UserService
}

func NewUserHTTP(s *service.UserService) *UserHTTP {
	return &UserHTTP{svc: s}
}

// POST /user/register
func (h *UserHTTP) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterInput
		if !decode(w, r, &in, false) {
			return
		}
		u, err := h.svc.Register(r.Context(), in, utils.ActorFrom(r.Context()))
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusCreated, "User successfully registered", u)
	}
}

// PUT /user/update
// Body fields replace the stored ones; "id" picks another account (admin only).
func (h *UserHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p service.UserPatch
		if !decode(w, r, &p, false) {
			return
		}
		u, err := h.svc.Update(r.Context(), utils.ActorFrom(r.Context()), p)
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, service.MsgUserUpdated, u)
	}
}

// DELETE /user/{id}
func (h *UserHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Delete(r.Context(), utils.ActorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, service.MsgUserDeleted, nil)
	}
}

// GET /user/query?k=v
// A JSON object body is accepted too; its keys win over the query string.
func (h *UserHTTP) Query() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if !decode(w, r, &body, true) {
			return
		}
		f := query.FromRawQuery(r.URL.RawQuery).Merge(body)
		items, err := h.svc.Find(r.Context(), f)
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, "", items)
	}
}
