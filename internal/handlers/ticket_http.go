package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/service"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

const maxBody = 1 << 20

// decode reads a JSON body into v. An empty body is accepted when optional is set.
func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	utils.Error(w, http.StatusBadRequest, apperr.KindValidation, "invalid json")
	return false
}

// TicketHTTP wires the /ticket endpoints to the ticket service.
type TicketHTTP struct {
	svc *service.TicketService
	log zerolog.Logger
}

func NewTicketHTTP(s *service.TicketService, log zerolog.Logger) *TicketHTTP {
	return &TicketHTTP{svc: s, log: log}
}

// POST /ticket/create-ticket
func (h *TicketHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.TicketInput
		if !decode(w, r, &in, false) {
			return
		}
		t, err := h.svc.Create(r.Context(), in, utils.ActorFrom(r.Context()))
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusCreated, service.MsgTicketCreated, t)
	}
}

// GET /ticket/query?k=v&...
func (h *TicketHTTP) Query() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.svc.Find(r.Context(), query.FromRawQuery(r.URL.RawQuery))
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, "", items)
	}
}

// GET /ticket/{id}
func (h *TicketHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, "", t)
	}
}

// PUT /ticket/{id}
func (h *TicketHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p service.TicketPatch
		if !decode(w, r, &p, false) {
			return
		}
		t, err := h.svc.Edit(r.Context(), chi.URLParam(r, "id"), p, utils.ActorFrom(r.Context()))
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, "Ticket successfully updated", t)
	}
}

// DELETE /ticket/{id}
func (h *TicketHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), utils.ActorFrom(r.Context()))
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, msg, nil)
	}
}

// POST /ticket/{id}/comments
func (h *TicketHTTP) AddComment() http.HandlerFunc {
	type inDTO struct {
		Content string `json:"content"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if !decode(w, r, &in, false) {
			return
		}
		comments, err := h.svc.AddComment(r.Context(), chi.URLParam(r, "id"), in.Content, utils.ActorFrom(r.Context()))
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusCreated, "Comment added", comments)
	}
}
