package utils

import (
	"encoding/json"
	"net/http"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
)

// Envelope is the single response shape of the API:
// {ok, message, data} on success, {ok:false, error} on failure.
type Envelope struct {
	OK      bool          `json:"ok"`
	Message string        `json:"message,omitempty"`
	Data    any           `json:"data,omitempty"`
	Error   *apperr.Error `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, msg string, data any) {
	JSON(w, status, Envelope{OK: true, Message: msg, Data: data})
}

// Fail writes err as an error envelope with the status its kind maps to.
func Fail(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	JSON(w, e.Status(), Envelope{OK: false, Error: e})
}

// Error writes an ad hoc error envelope for boundary failures such as bad JSON.
func Error(w http.ResponseWriter, status int, kind apperr.Kind, msg string) {
	JSON(w, status, Envelope{OK: false, Error: apperr.New(kind, msg)})
}
