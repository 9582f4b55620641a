// Package audit writes one structured line per account or ticket mutation.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arenignacio/venus-bugtracker/internal/models"
)

type Logger struct {
	log zerolog.Logger
}

func New(l zerolog.Logger) *Logger {
	return &Logger{log: l.With().Str("component", "audit").Logger()}
}

// Nop discards every entry.
func Nop() *Logger { return &Logger{log: zerolog.Nop()} }

func (a *Logger) Record(ctx context.Context, actor *models.Actor, action, resource, resourceID, result string) {
	ev := a.log.Info().
		Str("action", action).
		Str("resource", resource).
		Str("resource_id", resourceID).
		Str("result", result)
	if actor != nil {
		ev = ev.Str("actor_id", actor.ID).Str("actor_email", actor.Email)
	}
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		ev = ev.Str("request_id", reqID)
	}
	ev.Msg("audit")
}

type ctxKey string

// RequestIDKey is where the request logger middleware stores the request id.
const RequestIDKey ctxKey = "request_id"
