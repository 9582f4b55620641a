package utils

import (
	"context"

	"github.com/arenignacio/venus-bugtracker/internal/models"
)

type ctxKey string

const (
	ctxActor     ctxKey = "actor"
	ctxSessionID ctxKey = "sid"
)

func GetString(ctx context.Context, key any) (string, bool) {
	v := ctx.Value(key)
	s, ok := v.(string)
	return s, ok
}

// WithActor stores the authenticated identity and its session id.
func WithActor(ctx context.Context, a *models.Actor, sid string) context.Context {
	ctx = context.WithValue(ctx, ctxActor, a)
	return context.WithValue(ctx, ctxSessionID, sid)
}

// ActorFrom returns the authenticated actor, or nil for anonymous requests.
func ActorFrom(ctx context.Context) *models.Actor {
	a, _ := ctx.Value(ctxActor).(*models.Actor)
	return a
}

func SessionIDFrom(ctx context.Context) string {
	s, _ := GetString(ctx, ctxSessionID)
	return s
}
