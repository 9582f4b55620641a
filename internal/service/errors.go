package service

import (
	"errors"

	"go.opentelemetry.io/otel"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

var tracer = otel.Tracer("github.com/arenignacio/venus-bugtracker/internal/service")

// storeErr maps repository sentinels to the typed errors clients see.
// what names the document for not-found messages ("Ticket", "User").
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInvalidID):
		return apperr.InvalidID()
	case errors.Is(err, repository.ErrNotFound):
		return apperr.New(apperr.KindNotFound, what+" does not exist")
	case errors.Is(err, repository.ErrVersionConflict):
		return apperr.Wrap(apperr.KindConflict, what+" was modified concurrently; reload and retry", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Wrap(apperr.KindConflict, what+" already exists", err)
	}
	return apperr.Internal(err)
}

// result is the metrics label for an operation outcome.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.From(err).Kind)
}
