package repository

import (
	"context"
	"errors"

	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/query"
)

var (
	// ErrNotFound means no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID means the id can never name a document (malformed).
	ErrInvalidID = errors.New("invalid id")
	// ErrVersionConflict means the stored version moved since the caller read it.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicate means a unique field (email, username) is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// TicketRepository stores tickets. Save is guarded by Ticket.Version: it succeeds
// only when the stored version equals t.Version, and bumps it on success.
type TicketRepository interface {
	Create(ctx context.Context, t *models.Ticket) error
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Find(ctx context.Context, f query.Filter) ([]models.Ticket, error)
	Save(ctx context.Context, t *models.Ticket) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByLogin looks a user up by email or username.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	Find(ctx context.Context, f query.Filter) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	// PushNotification appends to the notifications of the user with the given email.
	PushNotification(ctx context.Context, email string, n models.Notification) error
}

type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) error
}

// Store bundles the three collections of one backend.
type Store struct {
	Tickets  TicketRepository
	Users    UserRepository
	Projects ProjectRepository
	Ping     func(ctx context.Context) error
	Close    func()
}
