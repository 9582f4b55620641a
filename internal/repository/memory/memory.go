// Package memory is an in-process document store. It backs STORE=memory and
// the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

func New() repository.Store {
	return repository.Store{
		Tickets:  NewTicketRepo(),
		Users:    NewUserRepo(),
		Projects: NewProjectRepo(),
		Ping:     func(context.Context) error { return nil },
		Close:    func() {},
	}
}

type fielder interface {
	Field(path string) (string, bool)
}

func matches(doc fielder, f query.Filter) bool {
	for k, want := range f {
		got, ok := doc.Field(k)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// tickets
// ---------------------------------------------------------------------------

type TicketRepo struct {
	mu    sync.RWMutex
	items map[string]*models.Ticket
}

func NewTicketRepo() *TicketRepo { return &TicketRepo{items: map[string]*models.Ticket{}} }

func (r *TicketRepo) Create(_ context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = repository.NewID()
	}
	t.Version = 1
	r.items[t.ID] = t.Clone()
	return nil
}

func (r *TicketRepo) Get(_ context.Context, id string) (*models.Ticket, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *TicketRepo) Find(_ context.Context, f query.Filter) ([]models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Ticket{}
	for _, t := range r.items {
		if matches(t, f) {
			out = append(out, *t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *TicketRepo) Save(_ context.Context, t *models.Ticket) error {
	if err := repository.CheckID(t.ID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Version != t.Version {
		return repository.ErrVersionConflict
	}
	t.Version++
	r.items[t.ID] = t.Clone()
	return nil
}

func (r *TicketRepo) Delete(_ context.Context, id string) error {
	if err := repository.CheckID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// ---------------------------------------------------------------------------
// users
// ---------------------------------------------------------------------------

type UserRepo struct {
	mu    sync.RWMutex
	items map[string]*models.User
}

func NewUserRepo() *UserRepo { return &UserRepo{items: map[string]*models.User{}} }

// taken reports whether another user already owns the email or username.
func (r *UserRepo) taken(u *models.User) bool {
	for id, o := range r.items {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(o.Email, u.Email) || strings.EqualFold(o.Username, u.Username) {
			return true
		}
	}
	return false
}

func (r *UserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = repository.NewID()
	}
	if r.taken(u) {
		return repository.ErrDuplicate
	}
	r.items[u.ID] = u.Clone()
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepo) GetByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.items {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) Find(_ context.Context, f query.Filter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.User{}
	for _, u := range r.items {
		if matches(u, f) {
			out = append(out, *u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update replaces the account fields; stored notifications are left untouched.
func (r *UserRepo) Update(_ context.Context, u *models.User) error {
	if err := repository.CheckID(u.ID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.taken(u) {
		return repository.ErrDuplicate
	}
	// notifications only grow through PushNotification
	next := u.Clone()
	next.Notifications = cur.Notifications
	r.items[u.ID] = next
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	if err := repository.CheckID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *UserRepo) PushNotification(_ context.Context, email string, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if strings.EqualFold(u.Email, email) {
			u.Notifications = append(u.Notifications, n)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---------------------------------------------------------------------------
// projects
// ---------------------------------------------------------------------------

type ProjectRepo struct {
	mu    sync.RWMutex
	items map[string]*models.Project
}

func NewProjectRepo() *ProjectRepo { return &ProjectRepo{items: map[string]*models.Project{}} }

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Members = append([]models.Member{}, p.Members...)
	return &c
}

func (r *ProjectRepo) Create(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	r.items[p.ID] = cloneProject(p)
	return nil
}

func (r *ProjectRepo) Get(_ context.Context, id string) (*models.Project, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProject(p), nil
}

func (r *ProjectRepo) Update(_ context.Context, p *models.Project) error {
	if err := repository.CheckID(p.ID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[p.ID] = cloneProject(p)
	return nil
}
