package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/audit"
	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/observability/metrics"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

const (
	MsgUserUpdated = "User successfully updated"
	MsgUserDeleted = "User successfully deleted"

	minPasswordLen = 6
)

type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// UserPatch replaces the provided (non-nil) fields of an account.
type UserPatch struct {
	ID        string  `json:"id"`
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Phone     *string `json:"phone"`
	Role      *string `json:"role"`
}

type UserService struct {
	users repository.UserRepository
	audit *audit.Logger
	log   zerolog.Logger
	now   func() time.Time
}

func NewUserService(users repository.UserRepository, a *audit.Logger, log zerolog.Logger) *UserService {
	if a == nil {
		a = audit.Nop()
	}
	return &UserService{
		users: users,
		audit: a,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account. actor may be nil for self-registration;
// only an admin actor can create another admin.
func (s *UserService) Register(ctx context.Context, in RegisterInput, actor *models.Actor) (u *models.User, err error) {
	ctx, span := tracer.Start(ctx, "user.register")
	defer span.End()
	defer func() { metrics.ObserveAccountOp("register", result(err)) }()

	email := utils.NormalizeEmail(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = models.RoleEngineer
	}

	var c utils.Checker
	c.Check(utils.IsEmail(email), "email", "must be a valid email", email)
	c.Check(utils.IsAlphanumeric(username), "username", "must be alphanumeric", username)
	c.Check(len(in.Password) >= minPasswordLen, "password", "must be at least 6 characters", "")
	c.Check(role == models.RoleEngineer || role == models.RoleAdmin, "role", "must be engineer or admin", role)
	if err := c.Err(); err != nil {
		return nil, err
	}
	if role == models.RoleAdmin && !actor.IsAdmin() {
		return nil, apperr.Unauthorized("Only an admin can register an admin")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := s.now()
	u = &models.User{
		Username:      username,
		Email:         email,
		FirstName:     utils.CleanText(in.FirstName),
		LastName:      utils.CleanText(in.LastName),
		Phone:         strings.TrimSpace(in.Phone),
		Role:          role,
		PasswordHash:  hash,
		Notifications: []models.Notification{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			s.log.Error().Err(err).Str("email", email).Msg("register user failed")
		}
		return nil, storeErr(err, "User")
	}
	s.audit.Record(ctx, actor, "register", "user", u.ID, role)
	return u, nil
}

// Update replaces the provided fields of the account named by p.ID, or the
// actor's own account when p.ID is empty.
func (s *UserService) Update(ctx context.Context, actor *models.Actor, p UserPatch) (u *models.User, err error) {
	ctx, span := tracer.Start(ctx, "user.update")
	defer span.End()
	defer func() { metrics.ObserveAccountOp("update", result(err)) }()

	if actor == nil {
		return nil, apperr.Unauthorized("Unauthorized user")
	}
	target := strings.TrimSpace(p.ID)
	if target == "" {
		target = actor.ID
	}
	if !actor.CanActOn(target) {
		return nil, apperr.Unauthorized("Unauthorized action")
	}

	var c utils.Checker
	if p.Email != nil {
		c.Check(utils.IsEmail(utils.NormalizeEmail(*p.Email)), "email", "must be a valid email", *p.Email)
	}
	if p.Username != nil {
		c.Check(utils.IsAlphanumeric(strings.TrimSpace(*p.Username)), "username", "must be alphanumeric", *p.Username)
	}
	if p.Password != nil {
		c.Check(len(*p.Password) >= minPasswordLen, "password", "must be at least 6 characters", "")
	}
	var role string
	if p.Role != nil {
		role = strings.ToLower(strings.TrimSpace(*p.Role))
		c.Check(role == models.RoleEngineer || role == models.RoleAdmin, "role", "must be engineer or admin", role)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	u, err = s.users.GetByID(ctx, target)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	if p.Role != nil && role != u.Role && !actor.IsAdmin() {
		return nil, apperr.Unauthorized("Only an admin can change roles")
	}

	if p.Email != nil {
		u.Email = utils.NormalizeEmail(*p.Email)
	}
	if p.Username != nil {
		u.Username = strings.ToLower(strings.TrimSpace(*p.Username))
	}
	if p.FirstName != nil {
		u.FirstName = utils.CleanText(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = utils.CleanText(*p.LastName)
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Role != nil {
		u.Role = role
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, storeErr(err, "User")
	}
	s.audit.Record(ctx, actor, "update", "user", u.ID, "ok")
	return u, nil
}

// Delete removes an account. A missing or malformed id yields "Invalid ID".
func (s *UserService) Delete(ctx context.Context, actor *models.Actor, id string) (err error) {
	ctx, span := tracer.Start(ctx, "user.delete")
	defer span.End()
	defer func() { metrics.ObserveAccountOp("delete", result(err)) }()

	if actor == nil {
		return apperr.Unauthorized("Unauthorized user")
	}
	if !actor.CanActOn(id) {
		return apperr.Unauthorized("Unauthorized action")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return apperr.InvalidID()
		}
		return apperr.Internal(err)
	}
	s.audit.Record(ctx, actor, "delete", "user", id, "ok")
	return nil
}

func (s *UserService) Find(ctx context.Context, f query.Filter) ([]models.User, error) {
	f, err := query.UserSchema.Validate(f)
	if err != nil {
		return nil, err
	}
	out, err := s.users.Find(ctx, f)
	if err != nil {
		s.log.Error().Err(err).Msg("find users failed")
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	return u, nil
}
