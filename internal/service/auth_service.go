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
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/session"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

var ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")

type AuthService struct {
	users         repository.UserRepository
	sessions      session.Store
	sessionSecret string
	ttl           time.Duration
	audit         *audit.Logger
	log           zerolog.Logger
}

func NewAuthService(users repository.UserRepository, sessions session.Store, sessionSecret string, ttl time.Duration, a *audit.Logger, log zerolog.Logger) *AuthService {
	if a == nil {
		a = audit.Nop()
	}
	return &AuthService{
		users:         users,
		sessions:      sessions,
		sessionSecret: sessionSecret,
		ttl:           ttl,
		audit:         a,
		log:           log,
	}
}

func (a *AuthService) TTL() time.Duration { return a.ttl }

// Login checks the password of the account with the given email or username,
// opens a session and returns the signed token carrying its id.
func (a *AuthService) Login(ctx context.Context, login, password string) (token string, user *models.User, err error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()
	defer func() { metrics.ObserveAccountOp("login", result(err)) }()

	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	u, err := a.users.GetByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, apperr.Internal(err)
	}
	if !utils.CheckPassword(u.PasswordHash, password) {
		a.audit.Record(ctx, models.ActorOf(u), "login", "session", "", "denied")
		return "", nil, ErrInvalidCredentials
	}

	sid, err := a.sessions.Create(ctx, u.ID)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, u.Role, sid, a.ttl)
	if err != nil {
		_ = a.sessions.Revoke(ctx, sid)
		return "", nil, apperr.Internal(err)
	}
	a.audit.Record(ctx, models.ActorOf(u), "login", "session", sid, "ok")
	return tok, u, nil
}

func (a *AuthService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := a.sessions.Revoke(ctx, sid); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Authenticate resolves a token to the live account behind it. A revoked
// session or a deleted account is reported as Unauthorized.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*models.User, string, error) {
	claims, err := utils.ParseJWT(a.sessionSecret, token)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindUnauthorized, "Invalid session", err)
	}
	uid, err := a.sessions.Lookup(ctx, claims.ID)
	if errors.Is(err, session.ErrNoSession) {
		return nil, "", apperr.Unauthorized("Session expired")
	}
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	if uid != claims.UserID {
		return nil, "", apperr.Unauthorized("Invalid session")
	}
	u, err := a.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
		_ = a.sessions.Revoke(ctx, claims.ID)
		return nil, "", apperr.Unauthorized("Unauthorized user")
	}
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return u, claims.ID, nil
}
