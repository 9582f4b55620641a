package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

// UserRepo keeps the bcrypt hash in password_h; the JSON document never holds it.
type UserRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) *UserRepo { return &UserRepo{db: db} }

const userCols = `id::text, password_h, doc`

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = repository.NewID()
	}
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO users (id, email, username, password_h, created_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt, doc)
	return mapErr(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE lower(email) = $1 OR lower(username) = $1`, login)
}

func (r *UserRepo) one(ctx context.Context, sql string, args ...any) (*models.User, error) {
	var (
		id, hash string
		doc      []byte
	)
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id, &hash, &doc); err != nil {
		return nil, mapErr(err)
	}
	return decodeUser(id, hash, doc)
}

func (r *UserRepo) Find(ctx context.Context, f query.Filter) ([]models.User, error) {
	if id, ok := f["id"]; ok && repository.CheckID(id) != nil {
		return []models.User{}, nil
	}
	whereSQL, args := buildDocWhere(f)
	rows, err := r.db.Query(ctx, `SELECT `+userCols+` FROM users `+whereSQL+` ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		var (
			id, hash string
			doc      []byte
		)
		if err := rows.Scan(&id, &hash, &doc); err != nil {
			return nil, err
		}
		u, err := decodeUser(id, hash, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Update replaces the account fields; stored notifications are left untouched.
func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	if err := repository.CheckID(u.ID); err != nil {
		return err
	}
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE users SET email = $1, username = $2, password_h = $3,
			doc = jsonb_set($4::jsonb, '{notifications}', COALESCE(doc->'notifications', '[]'::jsonb))
		WHERE id = $5
	`, u.Email, u.Username, u.PasswordHash, doc, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if err := repository.CheckID(id); err != nil {
		return err
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) PushNotification(ctx context.Context, email string, n models.Notification) error {
	if n.Date.IsZero() {
		n.Date = time.Now().UTC()
	}
	item, err := json.Marshal([]models.Notification{n})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE users SET doc = jsonb_set(doc, '{notifications}',
			CASE WHEN jsonb_typeof(doc->'notifications') = 'array'
				THEN doc->'notifications' ELSE '[]'::jsonb END || $1::jsonb)
		WHERE lower(email) = lower($2)
	`, item, email)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func decodeUser(id, hash string, doc []byte) (*models.User, error) {
	var u models.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	u.ID = id
	u.PasswordHash = hash
	if u.Notifications == nil {
		u.Notifications = []models.Notification{}
	}
	return &u, nil
}
