package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

type TicketRepo struct{ db *pgxpool.Pool }

func NewTicketRepo(db *pgxpool.Pool) *TicketRepo { return &TicketRepo{db: db} }

func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	if t.ID == "" {
		t.ID = repository.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.Version = 1
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO tickets (id, version, created_at, doc)
		VALUES ($1, $2, $3, $4)
	`, t.ID, t.Version, t.CreatedAt, doc)
	return mapErr(err)
}

func (r *TicketRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	var (
		doc     []byte
		version int64
	)
	err := r.db.QueryRow(ctx, `SELECT version, doc FROM tickets WHERE id = $1`, id).Scan(&version, &doc)
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeTicket(id, version, doc)
}

func (r *TicketRepo) Find(ctx context.Context, f query.Filter) ([]models.Ticket, error) {
	if id, ok := f["id"]; ok && repository.CheckID(id) != nil {
		// a malformed id cannot match the uuid column
		return []models.Ticket{}, nil
	}
	whereSQL, args := buildDocWhere(f)
	rows, err := r.db.Query(ctx, `
		SELECT id::text, version, doc FROM tickets `+whereSQL+`
		ORDER BY created_at ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		var (
			id      string
			version int64
			doc     []byte
		)
		if err := rows.Scan(&id, &version, &doc); err != nil {
			return nil, err
		}
		t, err := decodeTicket(id, version, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TicketRepo) Save(ctx context.Context, t *models.Ticket) error {
	if err := repository.CheckID(t.ID); err != nil {
		return err
	}
	next := *t
	next.Version = t.Version + 1
	doc, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE tickets SET doc = $1, version = $2
		WHERE id = $3 AND version = $4
	`, doc, next.Version, t.ID, t.Version)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		ok, err := exists(ctx, r.db, "tickets", t.ID)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}
	t.Version = next.Version
	return nil
}

func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	if err := repository.CheckID(id); err != nil {
		return err
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// decodeTicket trusts the key columns over whatever the document carries.
func decodeTicket(id string, version int64, doc []byte) (*models.Ticket, error) {
	var t models.Ticket
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", id, err)
	}
	t.ID = id
	t.Version = version
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	return &t, nil
}
