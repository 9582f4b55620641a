package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

type ProjectRepo struct{ db *pgxpool.Pool }

func NewProjectRepo(db *pgxpool.Pool) *ProjectRepo { return &ProjectRepo{db: db} }

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO projects (id, doc) VALUES ($1, $2)`, p.ID, doc)
	return mapErr(err)
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*models.Project, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	var doc []byte
	if err := r.db.QueryRow(ctx, `SELECT doc FROM projects WHERE id = $1`, id).Scan(&doc); err != nil {
		return nil, mapErr(err)
	}
	var p models.Project
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.ID = id
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	if err := repository.CheckID(p.ID); err != nil {
		return err
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	ct, err := r.db.Exec(ctx, `UPDATE projects SET doc = $1 WHERE id = $2`, doc, p.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
