package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

func New(db *pgxpool.Pool) repository.Store {
	return repository.Store{
		Tickets:  NewTicketRepo(db),
		Users:    NewUserRepo(db),
		Projects: NewProjectRepo(db),
		Ping:     db.Ping,
		Close:    db.Close,
	}
}

// buildDocWhere composes a WHERE clause matching every filter entry exactly.
// "id" compares the key column; other fields are dotted paths inside doc.
func buildDocWhere(f query.Filter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	for _, k := range f.Keys() {
		if k == "id" {
			args = append(args, f[k])
			clauses = append(clauses, "id::text = $"+itoa(len(args)))
			continue
		}
		args = append(args, strings.Split(k, "."), f[k])
		clauses = append(clauses, "doc #>> $"+itoa(len(args)-1)+"::text[] = $"+itoa(len(args)))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// mapErr folds driver errors into the repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrDuplicate
	}
	return err
}

func itoa(i int) string { return strconv.Itoa(i) }

// exists distinguishes "not there" from "there but stale" after a guarded update.
func exists(ctx context.Context, db *pgxpool.Pool, table, id string) (bool, error) {
	var ok bool
	err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}
