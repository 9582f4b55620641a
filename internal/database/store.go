package database

import (
	"context"
	"fmt"

	"github.com/arenignacio/venus-bugtracker/internal/config"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/repository/memory"
	mongostore "github.com/arenignacio/venus-bugtracker/internal/repository/mongo"
	"github.com/arenignacio/venus-bugtracker/internal/repository/postgres"
)

// OpenStore connects the document store selected by STORE.
func OpenStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.Store {
	case "postgres":
		pool, err := Open(ctx, cfg)
		if err != nil {
			return repository.Store{}, err
		}
		return postgres.New(pool), nil
	case "mongo":
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	case "memory":
		return memory.New(), nil
	}
	return repository.Store{}, fmt.Errorf("unknown store %q", cfg.Store)
}
