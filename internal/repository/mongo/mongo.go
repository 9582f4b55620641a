// Package mongo stores the three collections in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

// Open connects, pings and ensures the unique indexes on users.
func Open(ctx context.Context, uri, dbName string) (repository.Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return repository.Store{}, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return repository.Store{}, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	users := db.Collection("users")
	_, err = users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return repository.Store{}, fmt.Errorf("ensure user indexes: %w", err)
	}

	return repository.Store{
		Tickets:  &TicketRepo{coll: db.Collection("tickets")},
		Users:    &UserRepo{coll: users},
		Projects: &ProjectRepo{coll: db.Collection("projects")},
		Ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
		Close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		},
	}, nil
}

// toBSON turns an equality filter into a Mongo filter document.
func toBSON(f query.Filter) bson.M {
	m := bson.M{}
	for k, v := range f {
		if k == "id" {
			k = "_id"
		}
		m[k] = v
	}
	return m
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	}
	return err
}

var byCreated = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
