package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
)

type TicketRepo struct{ coll *mongo.Collection }

func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	if t.ID == "" {
		t.ID = repository.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.Version = 1
	_, err := r.coll.InsertOne(ctx, t)
	return mapErr(err)
}

func (r *TicketRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	var t models.Ticket
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *TicketRepo) Find(ctx context.Context, f query.Filter) ([]models.Ticket, error) {
	cur, err := r.coll.Find(ctx, toBSON(f), byCreated)
	if err != nil {
		return nil, err
	}
	out := []models.Ticket{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TicketRepo) Save(ctx context.Context, t *models.Ticket) error {
	if err := repository.CheckID(t.ID); err != nil {
		return err
	}
	next := *t
	next.Version = t.Version + 1
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": t.ID, "version": t.Version}, &next)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": t.ID})
		if err != nil {
			return err
		}
		if n == 0 {
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
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type UserRepo struct{ coll *mongo.Collection }

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = repository.NewID()
	}
	_, err := r.coll.InsertOne(ctx, u)
	return mapErr(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	return r.one(ctx, bson.M{"_id": id})
}

func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.one(ctx, bson.M{"$or": bson.A{bson.M{"email": login}, bson.M{"username": login}}})
}

func (r *UserRepo) one(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepo) Find(ctx context.Context, f query.Filter) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, toBSON(f), byCreated)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update sets the account fields; stored notifications are left untouched.
func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	if err := repository.CheckID(u.ID); err != nil {
		return err
	}
	set := bson.M{
		"username":   u.Username,
		"email":      u.Email,
		"firstname":  u.FirstName,
		"lastname":   u.LastName,
		"phone":      u.Phone,
		"role":       u.Role,
		"password":   u.PasswordHash,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if err := repository.CheckID(id); err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) PushNotification(ctx context.Context, email string, n models.Notification) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$push": bson.M{"notifications": n}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type ProjectRepo struct{ coll *mongo.Collection }

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return mapErr(err)
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*models.Project, error) {
	if err := repository.CheckID(id); err != nil {
		return nil, err
	}
	var p models.Project
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	if err := repository.CheckID(p.ID); err != nil {
		return err
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
