package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/srochno/order-exchange/internal/core/domain"
)

const collectionActors = "actors"

type ActorRepository struct {
	col *mongo.Collection
}

func NewActorRepository(db *mongo.Database) *ActorRepository {
	return &ActorRepository{col: db.Collection(collectionActors)}
}

// Create inserts a new actor document.
func (r *ActorRepository) Create(ctx context.Context, a *domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrActorExists
	}
	return writeFault(err)
}

// FindByID retrieves an actor by identifier.
func (r *ActorRepository) FindByID(ctx context.Context, id string) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByUsername retrieves an actor by username.
func (r *ActorRepository) FindByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *ActorRepository) findOne(ctx context.Context, filter bson.M) (*domain.Actor, error) {
	var a domain.Actor
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		if err := r.col.FindOne(ctx, filter).Decode(&a); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrActorNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// IncrementCompleted bumps the completed-order counter for each actor.
func (r *ActorRepository) IncrementCompleted(ctx context.Context, actorIDs []string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": actorIDs}},
		bson.M{"$inc": bson.M{"completed_orders": 1}, "$set": bson.M{"updated_at": at}},
	)
	return writeFault(err)
}

// EnsureIndexes creates the necessary indexes on the actors collection.
func (r *ActorRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
