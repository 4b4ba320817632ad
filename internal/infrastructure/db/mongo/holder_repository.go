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

const collectionHolders = "holders"

type HolderRepository struct {
	col *mongo.Collection
}

func NewHolderRepository(db *mongo.Database) *HolderRepository {
	return &HolderRepository{col: db.Collection(collectionHolders)}
}

// Insert persists a holder record. The unique (order_id, executor_id)
// index backs the in-process idempotency check: a duplicate surfaces as
// domain.ErrConflict.
func (r *HolderRepository) Insert(ctx context.Context, h domain.Holder) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, h)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	return writeFault(err)
}

// Find returns the holder record for the pair, or nil when absent.
func (r *HolderRepository) Find(ctx context.Context, orderID, executorID string) (*domain.Holder, error) {
	var (
		h     domain.Holder
		found bool
	)
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		err := r.col.FindOne(ctx, bson.M{"order_id": orderID, "executor_id": executorID}).Decode(&h)
		if errors.Is(err, mongo.ErrNoDocuments) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &h, nil
}

// CountByOrder derives the current holder count from the records.
func (r *HolderRepository) CountByOrder(ctx context.Context, orderID string) (int, error) {
	var count int
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		n, err := r.col.CountDocuments(ctx, bson.M{"order_id": orderID})
		if err != nil {
			return err
		}
		count = int(n)
		return nil
	})
	return count, err
}

// ListByOrder returns all holder records for the order, oldest first.
func (r *HolderRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Holder, error) {
	var holders []domain.Holder
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: 1}})
		cur, err := r.col.Find(ctx, bson.M{"order_id": orderID}, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		holders = nil
		return cur.All(ctx, &holders)
	})
	if err != nil {
		return nil, err
	}
	return holders, nil
}

// EnsureIndexes creates the necessary indexes on the holders collection.
func (r *HolderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}, {Key: "executor_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "executor_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
