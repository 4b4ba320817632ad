package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
)

const collectionLedger = "ledger_entries"

// LedgerRepository owns the authoritative balance field on the actors
// collection and the append-only ledger_entries collection.
type LedgerRepository struct {
	actors  *mongo.Collection
	entries *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		actors:  db.Collection(collectionActors),
		entries: db.Collection(collectionLedger),
	}
}

// DebitIfSufficient decrements the balance only when it covers the amount.
// The balance guard lives in the update filter, so the check and the
// decrement are one storage operation: two concurrent debits can never
// both pass against a stale read.
func (r *LedgerRepository) DebitIfSufficient(ctx context.Context, actorID string, amount int64, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Actor
	err := r.actors.FindOneAndUpdate(ctx,
		bson.M{"_id": actorID, "balance": bson.M{"$gte": amount}},
		bson.M{"$inc": bson.M{"balance": -amount}, "$set": bson.M{"updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, cerr := r.actors.CountDocuments(ctx, bson.M{"_id": actorID})
			if cerr != nil {
				return 0, writeFault(cerr)
			}
			if n == 0 {
				return 0, domain.ErrActorNotFound
			}
			return 0, domain.ErrInsufficientBalance
		}
		return 0, writeFault(err)
	}
	return a.Balance, nil
}

// Credit increments the balance and returns the new value.
func (r *LedgerRepository) Credit(ctx context.Context, actorID string, amount int64, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Actor
	err := r.actors.FindOneAndUpdate(ctx,
		bson.M{"_id": actorID},
		bson.M{"$inc": bson.M{"balance": amount}, "$set": bson.M{"updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrActorNotFound
		}
		return 0, writeFault(err)
	}
	return a.Balance, nil
}

// InsertEntry appends one audit entry, assigning an opaque id when unset.
func (r *LedgerRepository) InsertEntry(ctx context.Context, e *domain.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if e.ID == "" {
		e.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.entries.InsertOne(ctx, e)
	return writeFault(err)
}

// ListEntries pages newest-first through an actor's entries. The cursor is
// compound: strictly older created_at, or the same created_at with a
// smaller id, so entries sharing a timestamp across a page cut are kept.
func (r *LedgerRepository) ListEntries(ctx context.Context, actorID string, cursor ports.EntryCursor, limit int) ([]domain.Entry, error) {
	query := bson.M{"actor_id": actorID}
	if !cursor.IsZero() {
		query["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": cursor.CreatedAt}},
			bson.M{"created_at": cursor.CreatedAt, "_id": bson.M{"$lt": cursor.ID}},
		}
	}

	var entries []domain.Entry
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(limit))

		cur, err := r.entries.Find(ctx, query, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		entries = nil
		return cur.All(ctx, &entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureIndexes creates the necessary indexes on the ledger collection.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
	}

	_, err := r.entries.Indexes().CreateMany(ctx, indexes)
	return err
}
