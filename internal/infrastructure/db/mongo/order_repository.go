package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
)

const collectionOrders = "orders"

type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

// Create inserts a new order document.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	return writeFault(err)
}

// FindByID retrieves an order by its identifier.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrOrderNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// HasActiveByContact reports whether an active order already uses the contact.
func (r *OrderRepository) HasActiveByContact(ctx context.Context, contact string) (bool, error) {
	var inUse bool
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		n, err := r.col.CountDocuments(ctx, bson.M{"contact": contact, "status": domain.StatusActive})
		if err != nil {
			return err
		}
		inUse = n > 0
		return nil
	})
	return inUse, err
}

// List returns a page of orders matching filter and the total count, newest first.
func (r *OrderRepository) List(ctx context.Context, filter ports.ListOrdersFilter) ([]*domain.Order, int64, error) {
	query := bson.M{}
	if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.City != "" {
		query["city"] = filter.City
	}

	var (
		orders []*domain.Order
		total  int64
	)
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		n, err := r.col.CountDocuments(ctx, query)
		if err != nil {
			return err
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64(filter.Offset)).
			SetLimit(int64(filter.Limit))

		cur, err := r.col.Find(ctx, query, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		orders = nil
		if err := cur.All(ctx, &orders); err != nil {
			return err
		}
		total = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListActive returns up to limit active orders with id > afterID, in id
// order, for the lifecycle sweep's bounded scan.
func (r *OrderRepository) ListActive(ctx context.Context, afterID string, limit int) ([]*domain.Order, error) {
	query := bson.M{"status": domain.StatusActive}
	if afterID != "" {
		query["_id"] = bson.M{"$gt": afterID}
	}

	var orders []*domain.Order
	err := withReadRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetLimit(int64(limit))

		cur, err := r.col.Find(ctx, query, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		orders = nil
		return cur.All(ctx, &orders)
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateEditable applies the non-nil editable fields.
func (r *OrderRepository) UpdateEditable(ctx context.Context, id string, fields ports.EditableFields, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": at}
	if fields.Category != nil {
		set["category"] = *fields.Category
	}
	if fields.Description != nil {
		set["description"] = *fields.Description
	}
	if fields.Contact != nil {
		set["contact"] = *fields.Contact
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return writeFault(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// Remove hard-deletes an order document.
func (r *OrderRepository) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return writeFault(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// TransitionStatus conditionally moves the order between statuses. The
// filter carries the expected current status, so a stale transition
// matches nothing and reports false.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": at}},
	)
	if err != nil {
		return false, writeFault(err)
	}
	return res.ModifiedCount > 0, nil
}

// MarkResponded stamps the owner-response timestamp.
func (r *OrderRepository) MarkResponded(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"responded_at": at, "updated_at": at}},
	)
	if err != nil {
		return writeFault(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// SetFirstTakeAt stamps the first-take timestamp once; later calls match
// nothing and are no-ops.
func (r *OrderRepository) SetFirstTakeAt(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "first_take_at": bson.M{"$eq": nil}},
		bson.M{"$set": bson.M{"first_take_at": at, "updated_at": at}},
	)
	return writeFault(err)
}

// EnsureIndexes creates the necessary indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
