package repository

import (
	"context"
	"regexp"
	"time"

	"ecommerce-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection(ordersCollection)}
}

func (m *MongoOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.Version = 1
	o.UpdatedAt = time.Now().UTC()

	_, err := m.col.InsertOne(ctx, o)
	return insertErr(err)
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	return findOne[model.Order](ctx, m.col, bson.M{"_id": id})
}

func (m *MongoOrderRepository) FindByPurchaseNumber(ctx context.Context, purchaseNumber string) (*model.Order, error) {
	return findOne[model.Order](ctx, m.col, bson.M{"purchase_number": purchaseNumber})
}

// LatestPurchaseNumber returns the highest counter-issued purchase number
// that starts with series. Sequences are zero-padded, so string order is
// numeric order.
func (m *MongoOrderRepository) LatestPurchaseNumber(ctx context.Context, series string) (string, error) {
	filter := bson.M{"purchase_number": bson.M{"$regex": "^" + regexp.QuoteMeta(series) + `[0-9]{6}$`}}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "purchase_number", Value: -1}}).
		SetProjection(bson.M{"purchase_number": 1})
	o, err := findOne[model.Order](ctx, m.col, filter, opts)
	if err != nil {
		return "", err
	}
	return o.PurchaseNumber, nil
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_date", Value: -1}})
	return findMany[model.Order](ctx, m.col, bson.M{}, opts)
}

func (m *MongoOrderRepository) FindByPlacer(ctx context.Context, userID primitive.ObjectID) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_date", Value: -1}})
	return findMany[model.Order](ctx, m.col, bson.M{"placed_by": userID}, opts)
}

// Replace writes the whole order back only if nobody else wrote it since it
// was read. On success o.Version is advanced; on ErrVersionConflict the caller
// holds a stale copy.
func (m *MongoOrderRepository) Replace(ctx context.Context, o *model.Order) error {
	expected := o.Version
	o.Version = expected + 1
	o.UpdatedAt = time.Now().UTC()

	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": o.ID, "version": expected}, o)
	if err != nil {
		o.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		o.Version = expected
		return ErrVersionConflict
	}
	return nil
}

func (m *MongoOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	var deleted model.Order
	err := m.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// SumPaidSince totals total_amount over paid orders placed at or after since.
// A zero since sums every paid order.
func (m *MongoOrderRepository) SumPaidSince(ctx context.Context, since time.Time) (float64, error) {
	match := bson.M{"payment_status": model.PaymentCompleted}
	if !since.IsZero() {
		match["order_date"] = bson.M{"$gte": since}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
		}}},
	}

	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
