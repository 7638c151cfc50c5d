package repository

import (
	"context"
	"time"

	"ecommerce-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTrackingRepository only ever inserts and reads; history entries are
// never rewritten.
type MongoTrackingRepository struct {
	col *mongo.Collection
}

func NewMongoTrackingRepository(db *mongo.Database) *MongoTrackingRepository {
	return &MongoTrackingRepository{col: db.Collection(trackingCollection)}
}

func (m *MongoTrackingRepository) Insert(ctx context.Context, u *model.TrackingUpdate) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, u)
	return err
}

func (m *MongoTrackingRepository) FindByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*model.TrackingUpdate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findMany[model.TrackingUpdate](ctx, m.col, bson.M{"order": orderID}, opts)
}
