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

// API sort keys to stored field names.
var productSortFields = map[string]string{
	"productName": "product_name",
	"price":       "price",
	"createdAt":   "created_at",
	"quantity":    "product_quantity",
}

type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection(productsCollection)}
}

func (m *MongoProductRepository) Insert(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, p)
	return insertErr(err)
}

func (m *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	return findOne[model.Product](ctx, m.col, bson.M{"_id": id})
}

func (m *MongoProductRepository) FindByName(ctx context.Context, name string) (*model.Product, error) {
	return findOne[model.Product](ctx, m.col, bson.M{"product_name": name})
}

func (m *MongoProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Product, error) {
	return findMany[model.Product](ctx, m.col, bson.M{"_id": bson.M{"$in": ids}})
}

// List returns one page of products plus the total matching count.
func (m *MongoProductRepository) List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error) {
	filter := bson.M{}
	if f.Category != nil {
		filter["category"] = *f.Category
	}
	if f.IsActive != nil {
		filter["is_active"] = *f.IsActive
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"product_name": re},
			bson.M{"product_description": re},
		}
	}

	opts := options.Find()
	if field, ok := productSortFields[f.SortBy]; ok {
		dir := 1
		if f.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: field, Value: dir}})
	}
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip((page - 1) * f.Limit).SetLimit(f.Limit)
	}

	items, err := findMany[model.Product](ctx, m.col, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (m *MongoProductRepository) Replace(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return insertErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	var deleted model.Product
	err := m.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

type MongoCategoryRepository struct {
	col *mongo.Collection
}

func NewMongoCategoryRepository(db *mongo.Database) *MongoCategoryRepository {
	return &MongoCategoryRepository{col: db.Collection(categoriesCollection)}
}

func (m *MongoCategoryRepository) Insert(ctx context.Context, c *model.Category) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, c)
	return insertErr(err)
}

func (m *MongoCategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	return findOne[model.Category](ctx, m.col, bson.M{"_id": id})
}

func (m *MongoCategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	return findOne[model.Category](ctx, m.col, bson.M{"name": name})
}

func (m *MongoCategoryRepository) FindAll(ctx context.Context) ([]*model.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findMany[model.Category](ctx, m.col, bson.M{}, opts)
}

func (m *MongoCategoryRepository) Replace(ctx context.Context, c *model.Category) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return insertErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoCategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type MongoAuditLogRepository struct {
	col *mongo.Collection
}

func NewMongoAuditLogRepository(db *mongo.Database) *MongoAuditLogRepository {
	return &MongoAuditLogRepository{col: db.Collection(auditLogsCollection)}
}

func (m *MongoAuditLogRepository) Insert(ctx context.Context, l *model.AuditLog) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, l)
	return err
}
