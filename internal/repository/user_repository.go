package repository

import (
	"context"
	"strings"
	"time"

	"ecommerce-backend/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(usersCollection)}
}

func (m *MongoUserRepository) Insert(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, u)
	return insertErr(err)
}

func (m *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return findOne[model.User](ctx, m.col, bson.M{"_id": id})
}

func (m *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, m.col, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (m *MongoUserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"full_name": 1, "email": 1, "phone_number": 1, "role": 1})
	return findMany[model.User](ctx, m.col, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

func (m *MongoUserRepository) FindByRole(ctx context.Context, role model.Role, includeDeleted bool) ([]*model.User, error) {
	filter := bson.M{"role": role}
	if !includeDeleted {
		filter["is_deleted"] = bson.M{"$ne": true}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, m.col, filter, opts)
}

func (m *MongoUserRepository) Replace(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return insertErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type MongoPasswordResetRepository struct {
	col *mongo.Collection
}

func NewMongoPasswordResetRepository(db *mongo.Database) *MongoPasswordResetRepository {
	return &MongoPasswordResetRepository{col: db.Collection(passwordResetsCollection)}
}

func (m *MongoPasswordResetRepository) Insert(ctx context.Context, r *model.PasswordResetRequest) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, r)
	return insertErr(err)
}

func (m *MongoPasswordResetRepository) FindLatestByUser(ctx context.Context, userID primitive.ObjectID) (*model.PasswordResetRequest, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findOne[model.PasswordResetRequest](ctx, m.col, bson.M{"user_id": userID}, opts)
}

func (m *MongoPasswordResetRepository) FindByCode(ctx context.Context, code string) (*model.PasswordResetRequest, error) {
	return findOne[model.PasswordResetRequest](ctx, m.col, bson.M{"code": code})
}

// MarkActivated consumes a reset code. It fails with ErrNotFound if the code
// was already used, so two concurrent resets cannot both succeed.
func (m *MongoPasswordResetRepository) MarkActivated(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "activated": false},
		bson.M{"$set": bson.M{"activated": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
