package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"fullName"`
	Email        string             `bson:"email" json:"email"`
	PhoneNumber  string             `bson:"phone_number" json:"phoneNumber"`
	PasswordHash string             `bson:"password" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsDeleted    bool               `bson:"is_deleted" json:"isDeleted"`
	DeletedAt    *time.Time         `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Actor is the authenticated caller of an operation. A nil *Actor means the
// request was anonymous.
type Actor struct {
	ID       primitive.ObjectID
	FullName string
	Role     Role
}

func (a *Actor) IDPtr() *primitive.ObjectID {
	if a == nil {
		return nil
	}
	id := a.ID
	return &id
}

type PasswordResetRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Code      string             `bson:"code"`
	Activated bool               `bson:"activated"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}
