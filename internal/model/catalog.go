package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProductName        string              `bson:"product_name" json:"productName"`
	ProductDescription string              `bson:"product_description" json:"productDescription"`
	InitialPrice       float64             `bson:"initial_price" json:"initialPrice"`
	Price              float64             `bson:"price" json:"price"`
	ProductQuantity    int                 `bson:"product_quantity" json:"productQuantity"`
	ProductImage       string              `bson:"product_image" json:"productImage"`
	Category           primitive.ObjectID  `bson:"category" json:"category"`
	OnOffer            bool                `bson:"on_offer" json:"onOffer"`
	OfferPrice         float64             `bson:"offer_price" json:"offerPrice"`
	IsActive           bool                `bson:"is_active" json:"isActive"`
	CreatedBy          *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt          time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updated_at" json:"updatedAt"`
}

// EffectivePrice is what an order is charged for one unit.
func (p *Product) EffectivePrice() float64 {
	if p.OnOffer && p.OfferPrice > 0 {
		return p.OfferPrice
	}
	return p.Price
}

type Category struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description" json:"description"`
	CreatedBy   *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

type AuditLog struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Action         string              `bson:"action" json:"action"`
	CollectionName string              `bson:"collection_name" json:"collectionName"`
	DocumentID     primitive.ObjectID  `bson:"document_id" json:"documentId"`
	PerformedBy    *primitive.ObjectID `bson:"performed_by,omitempty" json:"performedBy,omitempty"`
	Payload        any                 `bson:"payload" json:"payload"`
	Timestamp      time.Time           `bson:"timestamp" json:"timestamp"`
}

// ProductFilter narrows a product listing. Page is 1-based.
type ProductFilter struct {
	Category *primitive.ObjectID
	IsActive *bool
	Search   string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	Desc     bool
	Page     int64
	Limit    int64
}
