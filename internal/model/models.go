// models.go
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PurchaseNumber string              `bson:"purchase_number" json:"purchaseNumber"`
	PlacedBy       *primitive.ObjectID `bson:"placed_by,omitempty" json:"placedBy,omitempty"`
	GuestInfo      *GuestInfo          `bson:"guest_info,omitempty" json:"guestInfo,omitempty"`
	Products       []OrderProduct      `bson:"products" json:"products"`
	TotalAmount    float64             `bson:"total_amount" json:"totalAmount"`

	PaymentStatus     PaymentStatus     `bson:"payment_status" json:"paymentStatus"`
	FulfillmentStatus FulfillmentStatus `bson:"fulfillment_status" json:"fulfillmentStatus"`
	OrderStatus       OrderStatus       `bson:"order_status" json:"orderStatus"`

	OrderDate        time.Time  `bson:"order_date" json:"orderDate"`
	CompletionDate   *time.Time `bson:"completion_date,omitempty" json:"completionDate,omitempty"`
	CancellationDate *time.Time `bson:"cancellation_date,omitempty" json:"cancellationDate,omitempty"`

	DeliveryConfirmation *DeliveryConfirmation `bson:"delivery_confirmation,omitempty" json:"deliveryConfirmation,omitempty"`

	CompletedBy *primitive.ObjectID `bson:"completed_by,omitempty" json:"completedBy,omitempty"`
	CancelledBy *primitive.ObjectID `bson:"cancelled_by,omitempty" json:"cancelledBy,omitempty"`

	// Incremented on every write; transitions only apply when it still
	// matches the value that was read.
	Version   int64     `bson:"version" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type GuestInfo struct {
	FullName        string `bson:"full_name" json:"fullName"`
	Email           string `bson:"email" json:"email"`
	PhoneNumber     string `bson:"phone_number" json:"phoneNumber"`
	DeliveryAddress string `bson:"delivery_address" json:"deliveryAddress"`
}

// OrderProduct is the priced snapshot taken when the order is placed.
type OrderProduct struct {
	Product     primitive.ObjectID `bson:"product" json:"product"`
	ProductName string             `bson:"product_name" json:"productName"`
	UnitPrice   float64            `bson:"unit_price" json:"unitPrice"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Subtotal    float64            `bson:"subtotal" json:"subtotal"`
}

type DeliveryConfirmation struct {
	Signature   string              `bson:"signature" json:"signature"`
	ConfirmedAt time.Time           `bson:"confirmed_at" json:"confirmedAt"`
	Notes       string              `bson:"notes" json:"notes"`
	ReceivedBy  string              `bson:"received_by" json:"receivedBy"`
	ConfirmedBy *primitive.ObjectID `bson:"confirmed_by" json:"confirmedBy"`
}

// IsTerminal reports whether the order can no longer change status.
func (o *Order) IsTerminal() bool {
	return o.OrderStatus == OrderCompleted || o.OrderStatus == OrderCancelled
}

// TrackingUpdate is an append-only history entry for an order.
type TrackingUpdate struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Order     primitive.ObjectID  `bson:"order" json:"order"`
	Status    string              `bson:"status" json:"status"`
	Notes     string              `bson:"notes" json:"notes"`
	UpdatedBy *primitive.ObjectID `bson:"updated_by" json:"updatedBy"`
	Location  string              `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}

type UserSummary struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"fullName,omitempty"`
}

// OrderView is an order with its user references resolved to names.
type OrderView struct {
	*Order
	PlacedBy    *UserSummary `json:"placedBy,omitempty"`
	CompletedBy *UserSummary `json:"completedBy,omitempty"`
}

type SalesSummary struct {
	DailySales  float64 `json:"dailySales"`
	WeeklySales float64 `json:"weeklySales"`
	TotalSales  float64 `json:"totalSales"`
}

// TrackingView is the public projection returned by order tracking.
type TrackingView struct {
	PurchaseNumber  string            `json:"purchaseNumber"`
	CurrentStatus   FulfillmentStatus `json:"currentStatus"`
	OrderDate       time.Time         `json:"orderDate"`
	TrackingHistory []*TrackingUpdate `json:"trackingHistory"`
}
