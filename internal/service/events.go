package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecommerce-backend/internal/model"

	"go.uber.org/zap"
)

// Routing keys used on the event exchanges.
const (
	EventOrderPlaced            = "order.placed"
	EventOrderStatusChanged     = "order.status_changed"
	EventPasswordResetRequested = "password_reset.requested"
)

type OrderPlacedEvent struct {
	OrderID        string    `json:"orderId"`
	PurchaseNumber string    `json:"purchaseNumber"`
	PhoneNumber    string    `json:"phoneNumber,omitempty"`
	TotalAmount    float64   `json:"totalAmount"`
	Summary        string    `json:"summary"`
	PlacedAt       time.Time `json:"placedAt"`
}

type OrderStatusChangedEvent struct {
	OrderID           string                  `json:"orderId"`
	PurchaseNumber    string                  `json:"purchaseNumber"`
	Operation         string                  `json:"operation"`
	PaymentStatus     model.PaymentStatus     `json:"paymentStatus"`
	FulfillmentStatus model.FulfillmentStatus `json:"fulfillmentStatus"`
	OrderStatus       model.OrderStatus       `json:"orderStatus"`
	ChangedBy         string                  `json:"changedBy,omitempty"`
	ChangedAt         time.Time               `json:"changedAt"`
}

type PasswordResetRequestedEvent struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	ResetLink string    `json:"resetLink"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// orderSummary renders the plain-text receipt sent with order notifications.
func orderSummary(o *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", o.PurchaseNumber)
	for _, p := range o.Products {
		fmt.Fprintf(&b, "- %d x %s @ %.2f = %.2f\n", p.Quantity, p.ProductName, p.UnitPrice, p.Subtotal)
	}
	fmt.Fprintf(&b, "Total: %.2f\n", o.TotalAmount)
	fmt.Fprintf(&b, "Status: %s", o.OrderStatus)
	return b.String()
}

func (s *OrderService) publishStatusChange(ctx context.Context, op string, o *model.Order, actor *model.Actor) {
	ev := OrderStatusChangedEvent{
		OrderID:           o.ID.Hex(),
		PurchaseNumber:    o.PurchaseNumber,
		Operation:         op,
		PaymentStatus:     o.PaymentStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		OrderStatus:       o.OrderStatus,
		ChangedAt:         s.now().UTC(),
	}
	if actor != nil {
		ev.ChangedBy = actor.ID.Hex()
	}
	if err := s.events.Publish(ctx, EventOrderStatusChanged, ev); err != nil {
		s.log.Warn("status change event not published",
			zap.String("order_id", ev.OrderID), zap.String("op", op), zap.Error(err))
	}
}
