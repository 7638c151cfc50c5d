package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/service"

	"go.uber.org/zap"
)

type PaymentCompleter interface {
	CompletePaymentByReference(ctx context.Context, orderID, purchaseNumber string) (*model.Order, error)
}

type PaymentConsumer struct {
	Service PaymentCompleter
	log     *zap.Logger
}

func NewPaymentConsumer(s PaymentCompleter, log *zap.Logger) *PaymentConsumer {
	return &PaymentConsumer{Service: s, log: log}
}

// PaymentCompletedMessage is published by the payment gateway integration.
// Either field identifies the order.
type PaymentCompletedMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		OrderID        string `json:"orderId"`
		PurchaseNumber string `json:"purchaseNumber"`
	} `json:"message"`
}

// ErrMalformedMessage marks deliveries that can never be processed.
var ErrMalformedMessage = errors.New("malformed payment message")

// Handle applies one payment notification. Redelivered notifications for an
// order that is already paid are acknowledged without error.
func (c *PaymentConsumer) Handle(ctx context.Context, body []byte) error {
	var event PaymentCompletedMessage
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	ref := event.Message
	if ref.OrderID == "" && ref.PurchaseNumber == "" {
		return fmt.Errorf("%w: no order reference", ErrMalformedMessage)
	}

	log := c.log.With(
		zap.String("correlation_id", event.CorrelationID),
		zap.String("order_id", ref.OrderID),
		zap.String("purchase_number", ref.PurchaseNumber),
	)

	_, err := c.Service.CompletePaymentByReference(ctx, ref.OrderID, ref.PurchaseNumber)
	switch {
	case err == nil:
		log.Info("payment applied")
		return nil
	case errors.Is(err, service.ErrAlreadyPaid):
		log.Info("payment already applied")
		return nil
	default:
		log.Warn("payment not applied", zap.Error(err))
		return err
	}
}
