package service

import "ecommerce-backend/internal/model"

// The check functions hold the transition rules. Each returns the first
// rule the order breaks, terminal states first.

func checkCompletePayment(o *model.Order) error {
	switch {
	case o.PaymentStatus == model.PaymentCompleted:
		return ErrAlreadyPaid
	case o.OrderStatus == model.OrderCancelled:
		return ErrOrderCancelled
	}
	return nil
}

func checkMarkInTransit(o *model.Order) error {
	switch {
	case o.OrderStatus == model.OrderCancelled:
		return ErrOrderCancelled
	case o.PaymentStatus != model.PaymentCompleted:
		return ErrPaymentRequired
	case o.OrderStatus == model.OrderCompleted,
		o.FulfillmentStatus == model.FulfillmentDelivered,
		o.FulfillmentStatus == model.FulfillmentCompleted:
		return ErrAlreadyFulfilled
	}
	return nil
}

func checkConfirmDelivery(o *model.Order) error {
	switch {
	case o.FulfillmentStatus == model.FulfillmentDelivered,
		o.FulfillmentStatus == model.FulfillmentCompleted:
		return ErrAlreadyDelivered
	case o.OrderStatus == model.OrderCancelled:
		return ErrOrderCancelled
	}
	return nil
}

func checkCompleteOrder(o *model.Order) error {
	switch {
	case o.OrderStatus == model.OrderCompleted,
		o.FulfillmentStatus == model.FulfillmentCompleted:
		return ErrAlreadyCompleted
	case o.OrderStatus == model.OrderCancelled:
		return ErrOrderCancelled
	case o.PaymentStatus != model.PaymentCompleted:
		return ErrPaymentRequired
	case o.FulfillmentStatus == model.FulfillmentDelivered:
		return ErrAlreadyDelivered
	case o.FulfillmentStatus != model.FulfillmentInTransit:
		return ErrDeliveryNotStarted
	}
	return nil
}

func checkCancelOrder(o *model.Order) error {
	switch {
	case o.OrderStatus == model.OrderCancelled:
		return ErrAlreadyCancelled
	case o.OrderStatus == model.OrderCompleted:
		return ErrAlreadyCompleted
	case o.PaymentStatus == model.PaymentCompleted:
		return ErrCannotCancelPaid
	case o.FulfillmentStatus == model.FulfillmentInTransit,
		o.FulfillmentStatus == model.FulfillmentDelivered,
		o.FulfillmentStatus == model.FulfillmentCompleted:
		return ErrCannotCancelInFlight
	}
	return nil
}
