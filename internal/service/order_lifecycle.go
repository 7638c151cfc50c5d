package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Operation names used in logs, metrics and status events.
const (
	OpCreate          = "create"
	OpCompletePayment = "complete_payment"
	OpMarkInTransit   = "mark_in_transit"
	OpConfirmDelivery = "confirm_delivery"
	OpCompleteOrder   = "complete_order"
	OpCancelOrder     = "cancel_order"
)

const purchaseNumberAttempts = 3

type OrderItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	Products  []OrderItemInput
	GuestInfo *model.GuestInfo
}

type ConfirmDeliveryInput struct {
	PurchaseNumber string
	Signature      string
	ReceivedBy     string
	Notes          string
	Location       string
}

// Create places a new order. Registered callers become the placer; anonymous
// callers must supply guest details.
func (s *OrderService) Create(ctx context.Context, actor *model.Actor, in CreateOrderInput) (*model.Order, error) {
	o, err := s.create(ctx, actor, in)
	s.metrics.ObserveTransition(OpCreate, err)
	return o, err
}

func (s *OrderService) create(ctx context.Context, actor *model.Actor, in CreateOrderInput) (*model.Order, error) {
	if len(in.Products) == 0 {
		return nil, ErrNoProducts
	}
	lines := make([]OrderLine, 0, len(in.Products))
	for _, item := range in.Products {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		pid, err := parseID(item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, OrderLine{ProductID: pid, Quantity: item.Quantity})
	}

	o := &model.Order{
		PaymentStatus:     model.PaymentPending,
		FulfillmentStatus: model.FulfillmentPending,
		OrderStatus:       model.OrderPending,
	}
	if actor != nil {
		o.PlacedBy = actor.IDPtr()
	} else {
		if in.GuestInfo == nil || strings.TrimSpace(in.GuestInfo.FullName) == "" {
			return nil, ErrGuestInfoRequired
		}
		guest := *in.GuestInfo
		guest.FullName = strings.TrimSpace(guest.FullName)
		o.GuestInfo = &guest
	}

	products, total, err := s.pricer.Price(ctx, lines)
	if err != nil {
		return nil, err
	}
	o.Products = products
	o.TotalAmount = total

	for attempt := 1; ; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, apperr.Unexpected(err, "generating purchase number")
		}
		o.ID = primitive.NilObjectID
		o.PurchaseNumber = number
		o.OrderDate = s.now().UTC()

		err = s.orders.Insert(ctx, o)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < purchaseNumberAttempts {
			s.log.Warn("purchase number collision, retrying", zap.String("purchase_number", number))
			s.reseedPurchaseNumbers(ctx, number)
			continue
		}
		return nil, apperr.Unexpected(err, "saving order")
	}

	s.log.Info("order placed",
		zap.String("order_id", o.ID.Hex()),
		zap.String("purchase_number", o.PurchaseNumber),
		zap.Float64("total_amount", o.TotalAmount),
		zap.Bool("guest", o.GuestInfo != nil))

	s.publishPlaced(ctx, o)
	return o, nil
}

// reseedPurchaseNumbers moves a counter-backed generator past the highest
// number already stored for the colliding number's day.
func (s *OrderService) reseedPurchaseNumbers(ctx context.Context, taken string) {
	r, ok := s.numbers.(PurchaseNumberReseeder)
	if !ok {
		return
	}
	series := r.Series(taken)
	if series == "" {
		return
	}
	latest, err := s.orders.LatestPurchaseNumber(ctx, series)
	if err != nil {
		s.log.Warn("looking up latest purchase number", zap.String("series", series), zap.Error(err))
		return
	}
	if err := r.Reseed(ctx, latest); err != nil {
		s.log.Warn("reseeding purchase numbers", zap.String("latest", latest), zap.Error(err))
		return
	}
	s.log.Info("purchase numbers reseeded", zap.String("latest", latest))
}

func (s *OrderService) publishPlaced(ctx context.Context, o *model.Order) {
	ev := OrderPlacedEvent{
		OrderID:        o.ID.Hex(),
		PurchaseNumber: o.PurchaseNumber,
		TotalAmount:    o.TotalAmount,
		Summary:        orderSummary(o),
		PlacedAt:       o.OrderDate,
	}
	switch {
	case o.GuestInfo != nil:
		ev.PhoneNumber = o.GuestInfo.PhoneNumber
	case o.PlacedBy != nil:
		if u, err := s.users.FindByID(ctx, *o.PlacedBy); err == nil {
			ev.PhoneNumber = u.PhoneNumber
		}
	}
	if err := s.events.Publish(ctx, EventOrderPlaced, ev); err != nil {
		s.log.Warn("order placed event not published", zap.String("order_id", ev.OrderID), zap.Error(err))
	}
}

// CompletePayment marks an order paid. It does not add a tracking entry.
func (s *OrderService) CompletePayment(ctx context.Context, id string) (*model.Order, error) {
	return s.completePayment(ctx, s.loadByID(id))
}

// CompletePaymentByReference resolves the order by id when given, otherwise
// by purchase number. Used by the payment consumer.
func (s *OrderService) CompletePaymentByReference(ctx context.Context, orderID, purchaseNumber string) (*model.Order, error) {
	if strings.TrimSpace(orderID) != "" {
		return s.CompletePayment(ctx, orderID)
	}
	purchaseNumber = strings.TrimSpace(purchaseNumber)
	if purchaseNumber == "" {
		return nil, apperr.InvalidInput("payment message carries neither order id nor purchase number")
	}
	return s.completePayment(ctx, s.loadByPurchaseNumber(purchaseNumber))
}

func (s *OrderService) completePayment(ctx context.Context, load loader) (*model.Order, error) {
	return s.transition(ctx, OpCompletePayment, nil, load, func(_ context.Context, o *model.Order) (*model.TrackingUpdate, error) {
		if err := checkCompletePayment(o); err != nil {
			return nil, err
		}
		o.PaymentStatus = model.PaymentCompleted
		o.OrderStatus = model.OrderProcessing
		o.FulfillmentStatus = model.FulfillmentProcessing
		return nil, nil
	})
}

// MarkInTransit dispatches a paid order. Marking an order already in transit
// again only records another tracking entry.
func (s *OrderService) MarkInTransit(ctx context.Context, id string, actor *model.Actor, location string) (*model.Order, error) {
	if actor == nil {
		s.metrics.ObserveTransition(OpMarkInTransit, ErrActorRequired)
		return nil, ErrActorRequired
	}
	return s.transition(ctx, OpMarkInTransit, actor, s.loadByID(id), func(_ context.Context, o *model.Order) (*model.TrackingUpdate, error) {
		if err := checkMarkInTransit(o); err != nil {
			return nil, err
		}
		o.FulfillmentStatus = model.FulfillmentInTransit
		return &model.TrackingUpdate{
			Status:    string(o.OrderStatus),
			Notes:     fmt.Sprintf("Order marked in transit by %s", actorLabel(actor)),
			UpdatedBy: actor.IDPtr(),
			Location:  strings.TrimSpace(location),
		}, nil
	})
}

// ConfirmDelivery records the recipient's signature. The recipient name must
// match the placer's name, compared without case or surrounding spaces.
func (s *OrderService) ConfirmDelivery(ctx context.Context, actor *model.Actor, in ConfirmDeliveryInput) (*model.Order, error) {
	purchaseNumber := strings.TrimSpace(in.PurchaseNumber)
	signature := strings.TrimSpace(in.Signature)
	if purchaseNumber == "" || signature == "" {
		s.metrics.ObserveTransition(OpConfirmDelivery, ErrConfirmationIncomplete)
		return nil, ErrConfirmationIncomplete
	}

	return s.transition(ctx, OpConfirmDelivery, actor, s.loadByPurchaseNumber(purchaseNumber), func(ctx context.Context, o *model.Order) (*model.TrackingUpdate, error) {
		if err := checkConfirmDelivery(o); err != nil {
			return nil, err
		}
		expected, err := s.placerName(ctx, o)
		if err != nil {
			return nil, err
		}
		if expected == "" {
			return nil, ErrNoPlacer
		}
		if !sameName(in.ReceivedBy, expected) {
			return nil, ErrRecipientMismatch
		}

		notes := strings.TrimSpace(in.Notes)
		o.DeliveryConfirmation = &model.DeliveryConfirmation{
			Signature:   signature,
			ConfirmedAt: s.now().UTC(),
			Notes:       notes,
			ReceivedBy:  strings.TrimSpace(in.ReceivedBy),
			ConfirmedBy: actor.IDPtr(),
		}
		o.FulfillmentStatus = model.FulfillmentDelivered

		location := strings.TrimSpace(in.Location)
		if location == "" {
			location = "Delivery address"
		}
		return &model.TrackingUpdate{
			Status:    string(model.FulfillmentDelivered),
			Notes:     strings.TrimSpace(fmt.Sprintf("Delivered and signed for by %s. %s", o.DeliveryConfirmation.ReceivedBy, notes)),
			UpdatedBy: actor.IDPtr(),
			Location:  location,
		}, nil
	})
}

// CompleteOrder closes an order that is in transit.
func (s *OrderService) CompleteOrder(ctx context.Context, id string, actor *model.Actor, location string) (*model.Order, error) {
	if actor == nil {
		s.metrics.ObserveTransition(OpCompleteOrder, ErrActorRequired)
		return nil, ErrActorRequired
	}
	return s.transition(ctx, OpCompleteOrder, actor, s.loadByID(id), func(_ context.Context, o *model.Order) (*model.TrackingUpdate, error) {
		if err := checkCompleteOrder(o); err != nil {
			return nil, err
		}
		now := s.now().UTC()
		o.FulfillmentStatus = model.FulfillmentCompleted
		o.OrderStatus = model.OrderCompleted
		o.CompletionDate = &now
		o.CompletedBy = actor.IDPtr()

		location = strings.TrimSpace(location)
		if location == "" {
			location = "Not specified"
		}
		return &model.TrackingUpdate{
			Status:    string(model.OrderCompleted),
			Notes:     fmt.Sprintf("Order completed by %s", actorLabel(actor)),
			UpdatedBy: actor.IDPtr(),
			Location:  location,
		}, nil
	})
}

// CancelOrder cancels an unpaid order that has not left the warehouse.
// actor may be nil for system cancellations.
func (s *OrderService) CancelOrder(ctx context.Context, id string, actor *model.Actor) (*model.Order, error) {
	return s.transition(ctx, OpCancelOrder, actor, s.loadByID(id), func(_ context.Context, o *model.Order) (*model.TrackingUpdate, error) {
		if err := checkCancelOrder(o); err != nil {
			return nil, err
		}
		now := s.now().UTC()
		o.OrderStatus = model.OrderCancelled
		o.CancellationDate = &now
		o.CancelledBy = actor.IDPtr()

		by := "system"
		if actor != nil {
			by = actorLabel(actor)
		}
		return &model.TrackingUpdate{
			Status:    string(model.OrderCancelled),
			Notes:     fmt.Sprintf("Order cancelled by %s", by),
			UpdatedBy: actor.IDPtr(),
		}, nil
	})
}

type loader func(ctx context.Context) (*model.Order, error)

// mutator validates an order and applies a transition in memory. It returns
// the tracking entry to record, or nil.
type mutator func(ctx context.Context, o *model.Order) (*model.TrackingUpdate, error)

// transition runs read, check, write for one order. The write only succeeds
// if nobody else changed the order since it was read.
func (s *OrderService) transition(ctx context.Context, op string, actor *model.Actor, load loader, mutate mutator) (o *model.Order, err error) {
	defer func() { s.metrics.ObserveTransition(op, err) }()

	o, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if !o.OrderStatus.IsValid() {
		return nil, apperr.Unexpected(fmt.Errorf("order %s has unknown status %q", o.ID.Hex(), o.OrderStatus), "loading order")
	}
	update, err := mutate(ctx, o)
	if err != nil {
		s.log.Debug("transition rejected",
			zap.String("op", op), zap.String("order_id", o.ID.Hex()), zap.Error(err))
		return nil, err
	}

	if err = s.orders.Replace(ctx, o); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.log.Info("concurrent order update", zap.String("op", op), zap.String("order_id", o.ID.Hex()))
			return nil, ErrConcurrentModification
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, apperr.Unexpected(err, "saving order")
	}

	if update != nil {
		update.Order = o.ID
		update.CreatedAt = s.now().UTC()
		// The order is already committed; a missing history entry is logged
		// rather than reported as a failed transition.
		if err := s.tracking.Insert(ctx, update); err != nil {
			s.log.Error("order updated but tracking entry not recorded",
				zap.String("op", op), zap.String("order_id", o.ID.Hex()),
				zap.String("status", update.Status), zap.Error(err))
		}
	}

	s.log.Info("order transition",
		zap.String("op", op),
		zap.String("order_id", o.ID.Hex()),
		zap.String("payment_status", string(o.PaymentStatus)),
		zap.String("fulfillment_status", string(o.FulfillmentStatus)),
		zap.String("order_status", string(o.OrderStatus)))

	s.publishStatusChange(ctx, op, o, actor)
	return o, nil
}

// placerName is the name a delivery recipient must match: the registered
// placer's name, falling back to the guest name.
func (s *OrderService) placerName(ctx context.Context, o *model.Order) (string, error) {
	if o.PlacedBy != nil {
		u, err := s.users.FindByID(ctx, *o.PlacedBy)
		switch {
		case err == nil && strings.TrimSpace(u.FullName) != "":
			return u.FullName, nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return "", apperr.Unexpected(err, "loading order placer")
		}
	}
	if o.GuestInfo != nil {
		return o.GuestInfo.FullName, nil
	}
	return "", nil
}

func sameName(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

func actorLabel(a *model.Actor) string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.ID.Hex()
}
