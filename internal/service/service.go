package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/metrics"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Interfaces the repositories implement.
type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	FindByPurchaseNumber(ctx context.Context, purchaseNumber string) (*model.Order, error)
	LatestPurchaseNumber(ctx context.Context, series string) (string, error)
	FindAll(ctx context.Context) ([]*model.Order, error)
	FindByPlacer(ctx context.Context, userID primitive.ObjectID) ([]*model.Order, error)
	Replace(ctx context.Context, o *model.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	SumPaidSince(ctx context.Context, since time.Time) (float64, error)
}

type TrackingRepository interface {
	Insert(ctx context.Context, u *model.TrackingUpdate) error
	FindByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*model.TrackingUpdate, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error)
}

type PurchaseNumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

// PurchaseNumberReseeder is implemented by counter-backed generators that can
// fall behind the numbers already stored, e.g. after losing their state.
type PurchaseNumberReseeder interface {
	Series(number string) string
	Reseed(ctx context.Context, latest string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type SalesCache interface {
	Get(ctx context.Context, day string) (*model.SalesSummary, error)
	Set(ctx context.Context, day string, s *model.SalesSummary) error
}

// Business errors exported for callers and tests.
var (
	ErrInvalidID              = apperr.New(apperr.CodeInvalidInput, "InvalidID", "invalid id")
	ErrNoProducts             = apperr.New(apperr.CodeInvalidInput, "NoProducts", "no products in the order")
	ErrInvalidQuantity        = apperr.New(apperr.CodeInvalidInput, "InvalidQuantity", "product quantity must be at least 1")
	ErrGuestInfoRequired      = apperr.New(apperr.CodeInvalidInput, "GuestInfoRequired", "guest orders need at least the guest's full name")
	ErrConfirmationIncomplete = apperr.New(apperr.CodeInvalidInput, "ConfirmationIncomplete", "purchase number and signature are required")
	ErrActorRequired          = apperr.New(apperr.CodeUnauthorized, "ActorRequired", "this operation requires an authenticated user")

	ErrOrderNotFound          = apperr.New(apperr.CodeNotFound, "OrderNotFound", "order not found")
	ErrPurchaseNumberRequired = apperr.New(apperr.CodeNotFound, "PurchaseNumberRequired", "purchase number is required")
	ErrProductNotFound        = apperr.New(apperr.CodeNotFound, "ProductNotFound", "product not found")

	ErrAlreadyPaid            = apperr.New(apperr.CodeConflict, "AlreadyPaid", "payment already completed")
	ErrOrderCancelled         = apperr.New(apperr.CodeConflict, "OrderCancelled", "order has been cancelled")
	ErrPaymentRequired        = apperr.New(apperr.CodeConflict, "PaymentRequired", "payment not completed")
	ErrAlreadyFulfilled       = apperr.New(apperr.CodeConflict, "AlreadyFulfilled", "order already delivered or completed")
	ErrDeliveryNotStarted     = apperr.New(apperr.CodeConflict, "DeliveryNotStarted", "delivery has not started")
	ErrAlreadyDelivered       = apperr.New(apperr.CodeConflict, "AlreadyDelivered", "order already delivered and confirmed")
	ErrAlreadyCompleted       = apperr.New(apperr.CodeConflict, "AlreadyCompleted", "order already completed")
	ErrAlreadyCancelled       = apperr.New(apperr.CodeConflict, "AlreadyCancelled", "order has already been cancelled")
	ErrCannotCancelPaid       = apperr.New(apperr.CodeConflict, "CannotCancelPaid", "cannot cancel a paid order, contact admin")
	ErrCannotCancelInFlight   = apperr.New(apperr.CodeConflict, "CannotCancelInFlight", "cannot cancel an order that left the warehouse, contact admin")
	ErrConcurrentModification = apperr.New(apperr.CodeConflict, "ConcurrentModification", "order was changed by another request, retry")

	ErrNoPlacer          = apperr.New(apperr.CodeInvalidState, "NoPlacer", "order does not have a valid placer (guest or registered)")
	ErrRecipientMismatch = apperr.New(apperr.CodeForbidden, "RecipientMismatch", "only the person who placed the order can confirm delivery")
)

// OrderServiceDeps wires the order service. Cache, Metrics, Events and Log
// are optional.
type OrderServiceDeps struct {
	Orders   OrderRepository
	Tracking TrackingRepository
	Users    UserReader
	Products ProductReader
	Numbers  PurchaseNumberGenerator
	Events   EventPublisher
	Cache    SalesCache
	Metrics  *metrics.OrderMetrics
	Log      *zap.Logger
}

type OrderService struct {
	orders   OrderRepository
	tracking TrackingRepository
	users    UserReader
	pricer   *Pricer
	numbers  PurchaseNumberGenerator
	events   EventPublisher
	cache    SalesCache
	metrics  *metrics.OrderMetrics
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderService(d OrderServiceDeps) *OrderService {
	s := &OrderService{
		orders:   d.Orders,
		tracking: d.Tracking,
		users:    d.Users,
		pricer:   NewPricer(d.Products),
		numbers:  d.Numbers,
		events:   d.Events,
		cache:    d.Cache,
		metrics:  d.Metrics,
		log:      d.Log,
		now:      time.Now,
	}
	if s.events == nil {
		s.events = noopPublisher{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// notFoundAs maps a repository miss onto the given business error and any
// other failure onto Unexpected.
func notFoundAs(err error, notFound error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return apperr.Unexpected(err, what)
}

func (s *OrderService) loadByID(id string) func(context.Context) (*model.Order, error) {
	return func(ctx context.Context) (*model.Order, error) {
		oid, err := parseID(id)
		if err != nil {
			return nil, err
		}
		o, err := s.orders.FindByID(ctx, oid)
		if err != nil {
			return nil, notFoundAs(err, ErrOrderNotFound, "loading order")
		}
		return o, nil
	}
}

func (s *OrderService) loadByPurchaseNumber(purchaseNumber string) func(context.Context) (*model.Order, error) {
	return func(ctx context.Context) (*model.Order, error) {
		o, err := s.orders.FindByPurchaseNumber(ctx, purchaseNumber)
		if err != nil {
			return nil, notFoundAs(err, ErrOrderNotFound, "loading order")
		}
		return o, nil
	}
}

// Get returns one order with placer and completer names populated.
func (s *OrderService) Get(ctx context.Context, id string) (*model.OrderView, error) {
	o, err := s.loadByID(id)(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.populate(ctx, []*model.Order{o})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *OrderService) List(ctx context.Context) ([]*model.OrderView, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "listing orders")
	}
	return s.populate(ctx, orders)
}

// ListByPlacer returns the orders a registered user placed.
func (s *OrderService) ListByPlacer(ctx context.Context, userID string) ([]*model.OrderView, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.FindByPlacer(ctx, oid)
	if err != nil {
		return nil, apperr.Unexpected(err, "listing orders")
	}
	return s.populate(ctx, orders)
}

func (s *OrderService) Delete(ctx context.Context, id string) (*model.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.Delete(ctx, oid)
	if err != nil {
		return nil, notFoundAs(err, ErrOrderNotFound, "deleting order")
	}
	s.log.Info("order deleted", zap.String("order_id", o.ID.Hex()), zap.String("purchase_number", o.PurchaseNumber))
	return o, nil
}

func (s *OrderService) populate(ctx context.Context, orders []*model.Order) ([]*model.OrderView, error) {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, ref := range []*primitive.ObjectID{o.PlacedBy, o.CompletedBy} {
			if ref == nil {
				continue
			}
			if _, ok := seen[*ref]; !ok {
				seen[*ref] = struct{}{}
				ids = append(ids, *ref)
			}
		}
	}

	names := make(map[primitive.ObjectID]*model.UserSummary, len(ids))
	if len(ids) > 0 {
		users, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, apperr.Unexpected(err, "loading order users")
		}
		for _, u := range users {
			names[u.ID] = &model.UserSummary{ID: u.ID, FullName: u.FullName}
		}
	}

	views := make([]*model.OrderView, 0, len(orders))
	for _, o := range orders {
		v := &model.OrderView{Order: o}
		if o.PlacedBy != nil {
			v.PlacedBy = summaryOrRef(names, *o.PlacedBy)
		}
		if o.CompletedBy != nil {
			v.CompletedBy = summaryOrRef(names, *o.CompletedBy)
		}
		views = append(views, v)
	}
	return views, nil
}

func summaryOrRef(names map[primitive.ObjectID]*model.UserSummary, id primitive.ObjectID) *model.UserSummary {
	if s, ok := names[id]; ok {
		return s
	}
	return &model.UserSummary{ID: id}
}
