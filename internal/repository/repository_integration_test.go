//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/repository"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepositorySuite runs the repositories against a real MongoDB.
type MongoRepositorySuite struct {
	suite.Suite
	container testcontainers.Container
	client    *mongo.Client
	db        *mongo.Database
	orders    *repository.MongoOrderRepository
	tracking  *repository.MongoTrackingRepository
}

func (s *MongoRepositorySuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(ctx, "27017")
	s.Require().NoError(err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	s.Require().NoError(err)
	s.client = client
}

func (s *MongoRepositorySuite) TearDownSuite() {
	ctx := context.Background()
	if s.client != nil {
		_ = s.client.Disconnect(ctx)
	}
	if s.container != nil {
		_ = s.container.Terminate(ctx)
	}
}

func (s *MongoRepositorySuite) SetupTest() {
	ctx := context.Background()
	s.db = s.client.Database("shop_" + primitive.NewObjectID().Hex())
	s.Require().NoError(repository.EnsureIndexes(ctx, s.db))
	s.orders = repository.NewMongoOrderRepository(s.db)
	s.tracking = repository.NewMongoTrackingRepository(s.db)
}

func (s *MongoRepositorySuite) TearDownTest() {
	_ = s.db.Drop(context.Background())
}

func newOrder(purchaseNumber string, total float64, placedAt time.Time) *model.Order {
	return &model.Order{
		PurchaseNumber:    purchaseNumber,
		GuestInfo:         &model.GuestInfo{FullName: "John Doe"},
		TotalAmount:       total,
		PaymentStatus:     model.PaymentPending,
		FulfillmentStatus: model.FulfillmentPending,
		OrderStatus:       model.OrderPending,
		OrderDate:         placedAt,
	}
}

func (s *MongoRepositorySuite) TestInsertRejectsDuplicatePurchaseNumber() {
	ctx := context.Background()
	s.Require().NoError(s.orders.Insert(ctx, newOrder("PO-1", 10, time.Now())))

	err := s.orders.Insert(ctx, newOrder("PO-1", 20, time.Now()))
	s.True(errors.Is(err, repository.ErrDuplicate), "got %v", err)
}

func (s *MongoRepositorySuite) TestLatestPurchaseNumber() {
	ctx := context.Background()
	for _, n := range []string{"PO-20260308-000002", "PO-20260308-000010", "PO-20260308-FFFFFFFFFF", "PO-20260309-000099"} {
		s.Require().NoError(s.orders.Insert(ctx, newOrder(n, 1, time.Now())))
	}

	latest, err := s.orders.LatestPurchaseNumber(ctx, "PO-20260308-")
	s.Require().NoError(err)
	s.Equal("PO-20260308-000010", latest)

	_, err = s.orders.LatestPurchaseNumber(ctx, "PO-20260310-")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *MongoRepositorySuite) TestReplaceIsConditionalOnVersion() {
	ctx := context.Background()
	o := newOrder("PO-2", 10, time.Now())
	s.Require().NoError(s.orders.Insert(ctx, o))

	first, err := s.orders.FindByID(ctx, o.ID)
	s.Require().NoError(err)
	second, err := s.orders.FindByID(ctx, o.ID)
	s.Require().NoError(err)

	first.PaymentStatus = model.PaymentCompleted
	s.Require().NoError(s.orders.Replace(ctx, first))
	s.EqualValues(2, first.Version)

	second.OrderStatus = model.OrderCancelled
	err = s.orders.Replace(ctx, second)
	s.ErrorIs(err, repository.ErrVersionConflict)
	s.EqualValues(1, second.Version)

	stored, err := s.orders.FindByPurchaseNumber(ctx, "PO-2")
	s.Require().NoError(err)
	s.Equal(model.PaymentCompleted, stored.PaymentStatus)
	s.Equal(model.OrderPending, stored.OrderStatus)
}

func (s *MongoRepositorySuite) TestSumPaidSince() {
	ctx := context.Background()
	now := time.Now().UTC()

	for i, o := range []*model.Order{
		newOrder("PO-A", 10.5, now.Add(-time.Hour)),
		newOrder("PO-B", 20, now.Add(-72*time.Hour)),
		newOrder("PO-C", 99, now),
	} {
		if i < 2 {
			o.PaymentStatus = model.PaymentCompleted
		}
		s.Require().NoError(s.orders.Insert(ctx, o))
	}

	recent, err := s.orders.SumPaidSince(ctx, now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.InDelta(10.5, recent, 1e-9)

	total, err := s.orders.SumPaidSince(ctx, time.Time{})
	s.Require().NoError(err)
	s.InDelta(30.5, total, 1e-9)

	none, err := s.orders.SumPaidSince(ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Zero(none)
}

func (s *MongoRepositorySuite) TestTrackingHistoryIsAscending() {
	ctx := context.Background()
	orderID := primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for _, u := range []*model.TrackingUpdate{
		{Order: orderID, Status: "Completed", CreatedAt: base.Add(2 * time.Minute)},
		{Order: orderID, Status: "Processing", CreatedAt: base},
		{Order: primitive.NewObjectID(), Status: "Cancelled", CreatedAt: base},
	} {
		s.Require().NoError(s.tracking.Insert(ctx, u))
	}

	history, err := s.tracking.FindByOrder(ctx, orderID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal("Processing", history[0].Status)
	s.Equal("Completed", history[1].Status)
}

func (s *MongoRepositorySuite) TestFindByIDNotFound() {
	_, err := s.orders.FindByID(context.Background(), primitive.NewObjectID())
	s.ErrorIs(err, repository.ErrNotFound)
}

func TestMongoRepositorySuite(t *testing.T) {
	suite.Run(t, new(MongoRepositorySuite))
}
