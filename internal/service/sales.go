package service

import (
	"context"
	"strings"
	"time"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TrackByPurchaseNumber is the public tracking view of an order. History is
// oldest first.
func (s *OrderService) TrackByPurchaseNumber(ctx context.Context, purchaseNumber string) (*model.TrackingView, error) {
	purchaseNumber = strings.TrimSpace(purchaseNumber)
	if purchaseNumber == "" {
		return nil, ErrPurchaseNumberRequired
	}
	o, err := s.loadByPurchaseNumber(purchaseNumber)(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.tracking.FindByOrder(ctx, o.ID)
	if err != nil {
		return nil, apperr.Unexpected(err, "loading tracking history")
	}
	if history == nil {
		history = []*model.TrackingUpdate{}
	}
	return &model.TrackingView{
		PurchaseNumber:  o.PurchaseNumber,
		CurrentStatus:   o.FulfillmentStatus,
		OrderDate:       o.OrderDate,
		TrackingHistory: history,
	}, nil
}

// SalesSummary sums paid order totals for today, this week (from Sunday) and
// all time, in now's location.
func (s *OrderService) SalesSummary(ctx context.Context, now time.Time) (*model.SalesSummary, error) {
	day := now.Format(time.DateOnly)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, day)
		if err != nil {
			s.log.Warn("sales summary cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	dayStart, weekStart := periodStarts(now)
	var summary model.SalesSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary.DailySales, err = s.orders.SumPaidSince(gctx, dayStart)
		return err
	})
	g.Go(func() (err error) {
		summary.WeeklySales, err = s.orders.SumPaidSince(gctx, weekStart)
		return err
	})
	g.Go(func() (err error) {
		summary.TotalSales, err = s.orders.SumPaidSince(gctx, time.Time{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Unexpected(err, "aggregating sales")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, day, &summary); err != nil {
			s.log.Warn("sales summary cache write failed", zap.Error(err))
		}
	}
	return &summary, nil
}

// periodStarts returns midnight today and midnight of the most recent Sunday.
func periodStarts(now time.Time) (time.Time, time.Time) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := dayStart.AddDate(0, 0, -int(now.Weekday()))
	return dayStart, weekStart
}
