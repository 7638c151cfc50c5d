package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecommerce-backend/internal/model"

	"github.com/redis/go-redis/v9"
)

// SalesSummaryCache stores the last computed summary for a short TTL. Stale
// totals are acceptable for the dashboard.
type SalesSummaryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewSalesSummaryCache(client redis.Cmdable, ttl time.Duration) *SalesSummaryCache {
	return &SalesSummaryCache{client: client, ttl: ttl}
}

// Get returns (nil, nil) on a miss.
func (c *SalesSummaryCache) Get(ctx context.Context, day string) (*model.SalesSummary, error) {
	raw, err := c.client.Get(ctx, key("sales_summary", day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sales summary: %w", err)
	}

	var s model.SalesSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding sales summary: %w", err)
	}
	return &s, nil
}

func (c *SalesSummaryCache) Set(ctx context.Context, day string, s *model.SalesSummary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key("sales_summary", day), raw, c.ttl).Err()
}
