package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	purchaseNumberPrefix = "PO"
	purchaseNumberTTL    = 48 * time.Hour
)

// PurchaseNumbers hands out PO-YYYYMMDD-NNNNNN references from a per-day
// Redis counter. INCR is atomic, so concurrent callers never share a number.
type PurchaseNumbers struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewPurchaseNumbers(client redis.UniversalClient) *PurchaseNumbers {
	return &PurchaseNumbers{client: client, now: time.Now}
}

func (p *PurchaseNumbers) Next(ctx context.Context) (string, error) {
	day := p.now().UTC().Format("20060102")
	k := key("purchase_number", day)

	// The counter is created with its TTL in the same transaction as the
	// first INCR, so a day's key can never be left without an expiry.
	var incr *redis.IntCmd
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, purchaseNumberTTL)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("incrementing purchase number: %w", err)
	}
	seq, err := incr.Result()
	if err != nil {
		return "", fmt.Errorf("incrementing purchase number: %w", err)
	}
	return format(day, seq), nil
}

// Series returns the prefix shared by every number issued on the same day as
// number, or "" if number was not issued by a counter.
func (p *PurchaseNumbers) Series(number string) string {
	day, _, err := parse(number)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-", purchaseNumberPrefix, day)
}

// Reseed raises the day's counter to the sequence of latest so the next
// number issued follows it. A counter already past latest is left alone.
func (p *PurchaseNumbers) Reseed(ctx context.Context, latest string) error {
	day, seq, err := parse(latest)
	if err != nil {
		return err
	}
	k := key("purchase_number", day)

	err = p.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current >= seq {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, seq, purchaseNumberTTL)
			return nil
		})
		return err
	}, k)
	if err != nil {
		return fmt.Errorf("reseeding purchase number: %w", err)
	}
	return nil
}

func format(day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", purchaseNumberPrefix, day, seq)
}

func parse(number string) (day string, seq int64, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != purchaseNumberPrefix || len(parts[1]) != 8 || len(parts[2]) != 6 {
		return "", 0, fmt.Errorf("not a sequential purchase number: %q", number)
	}
	if _, err := time.Parse("20060102", parts[1]); err != nil {
		return "", 0, fmt.Errorf("not a sequential purchase number: %q", number)
	}
	seq, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 1 {
		return "", 0, fmt.Errorf("not a sequential purchase number: %q", number)
	}
	return parts[1], seq, nil
}

// RandomPurchaseNumbers is used when no Redis is configured. Uniqueness then
// rests on the random suffix and the unique index on orders.
type RandomPurchaseNumbers struct {
	now func() time.Time
}

func NewRandomPurchaseNumbers() *RandomPurchaseNumbers {
	return &RandomPurchaseNumbers{now: time.Now}
}

func (r *RandomPurchaseNumbers) Next(context.Context) (string, error) {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("%s-%s-%s", purchaseNumberPrefix, r.now().UTC().Format("20060102"), suffix), nil
}
