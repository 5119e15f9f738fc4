package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/philly/school-finance/backend/internal/balancesheet/domain"
	"github.com/philly/school-finance/backend/internal/balancesheet/ports"
)

const keyPrefix = "schoolfin:balancesheet:"

// BalanceSheetCache stores generated sheets as JSON with a TTL.
type BalanceSheetCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBalanceSheetCache(client *redis.Client, ttl time.Duration) *BalanceSheetCache {
	return &BalanceSheetCache{client: client, ttl: ttl}
}

func (c *BalanceSheetCache) Get(ctx context.Context, year int) (*domain.Sheet, error) {
	data, err := c.client.Get(ctx, key(year)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("BalanceSheetCache.Get: %w", err)
	}

	var sheet domain.Sheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("BalanceSheetCache.Get: decode: %w", err)
	}
	return &sheet, nil
}

func (c *BalanceSheetCache) Set(ctx context.Context, sheet *domain.Sheet) error {
	data, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("BalanceSheetCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, key(sheet.Year), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("BalanceSheetCache.Set: %w", err)
	}
	return nil
}

func (c *BalanceSheetCache) Delete(ctx context.Context, year int) error {
	if err := c.client.Del(ctx, key(year)).Err(); err != nil {
		return fmt.Errorf("BalanceSheetCache.Delete: %w", err)
	}
	return nil
}

func key(year int) string {
	return fmt.Sprintf("%s%d", keyPrefix, year)
}
