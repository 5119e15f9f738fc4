package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/philly/school-finance/backend/internal/balancesheet/domain"
	"github.com/philly/school-finance/backend/internal/balancesheet/ports"
)

// Connect parses a redis:// URL, pings the server and returns the client
// with its cleanup func.
func Connect(ctx context.Context, url string) (*redis.Client, func(), error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, func() { _ = client.Close() }, nil
}

// NopSheetCache is used when no Redis is configured; every read misses.
type NopSheetCache struct{}

func (NopSheetCache) Get(ctx context.Context, year int) (*domain.Sheet, error) {
	return nil, ports.ErrCacheMiss
}

func (NopSheetCache) Set(ctx context.Context, sheet *domain.Sheet) error { return nil }

func (NopSheetCache) Delete(ctx context.Context, year int) error { return nil }
