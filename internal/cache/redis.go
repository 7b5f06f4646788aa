// Package cache keeps product reads in Redis. Every failure degrades to a
// miss so the store stays the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/models"
)

type ProductCache interface {
	GetProduct(ctx context.Context, id string) (*models.Product, bool)
	SetProduct(ctx context.Context, p *models.Product)
	InvalidateProduct(ctx context.Context, id string)
}

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, logger: logger.Named("cache")}
}

func productKey(id string) string {
	return "product:" + id
}

func (c *Redis) GetProduct(ctx context.Context, id string) (*models.Product, bool) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("id", id), zap.Error(err))
		}
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (c *Redis) SetProduct(ctx context.Context, p *models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productKey(p.ID.Hex()), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("id", p.ID.Hex()), zap.Error(err))
	}
}

func (c *Redis) InvalidateProduct(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, productKey(id)).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("id", id), zap.Error(err))
	}
}

// Nop is used when no Redis address is configured.
type Nop struct{}

func (Nop) GetProduct(context.Context, string) (*models.Product, bool) { return nil, false }
func (Nop) SetProduct(context.Context, *models.Product)               {}
func (Nop) InvalidateProduct(context.Context, string)                 {}
