package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"storefront/internal/models"
)

func TestRedisDegradesToMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := NewRedis(rdb, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()
	p := &models.Product{ID: primitive.NewObjectID(), Title: "Hammer"}

	c.SetProduct(ctx, p)
	got, ok := c.GetProduct(ctx, p.ID.Hex())
	assert.False(t, ok)
	assert.Nil(t, got)
	c.InvalidateProduct(ctx, p.ID.Hex())
}

func TestNopAlwaysMisses(t *testing.T) {
	var c ProductCache = Nop{}
	c.SetProduct(context.Background(), &models.Product{})
	_, ok := c.GetProduct(context.Background(), "x")
	assert.False(t, ok)
}

func TestProductKey(t *testing.T) {
	assert.Equal(t, "product:abc", productKey("abc"))
}
