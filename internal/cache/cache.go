package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/petcarevet/clinic/internal/models"
)

const productTTL = 5 * time.Minute

// Cache fronts hot catalog reads. A nil *Cache is a valid no-op so the
// handlers work without redis (tests, local runs).
type Cache struct {
	rdb *redis.Client
}

func New(addr, password string) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{rdb: rdb}, nil
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *Cache) GetProduct(ctx context.Context, id uint) (*models.Product, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Cache) SetProduct(ctx context.Context, p *models.Product) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(p.ID), data, productTTL).Err()
}

func (c *Cache) InvalidateProduct(ctx context.Context, id uint) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, productKey(id)).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
