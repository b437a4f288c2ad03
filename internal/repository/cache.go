package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

const (
	itemKeyPrefix     = "item:"
	itemListKeyPrefix = "items:"
	defaultCacheTTL   = 2 * time.Minute
)

// CatalogCache caches catalog reads for the browse path. Any stock mutation
// must invalidate the affected entries; the store stays authoritative.
type CatalogCache interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
	SetItem(ctx context.Context, item *models.Item) error
	GetList(ctx context.Context, category models.Category) ([]*models.Item, error)
	SetList(ctx context.Context, category models.Category, items []*models.Item) error
	Invalidate(ctx context.Context, id string) error
}

// RedisCatalogCache implements CatalogCache using Redis.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

func NewRedisCatalogCache(cfg config.RedisConfig, logger *logrus.Logger) *RedisCatalogCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisCatalogCache{
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "catalog-cache"),
	}
}

var _ CatalogCache = (*RedisCatalogCache)(nil)

// GetItem retrieves a cached item, returning (nil, nil) on a miss.
func (c *RedisCatalogCache) GetItem(ctx context.Context, id string) (*models.Item, error) {
	data, err := c.client.Get(ctx, itemKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{"item_id": id, "error": err.Error()}).Error("Cache get error")
		return nil, err
	}

	var item models.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SetItem caches an item.
func (c *RedisCatalogCache) SetItem(ctx context.Context, item *models.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, itemKeyPrefix+item.ID, data, c.ttl).Err()
}

// GetList retrieves a cached item list for a category ("" means all).
func (c *RedisCatalogCache) GetList(ctx context.Context, category models.Category) ([]*models.Item, error) {
	data, err := c.client.Get(ctx, listKey(category)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []*models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetList caches an item list for a category.
func (c *RedisCatalogCache) SetList(ctx context.Context, category models.Category, items []*models.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listKey(category), data, c.ttl).Err()
}

// Invalidate drops the item entry and all list entries. List keys are few and
// known (one per category plus "all"), so no SCAN is needed.
func (c *RedisCatalogCache) Invalidate(ctx context.Context, id string) error {
	keys := []string{
		itemKeyPrefix + id,
		listKey(""),
		listKey(models.CategoryBeverages),
		listKey(models.CategoryIceCream),
		listKey(models.CategoryChocolate),
		listKey(models.CategorySnacks),
		listKey(models.CategoryOthers),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithFields(logrus.Fields{"item_id": id, "error": err.Error()}).Error("Cache invalidation error")
		return err
	}
	c.logger.WithFields(logrus.Fields{"item_id": id}).Debug("Catalog cache invalidated")
	return nil
}

func listKey(category models.Category) string {
	if category == "" {
		return itemListKeyPrefix + "all"
	}
	return itemListKeyPrefix + string(category)
}
