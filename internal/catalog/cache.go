package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	booksKeyPrefix = "books:category:"
	categoriesKey  = "categories"
)

// CachedRepository is a read-through Redis cache in front of a Repository.
// Only the browse queries (book and category listings) are cached; checkout
// always reads prices straight from the store so order snapshots reflect the
// catalog at the moment of purchase.
type CachedRepository struct {
	Repository

	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, logger *log.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: inner,
		client:     client,
		ttl:        ttl,
		logger:     logger,
	}
}

func (c *CachedRepository) ListBooks(ctx context.Context, categoryID string) ([]Book, error) {
	key := booksKeyPrefix + categoryID

	var books []Book
	if c.getCached(ctx, key, &books) {
		return books, nil
	}

	books, err := c.Repository.ListBooks(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	c.setCached(ctx, key, books)
	return books, nil
}

func (c *CachedRepository) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if c.getCached(ctx, categoriesKey, &categories) {
		return categories, nil
	}

	categories, err := c.Repository.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	c.setCached(ctx, categoriesKey, categories)
	return categories, nil
}

// CreateBook invalidates the affected listings after a write.
func (c *CachedRepository) CreateBook(ctx context.Context, b *Book) error {
	if err := c.Repository.CreateBook(ctx, b); err != nil {
		return err
	}
	if err := c.client.Del(ctx, booksKeyPrefix+b.CategoryID, booksKeyPrefix).Err(); err != nil {
		c.logger.Printf("cache invalidate: %v", err)
	}
	return nil
}

// Cache misses and Redis errors both fall through to the database; a flaky
// cache must never take down the browse endpoints.
func (c *CachedRepository) getCached(ctx context.Context, key string, v any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Printf("cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Printf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *CachedRepository) setCached(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Printf("cache set %s: %v", key, err)
	}
}
