package infrastructure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
)

const (
	categoryListKeyPrefix    = "categories:list:"
	categoryWrittenKeyPrefix = "categories:written:"

	DefaultCategoryCacheTTL = 5 * time.Minute
)

// CachedCategoryRepository serves ListByOwner from Redis. All lists of one owner live in a single
// hash, one field per filter, and every write deletes that hash before returning. A missing hash is
// always a plain miss, so eviction can only cost a storage read.
//
// A fill is written under WATCH on the owner's written marker, which every write touches, so a list
// read from storage before a concurrent write commits is never stored after it. When a delete fails
// the owner is bypassed in this process until a later delete succeeds.
type CachedCategoryRepository struct {
	next   domain.CategoryRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	stale map[string]struct{}
}

func NewCachedCategoryRepository(next domain.CategoryRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedCategoryRepository {
	if ttl <= 0 {
		ttl = DefaultCategoryCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCategoryRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
		stale:  make(map[string]struct{}),
	}
}

func (c *CachedCategoryRepository) ListByOwner(ctx context.Context, userID string, filter domain.CategoryFilter) ([]domain.Category, error) {
	if c.isStale(userID) {
		if err := c.invalidate(ctx, userID); err != nil {
			return c.next.ListByOwner(ctx, userID, filter)
		}
		c.markFresh(userID)
	}

	key, field := categoryListKey(userID), categoryListField(filter)
	cached, err := c.client.HGet(ctx, key, field).Bytes()
	switch {
	case err == nil:
		var categories []domain.Category
		if err := json.Unmarshal(cached, &categories); err == nil {
			for i := range categories {
				categories[i].UserID = userID
			}
			return categories, nil
		}
		c.logger.Warn("discarding corrupt category cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("category cache unavailable, reading from storage", slog.String("error", err.Error()))
		return c.next.ListByOwner(ctx, userID, filter)
	}

	return c.fill(ctx, userID, key, field, filter)
}

// fill reads the list from storage and stores it unless a write touched the owner meanwhile.
func (c *CachedCategoryRepository) fill(ctx context.Context, userID, key, field string, filter domain.CategoryFilter) ([]domain.Category, error) {
	var (
		categories []domain.Category
		storageErr error
	)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		categories, storageErr = c.next.ListByOwner(ctx, userID, filter)
		if storageErr != nil {
			return storageErr
		}

		payload, err := json.Marshal(categories)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, payload)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, categoryWrittenKey(userID))

	if storageErr != nil {
		return nil, storageErr
	}
	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("category list changed while filling cache", slog.String("user_id", userID))
	default:
		c.logger.Warn("category cache write failed", slog.String("error", err.Error()))
	}
	return categories, nil
}

func (c *CachedCategoryRepository) FindOwned(ctx context.Context, userID, categoryID string) (domain.Category, error) {
	return c.next.FindOwned(ctx, userID, categoryID)
}

func (c *CachedCategoryRepository) UpdateOwned(ctx context.Context, userID, categoryID, name string, categoryType domain.CategoryType) (domain.Category, error) {
	category, err := c.next.UpdateOwned(ctx, userID, categoryID, name, categoryType)
	if err != nil {
		return domain.Category{}, err
	}
	c.afterWrite(ctx, userID)
	return category, nil
}

func (c *CachedCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if err := c.next.Create(ctx, category); err != nil {
		return err
	}
	c.afterWrite(ctx, category.UserID)
	return nil
}

// afterWrite drops the owner's cached lists. The write is already committed, so a failed delete is
// not returned; the owner is read from storage until a delete goes through.
func (c *CachedCategoryRepository) afterWrite(ctx context.Context, userID string) {
	if err := c.invalidate(ctx, userID); err != nil {
		c.markStale(userID)
		c.logger.Error("category cache invalidation failed, bypassing cache for owner",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	c.markFresh(userID)
}

func (c *CachedCategoryRepository) invalidate(ctx context.Context, userID string) error {
	ctx = context.WithoutCancel(ctx)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, categoryListKey(userID))
		pipe.Set(ctx, categoryWrittenKey(userID), time.Now().UnixNano(), c.ttl)
		return nil
	})
	return err
}

func (c *CachedCategoryRepository) isStale(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.stale[userID]
	return ok
}

func (c *CachedCategoryRepository) markStale(userID string) {
	c.mu.Lock()
	c.stale[userID] = struct{}{}
	c.mu.Unlock()
}

func (c *CachedCategoryRepository) markFresh(userID string) {
	c.mu.Lock()
	delete(c.stale, userID)
	c.mu.Unlock()
}

func categoryListKey(userID string) string {
	return categoryListKeyPrefix + userID
}

func categoryWrittenKey(userID string) string {
	return categoryWrittenKeyPrefix + userID
}

func categoryListField(filter domain.CategoryFilter) string {
	filterType := filter.Type
	if filterType == "" {
		filterType = domain.CategoryTypeAll
	}
	return string(filterType) + ":" + hashSearchQuery(filter.SearchQuery)
}

// hashSearchQuery keeps free text out of field names. Matching is case-insensitive, so the field is too.
func hashSearchQuery(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:8])
}
