// Package catalog holds the pool of content the ranker chooses from.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// DefaultMaxItems bounds the pool.
const DefaultMaxItems = 1000

// Catalog is an insertion-ordered, bounded set of content items keyed by id.
type Catalog struct {
	mu       sync.RWMutex
	items    []model.ContentItem
	maxItems int

	kv     storage.KV
	now    func() time.Time
	logger logger.Logger
}

// New loads the persisted pool. Unreadable state starts an empty pool.
func New(ctx context.Context, opts ...Option) *Catalog {
	c := &Catalog{
		maxItems: DefaultMaxItems,
		kv:       storage.NewMemory(),
		now:      time.Now,
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	var items []model.ContentItem
	err := storage.LoadJSON(ctx, c.kv, storage.KeyContent, &items)
	switch {
	case err == nil:
	case storage.IsNotFound(err):
	case errors.Is(err, storage.ErrCorrupt):
		metrics.RecordStateReset("content")
		c.logger.Error(ctx, "content pool corrupt; starting empty", logger.Error(err))
		items = nil
	default:
		c.logger.Warn(ctx, "content pool load failed; starting empty", logger.Error(err))
		items = nil
	}
	for _, it := range items {
		if it.ID != "" {
			c.items = append(c.items, it)
		}
	}
	c.trimLocked()
	metrics.UpdateCatalogSize(len(c.items))

	return c
}

// Add inserts item, replacing any item with the same id in place. A zero
// publish time is stamped with now.
func (c *Catalog) Add(ctx context.Context, item model.ContentItem) (model.ContentItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return model.ContentItem{}, ErrInvalidItem
	}
	if item.PublishedAt.IsZero() {
		item.PublishedAt = c.now()
	}
	if item.Popularity < 0 {
		item.Popularity = 0
	}
	item.Tags = append([]string(nil), item.Tags...)

	c.mu.Lock()
	if i := c.indexLocked(item.ID); i >= 0 {
		c.items[i] = item
	} else {
		c.items = append(c.items, item)
		c.trimLocked()
	}
	size := len(c.items)
	c.persistLocked(ctx)
	c.mu.Unlock()

	metrics.UpdateCatalogSize(size)
	return item, nil
}

// Get returns the item with id.
func (c *Catalog) Get(_ context.Context, id string) (model.ContentItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], nil
	}
	return model.ContentItem{}, ErrNotFound
}

// Remove deletes the item with id.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	size := len(c.items)
	c.persistLocked(ctx)
	c.mu.Unlock()

	metrics.UpdateCatalogSize(size)
	return nil
}

// List returns a copy of the pool in insertion order.
func (c *Catalog) List(_ context.Context) []model.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.ContentItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the pool size.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Catalog) indexLocked(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) trimLocked() {
	if over := len(c.items) - c.maxItems; over > 0 {
		c.items = append([]model.ContentItem(nil), c.items[over:]...)
	}
}

func (c *Catalog) persistLocked(ctx context.Context) {
	if err := storage.SaveJSON(ctx, c.kv, storage.KeyContent, c.items); err != nil {
		c.logger.Warn(ctx, "content pool persist failed", logger.Error(err))
	}
}
