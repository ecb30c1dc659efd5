package handlers

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/models"
)

// ErrUnknownCategory is returned when a category slug does not resolve.
var ErrUnknownCategory = errors.New("unknown category")

// CategoryCache is a read-through cache mapping category slug to id.
// Categories are near-static so entries live for the full TTL. Unknown
// slugs are never cached, so a category added later resolves on the next
// lookup.
type CategoryCache struct {
	resolve func(ctx context.Context, slug string) (int, error)
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]categoryEntry
}

type categoryEntry struct {
	id      int
	expires time.Time
}

// NewCategoryCache creates a cache over the given resolver. The resolver
// must return ErrUnknownCategory for slugs that do not exist.
func NewCategoryCache(resolve func(ctx context.Context, slug string) (int, error), ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		resolve: resolve,
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]categoryEntry{},
	}
}

// Resolve returns the category id for slug, consulting the resolver on a
// miss or after TTL expiry.
func (c *CategoryCache) Resolve(ctx context.Context, slug string) (int, error) {
	c.mu.Lock()
	entry, ok := c.entries[slug]
	c.mu.Unlock()

	if ok && c.now().Before(entry.expires) {
		return entry.id, nil
	}

	id, err := c.resolve(ctx, slug)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.entries[slug] = categoryEntry{id: id, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return id, nil
}

func categoryResolver(db *bun.DB) func(ctx context.Context, slug string) (int, error) {
	return func(ctx context.Context, slug string) (int, error) {
		var id int
		err := db.NewSelect().
			Model((*models.Category)(nil)).
			Column("id").
			Where("slug = ?", slug).
			Scan(ctx, &id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownCategory
		}
		if err != nil {
			return 0, err
		}
		return id, nil
	}
}
