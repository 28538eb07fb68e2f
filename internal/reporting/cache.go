package reporting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/singleflight"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/metrics"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// DefaultBatchSize is the largest id list the store accepts in one lookup.
const DefaultBatchSize = 10

// Loader fetches raw documents by id.
type Loader interface {
	FindByID(ctx context.Context, entity models.EntityType, id string) (bson.Raw, error)
	FindByIDs(ctx context.Context, entity models.EntityType, ids []string) (map[string]bson.Raw, error)
}

// CacheKey is "{entityType}_{id}".
func CacheKey(entity models.EntityType, id string) string {
	return string(entity) + "_" + id
}

type flight struct {
	done chan struct{}
	err  error
}

// Cache memoizes documents by CacheKey for the lifetime of one view. A
// document that does not exist is remembered as missing so it is not
// fetched again. Ids already being fetched by another caller are waited on
// rather than fetched twice.
type Cache struct {
	loader    Loader
	batchSize int
	metrics   *metrics.Metrics

	mu       sync.Mutex
	entries  map[string]bson.Raw // nil value: known missing
	inflight map[string]*flight
	closed   bool
	single   singleflight.Group
}

type CacheOption func(*Cache)

func WithBatchSize(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

func NewCache(loader Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader:    loader,
		batchSize: DefaultBatchSize,
		entries:   map[string]bson.Raw{},
		inflight:  map[string]*flight{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) observe(entity models.EntityType, result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(string(entity), result).Inc()
	}
}

func (c *Cache) fetched(entity models.EntityType, kind string) {
	if c.metrics != nil {
		c.metrics.StoreFetches.WithLabelValues(string(entity), kind).Inc()
	}
}

// Resolve returns the documents for ids. Ids that do not exist are absent
// from the result. Uncached ids are fetched in groups of at most the batch
// size.
func (c *Cache) Resolve(ctx context.Context, entity models.EntityType, ids []string) (map[string]bson.Raw, error) {
	var (
		claimed []string
		waits   []*flight
		seen    = make(map[string]struct{}, len(ids))
	)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrViewClosed
	}
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		key := CacheKey(entity, id)
		if _, ok := c.entries[key]; ok {
			c.observe(entity, "hit")
			continue
		}
		c.observe(entity, "miss")
		if f, ok := c.inflight[key]; ok {
			waits = append(waits, f)
			continue
		}
		c.inflight[key] = &flight{done: make(chan struct{})}
		claimed = append(claimed, id)
	}
	c.mu.Unlock()

	fetchErr := c.fill(ctx, entity, claimed)

	for _, f := range waits {
		select {
		case <-f.done:
			if f.err != nil && fetchErr == nil {
				fetchErr = f.err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	out := make(map[string]bson.Raw, len(seen))
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrViewClosed
	}
	for id := range seen {
		if doc := c.entries[CacheKey(entity, id)]; doc != nil {
			out[id] = doc
		}
	}
	c.mu.Unlock()
	return out, nil
}

// fill fetches the claimed ids chunk by chunk and releases their flights.
// After a failed chunk the remaining flights are released with the same
// error so nobody waits forever.
func (c *Cache) fill(ctx context.Context, entity models.EntityType, claimed []string) error {
	var err error
	for start := 0; start < len(claimed); start += c.batchSize {
		end := start + c.batchSize
		if end > len(claimed) {
			end = len(claimed)
		}
		chunk := claimed[start:end]

		var docs map[string]bson.Raw
		if err == nil {
			c.fetched(entity, "batch")
			docs, err = c.loader.FindByIDs(ctx, entity, chunk)
			if err != nil {
				err = fmt.Errorf("resolve %s: %w", entity, err)
			}
		}

		c.mu.Lock()
		for _, id := range chunk {
			key := CacheKey(entity, id)
			f := c.inflight[key]
			delete(c.inflight, key)
			if err == nil && !c.closed {
				c.entries[key] = docs[id]
			}
			if f != nil {
				f.err = err
				close(f.done)
			}
		}
		c.mu.Unlock()
	}
	return err
}

// Lookup returns one document through a single-document fetch. A missing
// document yields (nil, nil) and is remembered.
func (c *Cache) Lookup(ctx context.Context, entity models.EntityType, id string) (bson.Raw, error) {
	if id == "" {
		return nil, nil
	}
	key := CacheKey(entity, id)

	c.mu.Lock()
	doc, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		c.observe(entity, "hit")
		return doc, nil
	}
	c.observe(entity, "miss")

	v, err, _ := c.single.Do(key, func() (interface{}, error) {
		c.mu.Lock()
		if doc, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return doc, nil
		}
		c.mu.Unlock()

		c.fetched(entity, "single")
		doc, err := c.loader.FindByID(ctx, entity, id)
		if errors.Is(err, database.ErrNotFound) {
			doc, err = nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("lookup %s %s: %w", entity, id, err)
		}
		c.mu.Lock()
		if !c.closed {
			c.entries[key] = doc
		}
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	doc, _ = v.(bson.Raw)
	return doc, nil
}

// Len reports the number of remembered keys, missing ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]bson.Raw{}
	c.mu.Unlock()
}

// Close drops every entry and stops fetches still in flight from storing
// their results. Resolve fails with ErrViewClosed afterwards.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.entries = map[string]bson.Raw{}
	c.mu.Unlock()
}

// Name reads the "name" field of doc, or the entity's placeholder.
func Name(entity models.EntityType, doc bson.Raw) string {
	if doc != nil {
		if name, ok := doc.Lookup("name").StringValueOK(); ok && name != "" {
			return name
		}
	}
	return entity.Placeholder()
}
