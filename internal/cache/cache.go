package cache

import (
	"context"
	"sync"

	"github.com/mrussa/orderbridge/internal/repo"
)

const DefaultCapacity = 256

// RunsCache keeps recently read run reports. Reports never change once
// written, so entries are only evicted for capacity, oldest insert first.
type RunsCache struct {
	mu    sync.RWMutex
	m     map[string]repo.RunReport
	order []string
	cap   int
}

func New(capacity int) *RunsCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RunsCache{m: make(map[string]repo.RunReport, capacity), cap: capacity}
}

func (c *RunsCache) Get(id string) (repo.RunReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.m[id]
	return r, ok
}

func (c *RunsCache) Set(id string, r repo.RunReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[id]; !ok {
		c.order = append(c.order, id)
	}
	c.m[id] = r
	for len(c.order) > c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.m, oldest)
	}
}

func (c *RunsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *RunsCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[id]; !ok {
		return
	}
	delete(c.m, id)
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

type Source interface {
	ListRecentRunIDs(ctx context.Context, limit int) ([]string, error)
	GetRun(ctx context.Context, id string) (repo.RunReport, error)
}

// Warm loads up to limit recent reports, oldest first so the newest survive
// eviction. Reports that fail to load are skipped and counted.
func (c *RunsCache) Warm(ctx context.Context, src Source, limit int) (loaded, failed int, err error) {
	ids, err := src.ListRecentRunIDs(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return loaded, failed, err
		}
		r, err := src.GetRun(ctx, ids[i])
		if err != nil {
			failed++
			continue
		}
		c.Set(ids[i], r)
		loaded++
	}
	return loaded, failed, nil
}
