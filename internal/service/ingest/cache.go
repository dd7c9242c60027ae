package ingest

import (
	"strconv"
	"sync"
)

// resolveCache memoizes dimension ids for the duration of a single run.
// Feed batches repeat the same state/district/market/commodity tuples
// thousands of times; caching turns most resolutions into map hits.
//
// The cache is safe for concurrent workers. A miss is resolved outside the
// lock, so two concurrent misses may both hit storage. That is harmless:
// resolution is idempotent and both converge to the same id.
type resolveCache struct {
	mu      sync.RWMutex
	entries map[string]int64
}

func newResolveCache() *resolveCache {
	return &resolveCache{entries: make(map[string]int64)}
}

func (c *resolveCache) get(key string, resolve func() (int64, error)) (int64, error) {
	c.mu.RLock()
	id, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := resolve()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.entries[key] = id
	c.mu.Unlock()

	return id, nil
}

func (c *resolveCache) state(name string, resolve func() (int64, error)) (int64, error) {
	return c.get("s\x00"+name, resolve)
}

func (c *resolveCache) district(stateID int64, name string, resolve func() (int64, error)) (int64, error) {
	return c.get("d\x00"+strconv.FormatInt(stateID, 10)+"\x00"+name, resolve)
}

func (c *resolveCache) market(districtID int64, name string, resolve func() (int64, error)) (int64, error) {
	return c.get("m\x00"+strconv.FormatInt(districtID, 10)+"\x00"+name, resolve)
}

func (c *resolveCache) commodity(name, variety, grade string, resolve func() (int64, error)) (int64, error) {
	return c.get("c\x00"+name+"\x00"+variety+"\x00"+grade, resolve)
}
