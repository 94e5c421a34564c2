// Package forkcache implements the content-addressed cache sitting in
// front of a fork source: immutable upstream content (blocks, code,
// receipts) is cached indefinitely once fetched, while mutable content
// (e.g. storage at "latest") must never be cached. Concurrent fetches for
// the same key are coalesced with singleflight so a cache stampede never
// issues the same upstream call twice.
package forkcache

import (
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/sync/singleflight"
)

// Policy selects the cache's backing store.
type Policy int

const (
	// None disables caching: every Fetch is a miss.
	None Policy = iota
	// Memory backs the cache with an in-process fastcache instance.
	Memory
	// Disk backs the cache with a goleveldb database on disk.
	Disk
)

// Cache is a content-addressed byte-slice cache with single-flight
// coalescing of concurrent misses for the same key.
type Cache struct {
	policy Policy
	mem    *fastcache.Cache
	disk   *leveldb.DB
	group  singleflight.Group
}

// MemorySizeBytes is the default fastcache capacity for the Memory policy.
const MemorySizeBytes = 64 * 1024 * 1024

// New constructs a cache for the given policy. dbPath is only used by the
// Disk policy.
func New(policy Policy, dbPath string) (*Cache, error) {
	c := &Cache{policy: policy}
	switch policy {
	case Memory:
		c.mem = fastcache.New(MemorySizeBytes)
	case Disk:
		db, err := leveldb.OpenFile(dbPath, nil)
		if err != nil {
			return nil, fmt.Errorf("forkcache: open leveldb at %s: %w", dbPath, err)
		}
		c.disk = db
	case None:
		// nothing to initialize
	default:
		return nil, fmt.Errorf("forkcache: unknown policy %d", policy)
	}
	return c, nil
}

// Close releases any on-disk resources held by the cache.
func (c *Cache) Close() error {
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}

func (c *Cache) get(key []byte) ([]byte, bool) {
	switch c.policy {
	case Memory:
		v, ok := c.mem.HasGet(nil, key)
		return v, ok
	case Disk:
		v, err := c.disk.Get(key, nil)
		if err != nil {
			return nil, false
		}
		return v, true
	default:
		return nil, false
	}
}

func (c *Cache) set(key, value []byte) {
	switch c.policy {
	case Memory:
		c.mem.Set(key, value)
	case Disk:
		_ = c.disk.Put(key, value, nil)
	}
}

// Fetch returns the cached value for key, or calls load to populate it.
// Concurrent Fetch calls for the same key share one in-flight load.
func (c *Cache) Fetch(key string, load func() ([]byte, error)) ([]byte, error) {
	if c.policy == None {
		return load()
	}
	if v, ok := c.get([]byte(key)); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if cached, ok := c.get([]byte(key)); ok {
			return cached, nil
		}
		value, err := load()
		if err != nil {
			return nil, err
		}
		c.set([]byte(key), value)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
