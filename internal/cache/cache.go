// Package cache is a bbolt-backed key-value store with per-entry expiry,
// used to deduplicate external provider calls. Caching is a performance
// optimization only: every failure mode degrades to a miss.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const DefaultTTL = 6 * time.Hour

const bucketEntries = "entries"

type entry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type Cache struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

func Open(path string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketEntries))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached payload for key, or ok=false on a miss. Expired and
// undecodable entries count as misses; expiry is lazy, the stale entry is
// removed on the next Set for the same key.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	var e entry
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketEntries)).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &e); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false
	}
	if !c.now().Before(e.ExpiresAt) {
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key with the cache's default TTL, overwriting any
// prior entry. Use SetTTL for a per-entry override.
func (c *Cache) Set(key string, value json.RawMessage) error {
	return c.SetTTL(key, value, c.ttl)
}

func (c *Cache) SetTTL(key string, value json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	raw, err := json.Marshal(entry{Value: value, ExpiresAt: c.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketEntries)).Put([]byte(key), raw)
	})
}
