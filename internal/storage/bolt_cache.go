package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/internal/logger"
)

const metaBucket = "note_meta"

// defaultStaleness is the window after which a cached metadata entry must be
// refreshed before use.
const defaultStaleness = 7 * 24 * time.Hour

// MetaCache is the staleness-aware store for slowly-changing per-article
// metadata, backed by an embedded bbolt table. Entries are refreshed in
// place and never deleted.
type MetaCache struct {
	db        *bolt.DB
	staleness time.Duration
	log       logger.Logger
}

// CacheOptions controls staleness characteristics of the cache.
type CacheOptions struct {
	Staleness time.Duration
}

// OpenMetaCache opens (creating if needed) the cache at path.
func OpenMetaCache(path string, opts CacheOptions, log logger.Logger) (*MetaCache, error) {
	if opts.Staleness <= 0 {
		opts.Staleness = defaultStaleness
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open meta cache: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init meta bucket: %w", err)
	}

	return &MetaCache{
		db:        db,
		staleness: opts.Staleness,
		log:       logger.Ensure(log),
	}, nil
}

// Close closes the underlying database.
func (c *MetaCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the entry for the note key if it is still authoritative on the
// given date. A stale, absent, or undecodable entry reports ok=false and the
// caller is expected to refresh and PutAll. Decode failures are logged and
// treated as absence: losing one cache entry only costs a refetch.
func (c *MetaCache) Get(noteKey, today string) (domain.NoteMeta, bool, error) {
	var meta domain.NoteMeta
	found := false

	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(metaBucket))
		if bucket == nil {
			return fmt.Errorf("meta bucket missing")
		}
		value := bucket.Get([]byte(noteKey))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &meta); err != nil {
			c.log.WarnObj("undecodable meta cache entry treated as absent", "meta_cache_error", map[string]any{
				"note_key": noteKey,
				"error":    err.Error(),
			})
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return domain.NoteMeta{}, false, err
	}
	if !found || !meta.FreshAt(today, c.staleness) {
		return domain.NoteMeta{}, false, nil
	}
	return meta, true, nil
}

// PutAll writes a batch of refreshed entries in one transaction, bounding
// write amplification to one commit per run regardless of article count.
// Entries should already carry FetchedAt.
func (c *MetaCache) PutAll(entries map[string]domain.NoteMeta) error {
	if len(entries) == 0 {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(metaBucket))
		if bucket == nil {
			return fmt.Errorf("meta bucket missing")
		}
		for key, meta := range entries {
			value, err := json.Marshal(meta)
			if err != nil {
				return fmt.Errorf("encode meta for %s: %w", key, err)
			}
			if err := bucket.Put([]byte(key), value); err != nil {
				return fmt.Errorf("store meta for %s: %w", key, err)
			}
		}
		return nil
	})
}
