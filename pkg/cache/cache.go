// Package cache memoizes per-slice segmentation results on disk. The
// segmentation of one slice is a pure function of the image and the sweep
// parameters, so a result computed once can be replayed from disk for the
// price of a decode.
package cache

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
)

// Disk persists computed tables as gob files named after their key inside
// a cache folder. Concurrent calls with the same key are collapsed into a
// single computation.
type Disk struct {
	folder string
	log    logrus.FieldLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDisk creates a disk cache rooted at folder, creating it if needed.
func NewDisk(folder string, log logrus.FieldLogger) (*Disk, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("cache: creating folder: %w", err)
	}
	return &Disk{folder: folder, log: log, locks: make(map[string]*sync.Mutex)}, nil
}

// keyLock returns the mutex guarding one cache key.
func (c *Disk) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// Cached returns the table stored under key, computing and persisting it
// on a miss. Compute errors are returned as-is and nothing is persisted
// for them, so a later call retries. At most one computation runs per key
// at a time.
func (c *Disk) Cached(key string, compute func() (models.Table, error)) (models.Table, error) {
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(c.folder, key+".gob")
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		var table models.Table
		if err := gob.NewDecoder(f).Decode(&table); err == nil {
			c.log.WithField("key", key).Debug("cache hit")
			return table, nil
		}
		// Unreadable entry: fall through and recompute over it.
		c.log.WithField("key", key).Warn("discarding corrupt cache entry")
	}

	table, err := compute()
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cache: writing %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(table); err != nil {
		return nil, fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	c.log.WithField("key", key).Debug("cache store")
	return table, nil
}

// Nop is a pass-through cache that always recomputes.
type Nop struct{}

// Cached invokes compute directly.
func (Nop) Cached(key string, compute func() (models.Table, error)) (models.Table, error) {
	return compute()
}
