package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

// Snapshot is the cached dashboard input
type Snapshot struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Sources   []string      `json:"sources"`
	Results   []swim.Result `json:"results"`
}

// Cache stores one Snapshot on disk and treats it as stale after ttl.
// A ttl of zero disables expiry.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewCache creates a Cache at path, creating the parent directory
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "getting home directory")
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "creating cache directory")
	}

	return &Cache{path: path, ttl: ttl, now: time.Now}, nil
}

// Path returns the cache file location
func (c *Cache) Path() string {
	return c.path
}

// Load returns the cached snapshot. ok is false when there is no cache file or
// the snapshot has expired.
func (c *Cache) Load() (snap *Snapshot, ok bool, err error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "reading cache")
	}

	snap = &Snapshot{}
	if err := sonic.Unmarshal(data, snap); err != nil {
		return nil, false, errors.Wrap(err, "parsing cache")
	}

	if c.ttl > 0 && c.now().Sub(snap.FetchedAt) > c.ttl {
		return snap, false, nil
	}
	return snap, true, nil
}

// Save writes results as the current snapshot
func (c *Cache) Save(sources []string, results []swim.Result) error {
	snap := Snapshot{
		FetchedAt: c.now().UTC(),
		Sources:   sources,
		Results:   results,
	}

	data, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding cache")
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "writing cache")
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return errors.Wrap(err, "replacing cache")
	}
	return nil
}

// Clear removes the cache file. Clearing an absent cache is not an error.
func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing cache")
	}
	return nil
}
