package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/xyz-asif/citycare/internal/features/reports"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// MockIDPrefix marks reports that only ever existed in the local cache.
const MockIDPrefix = "MOCK-"

// IsMockID reports whether id was assigned by the local cache.
func IsMockID(id string) bool {
	return strings.HasPrefix(id, MockIDPrefix)
}

// LocalCache is the reporter-side fallback: a JSON array of reports in a
// single file, so it survives restarts. It is never merged with the
// server's fallback store and never promoted to the server.
type LocalCache struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
	now  func() time.Time
}

func NewLocalCache(path string) *LocalCache {
	return &LocalCache{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  time.Now,
	}
}

// DefaultCachePath returns CITYCARE_CACHE_FILE, or reports.json under the
// user cache directory.
func DefaultCachePath() string {
	if v := strings.TrimSpace(os.Getenv("CITYCARE_CACHE_FILE")); v != "" {
		return v
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "citycare", "reports.json")
}

func (c *LocalCache) Path() string { return c.path }

// List returns the cached reports, newest first.
func (c *LocalCache) List() ([]reports.Report, error) {
	var out []reports.Report
	err := c.withLock(func() error {
		list, err := c.read()
		out = list
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Add appends report.
func (c *LocalCache) Add(report reports.Report) error {
	return c.withLock(func() error {
		list, err := c.read()
		if err != nil {
			return err
		}
		return c.write(append(list, report))
	})
}

// UpdateStatus sets the status of a cached report. Repeating the same
// status leaves updatedAt untouched.
func (c *LocalCache) UpdateStatus(id string, status reports.Status) (*reports.Report, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("status", fmt.Sprintf("invalid status %q", status))
	}
	var updated *reports.Report
	err := c.withLock(func() error {
		list, err := c.read()
		if err != nil {
			return err
		}
		for i := range list {
			if list[i].ID != id {
				continue
			}
			if list[i].Status != status {
				list[i].Status = status
				list[i].UpdatedAt = c.now().UTC()
			}
			r := list[i]
			updated = &r
			return c.write(list)
		}
		return apperrors.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a cached report.
func (c *LocalCache) Delete(id string) error {
	return c.withLock(func() error {
		list, err := c.read()
		if err != nil {
			return err
		}
		for i := range list {
			if list[i].ID == id {
				return c.write(append(list[:i], list[i+1:]...))
			}
		}
		return apperrors.ErrNotFound
	})
}

// Clear removes every cached report.
func (c *LocalCache) Clear() error {
	return c.withLock(func() error {
		err := os.Remove(c.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	})
}

func (c *LocalCache) withLock(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	defer c.lock.Unlock()

	return fn()
}

func (c *LocalCache) read() ([]reports.Report, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return []reports.Report{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []reports.Report{}, nil
	}
	var list []reports.Report
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", c.path, err)
	}
	return list, nil
}

func (c *LocalCache) write(list []reports.Report) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}
