package client

import (
	"context"
	"errors"
	"sync"

	"github.com/xyz-asif/citycare/internal/features/reports"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Source tells where the dashboard's current data came from.
type Source string

const (
	SourceServer Source = "server"
	SourceCache  Source = "cache"
)

// Dashboard is the admin query view: a fetched list, a stats summary, and
// status/delete actions that always re-fetch afterwards.
type Dashboard struct {
	api   *APIClient
	cache *LocalCache

	mu      sync.RWMutex
	reports []reports.Report
	stats   reports.Stats
	mode    reports.Mode
	source  Source
}

func NewDashboard(api *APIClient, cache *LocalCache) *Dashboard {
	return &Dashboard{api: api, cache: cache, reports: []reports.Report{}}
}

// Refresh reloads the list and the stats summary. When the API is down
// the local cache is shown instead and stats are computed from it.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if _, err := d.api.Health(ctx); err != nil {
		return d.loadCache(err)
	}

	var (
		list     []reports.Report
		summary  *reports.StatsResponse
		statsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = d.api.ListReports(gctx, "")
		return err
	})
	g.Go(func() error {
		summary, statsErr = d.api.Stats(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			return d.loadCache(err)
		}
		return err
	}

	stats := reports.Summarize(list)
	mode := reports.ModeOnline
	if statsErr == nil && summary != nil {
		stats = summary.Stats
		mode = summary.Mode
	} else {
		logger.Warn("Stats summary unavailable, computing locally: %v", statsErr)
	}

	d.set(list, stats, mode, SourceServer)
	return nil
}

func (d *Dashboard) loadCache(cause error) error {
	logger.Warn("API unavailable, showing locally cached reports: %v", cause)
	list, err := d.cache.List()
	if err != nil {
		return err
	}
	d.set(list, reports.Summarize(list), ModeMock, SourceCache)
	return nil
}

func (d *Dashboard) set(list []reports.Report, stats reports.Stats, mode reports.Mode, source Source) {
	if list == nil {
		list = []reports.Report{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = list
	d.stats = stats
	d.mode = mode
	d.source = source
}

// Reports returns the last fetched list.
func (d *Dashboard) Reports() []reports.Report {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]reports.Report(nil), d.reports...)
}

func (d *Dashboard) Stats() reports.Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// Mode is the server's mode, or mock when showing the local cache.
func (d *Dashboard) Mode() reports.Mode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

func (d *Dashboard) Source() Source {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.source
}

// Filter applies status to the fetched list without another request.
func (d *Dashboard) Filter(status string) []reports.Report {
	return reports.FilterByStatus(d.Reports(), status)
}

// UpdateStatus changes a report's status and re-fetches everything. Local
// ids, or any id while the API is down, are updated in the cache.
func (d *Dashboard) UpdateStatus(ctx context.Context, id string, status reports.Status) error {
	err := d.viaAPI(ctx, id, func() error {
		_, err := d.api.UpdateStatus(ctx, id, status)
		return err
	}, func() error {
		_, err := d.cache.UpdateStatus(id, status)
		return err
	})
	if err != nil {
		return err
	}
	return d.Refresh(ctx)
}

// Delete removes a report and re-fetches everything.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	err := d.viaAPI(ctx, id, func() error {
		return d.api.DeleteReport(ctx, id)
	}, func() error {
		return d.cache.Delete(id)
	})
	if err != nil {
		return err
	}
	return d.Refresh(ctx)
}

func (d *Dashboard) viaAPI(ctx context.Context, id string, remote, local func() error) error {
	if IsMockID(id) {
		return local()
	}
	if _, err := d.api.Health(ctx); err != nil {
		return local()
	}
	err := remote()
	if errors.Is(err, ErrBackendUnavailable) {
		return local()
	}
	return err
}
