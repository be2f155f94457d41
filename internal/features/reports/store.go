package reports

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/xyz-asif/citycare/internal/pkg/database"
	"github.com/xyz-asif/citycare/internal/pkg/events"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"github.com/xyz-asif/citycare/internal/pkg/metrics"
	"github.com/xyz-asif/citycare/internal/pkg/storage"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// Reachability is the slice of database.Connection the store depends on.
type Reachability interface {
	Reachable() bool
	MarkUnreachable(cause error)
}

// Store routes report operations to MongoDB while it is reachable and to
// the in-process fallback otherwise. LOCAL- ids always resolve against the
// fallback so reports created offline stay addressable after reconnecting.
// The two stores are never merged implicitly; see Sync.
type Store struct {
	durable   Repository
	local     *MemoryStore
	conn      Reachability
	images    storage.ImageStore
	publisher events.Publisher
	timeout   time.Duration

	syncMu sync.Mutex
	// localMu serializes mutations of fallback reports with Sync claiming
	// them, so a record is never replayed after it was deleted or changed.
	localMu sync.Mutex
	cleanup sync.WaitGroup
}

const defaultOpTimeout = 8 * time.Second

// NewStore wires the store. durable and conn may be nil, in which case
// every operation is served by the fallback.
func NewStore(durable Repository, conn Reachability, images storage.ImageStore, publisher events.Publisher) *Store {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Store{
		durable:   durable,
		local:     NewMemoryStore(),
		conn:      conn,
		images:    images,
		publisher: publisher,
		timeout:   defaultOpTimeout,
	}
}

// Local exposes the fallback store.
func (s *Store) Local() *MemoryStore {
	return s.local
}

// Mode reports which store new writes currently go to.
func (s *Store) Mode() Mode {
	if s.online() {
		return ModeOnline
	}
	return ModeOffline
}

func (s *Store) online() bool {
	return s.durable != nil && s.conn != nil && s.conn.Reachable()
}

func (s *Store) route(id string) (Repository, Mode) {
	if IsLocalID(id) || !s.online() {
		return s.local, ModeOffline
	}
	return s.durable, ModeOnline
}

// fallback reports whether err is a connectivity failure, flipping the
// connection to offline when it is.
func (s *Store) fallback(op string, err error) bool {
	if !database.IsUnavailable(err) {
		return false
	}
	logger.Warn("Durable %s failed, using fallback store: %v", op, err)
	metrics.FallbacksTotal.WithLabelValues(op).Inc()
	if s.conn != nil {
		s.conn.MarkUnreachable(apperrors.Upstream(err))
	}
	return true
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Create validates and persists report, returning the mode that stored it.
func (s *Store) Create(ctx context.Context, report *Report) (Mode, error) {
	if err := report.Validate(); err != nil {
		return "", err
	}
	if report.Status == "" {
		report.Status = StatusSubmitted
	}

	mode := ModeOffline
	if s.online() {
		opCtx, cancel := s.withTimeout(ctx)
		err := s.durable.Create(opCtx, report)
		cancel()
		switch {
		case err == nil:
			mode = ModeOnline
		case !s.fallback("create", err):
			return "", fmt.Errorf("create report: %w", err)
		}
	}

	if mode == ModeOffline {
		if err := s.local.Create(ctx, report); err != nil {
			return "", fmt.Errorf("create report: %w", err)
		}
		metrics.FallbackReports.Set(float64(s.local.Len()))
	}

	metrics.SubmissionsTotal.WithLabelValues(string(mode)).Inc()
	s.publish(ctx, events.ReportCreated, report.ID, mode, report)
	return mode, nil
}

// List returns every report from the active store, newest first.
func (s *Store) List(ctx context.Context) ([]Report, Mode, error) {
	if s.online() {
		opCtx, cancel := s.withTimeout(ctx)
		reports, err := s.durable.List(opCtx)
		cancel()
		if err == nil {
			return reports, ModeOnline, nil
		}
		if !s.fallback("list", err) {
			return nil, ModeOnline, fmt.Errorf("list reports: %w", err)
		}
	}

	reports, err := s.local.List(ctx)
	return reports, ModeOffline, err
}

// Get returns the report with id or apperrors.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Report, error) {
	repo, mode := s.route(id)
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	report, err := repo.Get(opCtx, id)
	if err != nil && mode == ModeOnline && s.fallback("get", err) {
		return s.local.Get(ctx, id)
	}
	return report, err
}

// UpdateStatus sets the status. Repeating the same update is a no-op.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) (*Report, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("status", fmt.Sprintf("invalid status %q", status))
	}

	if IsLocalID(id) {
		s.localMu.Lock()
		defer s.localMu.Unlock()
	}

	repo, mode := s.route(id)
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	report, err := repo.UpdateStatus(opCtx, id, status)
	if err != nil && mode == ModeOnline && s.fallback("update", err) {
		report, err = s.local.UpdateStatus(ctx, id, status)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ReportStatusChanged, report.ID, mode, map[string]Status{"status": report.Status})
	return report, nil
}

// Delete removes the report, then removes its image in the background.
// Image removal failures are logged only.
func (s *Store) Delete(ctx context.Context, id string) error {
	if IsLocalID(id) {
		s.localMu.Lock()
		defer s.localMu.Unlock()
	}

	repo, mode := s.route(id)
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	report, err := repo.Delete(opCtx, id)
	if err != nil && mode == ModeOnline && s.fallback("delete", err) {
		report, err = s.local.Delete(ctx, id)
	}
	if err != nil {
		return err
	}

	if report.IsLocal() {
		metrics.FallbackReports.Set(float64(s.local.Len()))
	}
	s.removeImage(report)
	s.publish(ctx, events.ReportDeleted, report.ID, mode, nil)
	return nil
}

// Stats counts reports per status in the active store.
func (s *Store) Stats(ctx context.Context) (Stats, Mode, error) {
	if s.online() {
		opCtx, cancel := s.withTimeout(ctx)
		stats, err := s.durable.CountByStatus(opCtx)
		cancel()
		if err == nil {
			return stats, ModeOnline, nil
		}
		if !s.fallback("stats", err) {
			return Stats{}, ModeOnline, fmt.Errorf("count reports: %w", err)
		}
	}

	stats, err := s.local.CountByStatus(ctx)
	return stats, ModeOffline, err
}

// Sync replays fallback reports into MongoDB, oldest first. Each replayed
// report gets a new durable id and is removed from the fallback. Sync stops
// early if the durable store becomes unreachable.
func (s *Store) Sync(ctx context.Context) (SyncResult, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	result := SyncResult{Synced: []SyncedReport{}, Failed: []SyncFailure{}}
	if !s.online() {
		return result, apperrors.Upstream(errors.New("durable store is not reachable"))
	}

	for _, pending := range s.local.Pending() {
		synced, err := s.syncOne(ctx, pending.ID)
		if err != nil {
			result.Failed = append(result.Failed, SyncFailure{LocalID: pending.ID, Error: err.Error()})
			if s.fallback("sync", err) {
				break
			}
			continue
		}
		if synced == nil {
			continue
		}
		result.Synced = append(result.Synced, *synced)
		s.publish(ctx, events.ReportSynced, synced.ID, ModeOnline, *synced)
	}

	metrics.FallbackReports.Set(float64(s.local.Len()))
	logger.Info("Sync finished: %d synced, %d failed", len(result.Synced), len(result.Failed))
	return result, nil
}

// syncOne moves one fallback report into MongoDB while holding localMu.
// It returns nil, nil when the report was deleted before it was claimed.
func (s *Store) syncOne(ctx context.Context, localID string) (*SyncedReport, error) {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	current, err := s.local.Get(ctx, localID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	report := *current
	report.ID = ""

	opCtx, cancel := s.withTimeout(ctx)
	err = s.durable.Create(opCtx, &report)
	cancel()
	if err != nil {
		return nil, err
	}

	if _, err := s.local.Delete(ctx, localID); err != nil {
		logger.Warn("Synced %s as %s but could not drop the fallback copy: %v", localID, report.ID, err)
	}
	return &SyncedReport{LocalID: localID, ID: report.ID}, nil
}

// Wait blocks until background image removals finish.
func (s *Store) Wait() {
	s.cleanup.Wait()
}

func (s *Store) removeImage(report *Report) {
	if s.images == nil {
		return
	}
	key := ImageKey(report)
	if key == "" {
		return
	}

	s.cleanup.Add(1)
	go func() {
		defer s.cleanup.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.images.Delete(ctx, key); err != nil {
			metrics.ImageCleanupErrorsTotal.Inc()
			logger.Warn("Failed to delete image for report %s: %v", report.ID, err)
		}
	}()
}

// ImageKey returns the storage key for a report's image. Reports written
// before keys were recorded store a bare filename or an /uploads/ path.
func ImageKey(report *Report) string {
	if report.ImageKey != "" {
		return report.ImageKey
	}
	if report.Image == "" || strings.Contains(report.Image, "://") {
		return ""
	}
	return path.Base(report.Image)
}

func (s *Store) publish(ctx context.Context, routingKey, id string, mode Mode, data interface{}) {
	event := events.Event{
		Type:      routingKey,
		ReportID:  id,
		Mode:      string(mode),
		Data:      data,
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		logger.Warn("Failed to publish %s for report %s: %v", routingKey, id, err)
	}
}
