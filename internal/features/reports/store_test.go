package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xyz-asif/citycare/internal/pkg/events"
	"github.com/xyz-asif/citycare/internal/pkg/storage"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeConn struct {
	mu        sync.Mutex
	reachable bool
	cause     error
}

func (f *fakeConn) Reachable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable
}

func (f *fakeConn) MarkUnreachable(cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reachable = false
	f.cause = cause
}

func (f *fakeConn) set(reachable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reachable = reachable
}

// fakeDurable mimics MongoRepository with ObjectID-style ids.
type fakeDurable struct {
	mu      sync.Mutex
	reports map[string]Report
	order   []string
	err     error
	// onCreate runs before each Create, outside the lock.
	onCreate func(r *Report)
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{reports: make(map[string]Report)}
}

func (f *fakeDurable) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeDurable) Create(_ context.Context, r *Report) error {
	if f.onCreate != nil {
		f.onCreate(r)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	r.ID = primitive.NewObjectID().Hex()
	f.reports[r.ID] = *r
	f.order = append(f.order, r.ID)
	return nil
}

func (f *fakeDurable) List(_ context.Context) ([]Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []Report
	for i := len(f.order) - 1; i >= 0; i-- {
		if r, ok := f.reports[f.order[i]]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDurable) Get(_ context.Context, id string) (*Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (f *fakeDurable) UpdateStatus(_ context.Context, id string, status Status) (*Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	r.Status = status
	f.reports[id] = r
	return &r, nil
}

func (f *fakeDurable) Delete(_ context.Context, id string) (*Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(f.reports, id)
	return &r, nil
}

func (f *fakeDurable) CountByStatus(_ context.Context) (Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Stats{}, f.err
	}
	var s Stats
	for _, r := range f.reports {
		s.Add(r.Status, 1)
	}
	return s, nil
}

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeImages) Save(_ context.Context, _ io.Reader, name, _ string) (*storage.StoredImage, error) {
	return &storage.StoredImage{Key: name, URL: "/uploads/" + name}, nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.err
}

func (f *fakeImages) Name() string { return "fake" }

func (f *fakeImages) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func TestStoreOnline(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	conn := &fakeConn{reachable: true}
	images := &fakeImages{}
	recorder := &events.Recorder{}
	store := NewStore(durable, conn, images, recorder)

	r := newReport("5th Ave")
	r.ImageKey = "a.jpg"
	mode, err := store.Create(ctx, r)
	require.NoError(t, err)
	require.Equal(t, ModeOnline, mode)
	require.False(t, IsLocalID(r.ID))
	require.Equal(t, StatusSubmitted, r.Status)

	list, mode, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeOnline, mode)
	require.Len(t, list, 1)

	updated, err := store.UpdateStatus(ctx, r.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)

	stats, mode, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeOnline, mode)
	require.Equal(t, int64(1), stats.InProgress)

	require.NoError(t, store.Delete(ctx, r.ID))
	store.Wait()
	require.Equal(t, []string{"a.jpg"}, images.Deleted())

	_, err = store.Get(ctx, r.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	require.Equal(t, []string{events.ReportCreated, events.ReportStatusChanged, events.ReportDeleted}, recorder.Keys())
}

func TestStoreOfflineAtStartup(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeDurable(), &fakeConn{reachable: false}, nil, nil)

	r := newReport("5th Ave")
	mode, err := store.Create(ctx, r)
	require.NoError(t, err)
	require.Equal(t, ModeOffline, mode)
	require.Equal(t, "LOCAL-1", r.ID)

	list, mode, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeOffline, mode)
	require.Len(t, list, 1)
	require.Equal(t, "LOCAL-1", list[0].ID)
}

func TestStoreNilDurableIsOffline(t *testing.T) {
	store := NewStore(nil, nil, nil, nil)
	require.Equal(t, ModeOffline, store.Mode())

	mode, err := store.Create(context.Background(), newReport("5th Ave"))
	require.NoError(t, err)
	require.Equal(t, ModeOffline, mode)
}

func TestStoreFallsBackOnConnectivityError(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	durable.fail(fmt.Errorf("insert: %w", context.DeadlineExceeded))
	conn := &fakeConn{reachable: true}
	store := NewStore(durable, conn, nil, nil)

	r := newReport("5th Ave")
	mode, err := store.Create(ctx, r)
	require.NoError(t, err)
	require.Equal(t, ModeOffline, mode)
	require.True(t, IsLocalID(r.ID))
	require.False(t, conn.Reachable())
	require.True(t, errors.Is(conn.cause, apperrors.ErrUpstreamUnavailable))
}

func TestStoreSurfacesNonConnectivityErrors(t *testing.T) {
	durable := newFakeDurable()
	durable.fail(errors.New("document validation failed"))
	conn := &fakeConn{reachable: true}
	store := NewStore(durable, conn, nil, nil)

	_, err := store.Create(context.Background(), newReport("5th Ave"))
	require.Error(t, err)
	require.True(t, conn.Reachable())
	require.Equal(t, 0, store.Local().Len())
}

func TestStoreRejectsIncompleteReports(t *testing.T) {
	store := NewStore(nil, nil, nil, nil)

	r := newReport("5th Ave")
	r.Image = ""
	_, err := store.Create(context.Background(), r)

	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, "image", vErr.Field)
	require.Equal(t, 0, store.Local().Len())
}

func TestStoreLocalIDsRouteToFallbackWhenOnline(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{reachable: false}
	store := NewStore(newFakeDurable(), conn, nil, nil)

	offline := newReport("5th Ave")
	_, err := store.Create(ctx, offline)
	require.NoError(t, err)

	conn.set(true)

	got, err := store.Get(ctx, offline.ID)
	require.NoError(t, err)
	require.Equal(t, "5th Ave", got.Location)

	_, err = store.UpdateStatus(ctx, offline.ID, StatusResolved)
	require.NoError(t, err)

	list, mode, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeOnline, mode)
	require.Empty(t, list, "fallback reports are not merged into the durable list")

	require.NoError(t, store.Delete(ctx, offline.ID))
	require.Equal(t, 0, store.Local().Len())
}

func TestStoreUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil, nil, nil)

	r := newReport("5th Ave")
	_, err := store.Create(ctx, r)
	require.NoError(t, err)

	_, err = store.UpdateStatus(ctx, r.ID, Status("closed"))
	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, "status", vErr.Field)

	first, err := store.UpdateStatus(ctx, r.ID, StatusPending)
	require.NoError(t, err)
	second, err := store.UpdateStatus(ctx, r.ID, StatusPending)
	require.NoError(t, err)
	require.Equal(t, first, second)

	_, err = store.UpdateStatus(ctx, "LOCAL-99", StatusPending)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStoreDeleteImageFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	images := &fakeImages{err: errors.New("permission denied")}
	store := NewStore(nil, nil, images, nil)

	r := newReport("5th Ave")
	r.Image = "/uploads/b.png"
	_, err := store.Create(ctx, r)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, r.ID))
	store.Wait()
	require.Equal(t, []string{"b.png"}, images.Deleted())
}

func TestStoreSync(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	conn := &fakeConn{reachable: false}
	recorder := &events.Recorder{}
	store := NewStore(durable, conn, nil, recorder)

	_, err := store.Sync(ctx)
	require.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))

	a, b := newReport("A"), newReport("B")
	_, err = store.Create(ctx, a)
	require.NoError(t, err)
	_, err = store.Create(ctx, b)
	require.NoError(t, err)

	conn.set(true)
	result, err := store.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, result.Synced, 2)
	require.Empty(t, result.Failed)
	require.Equal(t, "LOCAL-1", result.Synced[0].LocalID)
	require.Equal(t, "LOCAL-2", result.Synced[1].LocalID)
	require.Equal(t, 0, store.Local().Len())

	list, _, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "B", list[0].Location)
	require.Contains(t, recorder.Keys(), events.ReportSynced)
}

func TestStoreSyncStopsWhenConnectionDrops(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	conn := &fakeConn{reachable: false}
	store := NewStore(durable, conn, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, newReport("A"))
		require.NoError(t, err)
	}

	conn.set(true)
	durable.fail(context.DeadlineExceeded)

	result, err := store.Sync(ctx)
	require.NoError(t, err)
	require.Empty(t, result.Synced)
	require.Len(t, result.Failed, 1)
	require.Equal(t, 3, store.Local().Len())
	require.False(t, conn.Reachable())
}

func TestStoreSyncSerializesFallbackMutations(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	conn := &fakeConn{reachable: false}
	images := &fakeImages{}
	store := NewStore(durable, conn, images, nil)

	a, b := newReport("A"), newReport("B")
	a.ImageKey = "a.jpg"
	_, err := store.Create(ctx, a)
	require.NoError(t, err)
	_, err = store.Create(ctx, b)
	require.NoError(t, err)

	deleted := make(chan error, 1)
	updated := make(chan error, 1)
	var once sync.Once
	durable.onCreate = func(r *Report) {
		once.Do(func() {
			require.Equal(t, "A", r.Location)
			go func() { deleted <- store.Delete(ctx, a.ID) }()
			go func() {
				_, err := store.UpdateStatus(ctx, b.ID, StatusResolved)
				updated <- err
			}()
			select {
			case err := <-deleted:
				t.Errorf("delete of a report being synced returned early: %v", err)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}

	conn.set(true)
	result, err := store.Sync(ctx)
	require.NoError(t, err)
	require.Empty(t, result.Failed)

	// A was claimed first, so the delete waits for it and then misses.
	require.True(t, errors.Is(<-deleted, apperrors.ErrNotFound))
	store.Wait()
	require.Empty(t, images.Deleted())

	// B is either synced with the new status or updated before the claim
	// and then synced; the update is never dropped.
	updateErr := <-updated
	list, _, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "B", list[0].Location)
	if updateErr == nil {
		require.Equal(t, StatusResolved, list[0].Status)
	} else {
		require.True(t, errors.Is(updateErr, apperrors.ErrNotFound))
		require.Equal(t, StatusSubmitted, list[0].Status)
	}
	require.Equal(t, 0, store.Local().Len())
}

func TestStoreSyncSkipsReportsDeletedBeforeClaim(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	conn := &fakeConn{reachable: false}
	store := NewStore(durable, conn, nil, nil)

	a, b := newReport("A"), newReport("B")
	_, err := store.Create(ctx, a)
	require.NoError(t, err)
	_, err = store.Create(ctx, b)
	require.NoError(t, err)

	// Runs while A is being synced; B has not been claimed yet but the
	// delete must wait for A's claim to finish.
	var once sync.Once
	done := make(chan error, 1)
	durable.onCreate = func(*Report) {
		once.Do(func() {
			go func() { done <- store.Delete(ctx, b.ID) }()
		})
	}

	conn.set(true)
	result, err := store.Sync(ctx)
	require.NoError(t, err)
	deleteErr := <-done

	list, _, err := store.List(ctx)
	require.NoError(t, err)
	if deleteErr == nil {
		require.Len(t, result.Synced, 1)
		require.Len(t, list, 1)
		require.Equal(t, "A", list[0].Location)
	} else {
		require.True(t, errors.Is(deleteErr, apperrors.ErrNotFound))
		require.Len(t, result.Synced, 2)
		require.Len(t, list, 2)
	}
	require.Equal(t, 0, store.Local().Len())
}

func TestImageKey(t *testing.T) {
	require.Equal(t, "k", ImageKey(&Report{ImageKey: "k", Image: "/uploads/x.jpg"}))
	require.Equal(t, "x.jpg", ImageKey(&Report{Image: "/uploads/x.jpg"}))
	require.Equal(t, "x.jpg", ImageKey(&Report{Image: "x.jpg"}))
	require.Equal(t, "", ImageKey(&Report{Image: "https://cdn.example.com/x.jpg"}))
	require.Equal(t, "", ImageKey(&Report{}))
}
