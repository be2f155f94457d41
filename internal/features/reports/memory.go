package reports

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// Repository is implemented by both the durable and the fallback store.
type Repository interface {
	Create(ctx context.Context, report *Report) error
	List(ctx context.Context) ([]Report, error)
	Get(ctx context.Context, id string) (*Report, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Report, error)
	Delete(ctx context.Context, id string) (*Report, error)
	CountByStatus(ctx context.Context) (Stats, error)
}

// MemoryStore is the in-process fallback. Contents live only as long as
// the process. Ids are LOCAL-<n> from a counter advanced under the lock.
type MemoryStore struct {
	mu      sync.RWMutex
	reports []Report // oldest first
	seq     int64
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, report *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	now := m.now()
	report.ID = fmt.Sprintf("%s%d", LocalIDPrefix, m.seq)
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	m.reports = append(m.reports, *report)
	return nil
}

// List returns reports newest first. Reports are appended in creation
// order, so reversing breaks createdAt ties by sequence.
func (m *MemoryStore) List(_ context.Context) ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Report, 0, len(m.reports))
	for i := len(m.reports) - 1; i >= 0; i-- {
		out = append(out, m.reports[i])
	}
	return out, nil
}

// Pending returns fallback reports oldest first.
func (m *MemoryStore) Pending() []Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Report(nil), m.reports...)
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, apperrors.ErrNotFound
	}
	r := m.reports[i]
	return &r, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, status Status) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, apperrors.ErrNotFound
	}
	if m.reports[i].Status != status {
		m.reports[i].Status = status
		m.reports[i].UpdatedAt = m.now()
	}
	r := m.reports[i]
	return &r, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, apperrors.ErrNotFound
	}
	r := m.reports[i]
	m.reports = append(m.reports[:i], m.reports[i+1:]...)
	return &r, nil
}

func (m *MemoryStore) CountByStatus(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Summarize(m.reports), nil
}

func (m *MemoryStore) indexOf(id string) int {
	for i := range m.reports {
		if m.reports[i].ID == id {
			return i
		}
	}
	return -1
}
