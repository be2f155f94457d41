package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xyz-asif/citycare/internal/features/reports"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// ModeMock marks a submission that only reached the local cache.
const ModeMock reports.Mode = "mock"

// SubmitResult is the terminal state of one submission attempt.
type SubmitResult struct {
	ID        string
	Mode      reports.Mode
	Message   string
	Timestamp time.Time
	// Reason is why the API was bypassed; empty unless Mode is mock.
	Reason string
}

// Submitter runs probe, then create, then local fallback.
type Submitter struct {
	api   *APIClient
	cache *LocalCache
	now   func() time.Time
}

func NewSubmitter(api *APIClient, cache *LocalCache) *Submitter {
	return &Submitter{api: api, cache: cache, now: time.Now}
}

// Submit never fails because the API is down or rejects the report: those
// paths end in the local cache with Mode=mock. It fails only when the
// submission is incomplete or the cache cannot be written.
func (s *Submitter) Submit(ctx context.Context, sub *Submission) (*SubmitResult, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}

	if _, err := s.api.Health(ctx); err != nil {
		return s.fallback(sub, err)
	}

	created, err := s.api.CreateReport(ctx, sub)
	if err != nil {
		return s.fallback(sub, err)
	}

	id := created.ID
	if id == "" {
		id = created.ReportID
	}
	return &SubmitResult{
		ID:        id,
		Mode:      created.Mode,
		Message:   created.Message,
		Timestamp: created.Timestamp,
	}, nil
}

func (s *Submitter) fallback(sub *Submission, cause error) (*SubmitResult, error) {
	logger.Warn("API unavailable, keeping report locally: %v", cause)

	now := s.now().UTC()
	report := reports.Report{
		ID:              newMockID(now),
		Location:        strings.TrimSpace(sub.Location),
		Description:     strings.TrimSpace(sub.Description),
		Image:           sub.ImageName,
		Coordinates:     sub.Coordinates,
		Category:        sub.Category,
		Priority:        sub.Priority,
		Status:          reports.StatusSubmitted,
		AIAnalysis:      sub.Analysis,
		MarkedLocations: sub.MarkedLocations,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if report.Category == "" {
		report.Category = reports.DefaultCategory
	}
	if report.Priority == "" {
		report.Priority = reports.DefaultPriority
	}
	if report.MarkedLocations == nil {
		report.MarkedLocations = []reports.MarkedLocation{}
	}

	if err := s.cache.Add(report); err != nil {
		return nil, fmt.Errorf("save report locally: %w", err)
	}

	return &SubmitResult{
		ID:        report.ID,
		Mode:      ModeMock,
		Message:   "Report saved locally (demo mode)",
		Timestamp: now,
		Reason:    cause.Error(),
	}, nil
}

func newMockID(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", MockIDPrefix, now.UnixMilli(), uuid.NewString()[:8])
}

func (s *Submission) validate() error {
	if strings.TrimSpace(s.Location) == "" {
		return apperrors.Validation("location", "location is required")
	}
	if strings.TrimSpace(s.Description) == "" {
		return apperrors.Validation("description", "description is required")
	}
	if len(s.Image) == 0 || s.ImageName == "" {
		return apperrors.Validation("image", "image file is required")
	}
	return nil
}
