package reports

import (
	"context"
	"fmt"

	"github.com/xyz-asif/citycare/internal/features/analysis"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"github.com/xyz-asif/citycare/internal/pkg/storage"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// Service turns a parsed submission into a stored report.
type Service struct {
	store      *Store
	images     storage.ImageStore
	classifier analysis.Classifier
}

func NewService(store *Store, images storage.ImageStore, classifier analysis.Classifier) *Service {
	if classifier == nil {
		classifier = analysis.NewKeywordClassifier()
	}
	return &Service{store: store, images: images, classifier: classifier}
}

// Submit stores the image and creates the report. The image is removed
// again if the report cannot be persisted.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*Report, Mode, error) {
	file, err := sub.Image.Open()
	if err != nil {
		return nil, "", apperrors.Validation("image", "failed to read uploaded image")
	}
	defer file.Close()

	stored, err := s.images.Save(ctx, file, sub.Image.Filename, sub.Image.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", err
	}

	report := s.build(sub, stored)

	mode, err := s.store.Create(ctx, report)
	if err != nil {
		if delErr := s.images.Delete(context.Background(), stored.Key); delErr != nil {
			logger.Warn("Failed to remove orphaned image %s: %v", stored.Key, delErr)
		}
		return nil, "", fmt.Errorf("submit report: %w", err)
	}

	logger.Info("Report %s stored (%s) with image %s via %s", report.ID, mode, stored.Key, s.images.Name())
	return report, mode, nil
}

func (s *Service) build(sub *Submission, stored *storage.StoredImage) *Report {
	report := &Report{
		Location:        sub.Location,
		Description:     sub.Description,
		Image:           stored.URL,
		ImageKey:        stored.Key,
		Coordinates:     sub.Coordinates,
		Category:        sub.Category,
		Priority:        sub.Priority,
		Status:          StatusSubmitted,
		AIAnalysis:      sub.AIAnalysis,
		MarkedLocations: sub.MarkedLocations,
	}

	if report.AIAnalysis != nil {
		analysis.Enrich(report.AIAnalysis, s.classifier)
		if report.Category == "" && isCategory(report.AIAnalysis.Category) {
			report.Category = report.AIAnalysis.Category
		}
		if report.Priority == "" && analysis.IsPriority(report.AIAnalysis.Priority) {
			report.Priority = report.AIAnalysis.Priority
		}
	}
	if report.Category == "" {
		report.Category = DefaultCategory
	}
	if report.Priority == "" {
		report.Priority = DefaultPriority
	}

	if report.MarkedLocations == nil {
		report.MarkedLocations = []MarkedLocation{}
	}
	if report.Coordinates != nil {
		for i := range report.MarkedLocations {
			m := &report.MarkedLocations[i]
			m.DistanceMeters = report.Coordinates.DistanceMeters(m.Coordinates())
		}
	}

	return report
}
