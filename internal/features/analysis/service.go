package analysis

import (
	"context"

	"github.com/xyz-asif/citycare/internal/pkg/logger"
	"github.com/xyz-asif/citycare/internal/pkg/metrics"
)

// Service produces an Analysis for an uploaded photo.
type Service struct {
	detector   Detector
	classifier Classifier
}

func NewService(detector Detector, classifier Classifier) *Service {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &Service{detector: detector, classifier: classifier}
}

// Classifier returns the classifier used for enrichment.
func (s *Service) Classifier() Classifier {
	return s.classifier
}

// Analyze never fails: an unreachable detector yields a mock analysis
// with IsRealAPI=false.
func (s *Service) Analyze(ctx context.Context, image []byte, contentType string) *Analysis {
	if s.detector != nil {
		detections, err := s.detector.Detect(ctx, image, contentType)
		if err == nil {
			metrics.InferenceRequestsTotal.WithLabelValues("live").Inc()
			return FromDetections(detections, s.classifier, true)
		}
		logger.Warn("Inference unavailable, using mock analysis: %v", err)
	}
	metrics.InferenceRequestsTotal.WithLabelValues("mock").Inc()
	return FromDetections(MockDetections(), s.classifier, false)
}
