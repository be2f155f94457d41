package analysis

import (
	"fmt"
	"strings"
)

// BoundingBox is the detector's pixel box for an object.
type BoundingBox struct {
	XMin float64 `bson:"xmin" json:"xmin"`
	YMin float64 `bson:"ymin" json:"ymin"`
	XMax float64 `bson:"xmax" json:"xmax"`
	YMax float64 `bson:"ymax" json:"ymax"`
}

// DetectedObject is one label returned by the detector, mapped to a civic category.
type DetectedObject struct {
	Label         string       `bson:"label" json:"label"`
	Confidence    float64      `bson:"confidence" json:"confidence"`
	CivicCategory string       `bson:"civicCategory,omitempty" json:"civicCategory,omitempty"`
	BoundingBox   *BoundingBox `bson:"boundingBox,omitempty" json:"boundingBox,omitempty"`
}

// Analysis is the categorization attached to a report.
// @Description AI-assisted categorization of the report photo
type Analysis struct {
	PrimaryLabel     string           `bson:"primaryLabel" json:"primaryLabel" example:"🕳️ Pothole"`
	Confidence       float64          `bson:"confidence" json:"confidence" example:"92"`
	Category         string           `bson:"category" json:"category" example:"pothole"`
	Priority         string           `bson:"priority" json:"priority" example:"high"`
	Description      string           `bson:"description" json:"description"`
	Objects          []DetectedObject `bson:"objects" json:"objects"`
	SuggestedActions []string         `bson:"suggestedActions" json:"suggestedActions"`
	IsRealAPI        bool             `bson:"isRealAPI" json:"isRealAPI"`
}

// Validate checks the ranges a submitted analysis must respect.
func (a *Analysis) Validate() error {
	if a.Confidence < 0 || a.Confidence > 100 {
		return fmt.Errorf("confidence must be between 0 and 100")
	}
	if a.Priority != "" && !IsPriority(a.Priority) {
		return fmt.Errorf("invalid priority %q", a.Priority)
	}
	for i, obj := range a.Objects {
		if strings.TrimSpace(obj.Label) == "" {
			return fmt.Errorf("objects[%d].label is required", i)
		}
		if obj.Confidence < 0 || obj.Confidence > 100 {
			return fmt.Errorf("objects[%d].confidence must be between 0 and 100", i)
		}
	}
	return nil
}

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	CategoryUnknown = "unknown"
	CategoryGeneral = "general"
)

func IsPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Detection is a raw object-detection result from the inference service.
type Detection struct {
	Label string       `json:"label"`
	Score float64      `json:"score"`
	Box   *BoundingBox `json:"box,omitempty"`
}
