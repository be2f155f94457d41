package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Classifier maps a free-text detector label to a civic category.
// Implementations return "" when the label is not civic-related.
type Classifier interface {
	Classify(label string) string
}

// CategoryInfo describes a civic category.
type CategoryInfo struct {
	Emoji   string
	Label   string
	Prio    string
	Actions []string
}

// Categories is the civic issue catalogue.
var Categories = map[string]CategoryInfo{
	"pothole":      {"🕳️", "Pothole", PriorityHigh, []string{"Report to roads department", "Mark area for safety", "Estimate repair urgency"}},
	"garbage":      {"🗑️", "Garbage Accumulation", PriorityMedium, []string{"Schedule cleanup", "Identify source", "Check recycling compliance"}},
	"water":        {"💧", "Water Leak/Flooding", PriorityHigh, []string{"Contact water department", "Assess safety risk", "Check for pipe damage"}},
	"streetlight":  {"💡", "Broken Street Light", PriorityMedium, []string{"Report to utilities", "Check electrical safety", "Note location for repair"}},
	"graffiti":     {"🎯", "Graffiti/Vandalism", PriorityLow, []string{"Schedule removal", "Document for police", "Check for repeat incidents"}},
	"tree":         {"🌳", "Fallen Tree/Vegetation", PriorityMedium, []string{"Assess danger level", "Schedule trimming/removal", "Check property damage"}},
	"construction": {"🚧", "Construction Hazard", PriorityHigh, []string{"Verify permits", "Check safety measures", "Assess traffic impact"}},
	"vehicle":      {"🚗", "Abandoned Vehicle", PriorityMedium, []string{"Check registration", "Document for towing", "Verify abandonment duration"}},
	"road":         {"🛣️", "Road Damage", PriorityHigh, []string{"Assess damage extent", "Plan repair schedule", "Implement traffic control"}},
	"sidewalk":     {"🚶", "Sidewalk Issue", PriorityMedium, []string{"Check accessibility", "Assess repair urgency", "Coordinate with property owners"}},
}

var defaultActions = []string{"Document the issue", "Report to appropriate department", "Monitor for changes"}

// KeywordRule assigns Category when a label contains any keyword.
type KeywordRule struct {
	Category string
	Keywords []string
}

// KeywordClassifier matches rules in order; the first hit wins.
type KeywordClassifier struct {
	Rules []KeywordRule
}

// DefaultKeywordRules is the stock matching table.
var DefaultKeywordRules = []KeywordRule{
	{"pothole", []string{"pothole", "hole", "road"}},
	{"garbage", []string{"garbage", "trash", "rubbish", "waste"}},
	{"water", []string{"water", "flood", "leak"}},
	{"streetlight", []string{"light", "lamp", "streetlight"}},
	{"graffiti", []string{"graffiti", "vandal"}},
	{"tree", []string{"tree", "branch", "vegetation"}},
	{"construction", []string{"construction", "hazard", "barrier"}},
	{"vehicle", []string{"vehicle", "car", "truck"}},
	{"road", []string{"street", "asphalt"}},
	{"sidewalk", []string{"sidewalk", "pavement", "footpath"}},
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{Rules: DefaultKeywordRules}
}

func (k *KeywordClassifier) Classify(label string) string {
	lower := strings.ToLower(label)
	for _, rule := range k.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return ""
}

// SuggestedActions returns the follow-up steps for a category.
func SuggestedActions(category string) []string {
	if info, ok := Categories[category]; ok {
		return append([]string(nil), info.Actions...)
	}
	return append([]string(nil), defaultActions...)
}

// PriorityFor returns the catalogue priority, or medium.
func PriorityFor(category string) string {
	if info, ok := Categories[category]; ok {
		return info.Prio
	}
	return PriorityMedium
}

func displayLabel(category, fallback string) string {
	if info, ok := Categories[category]; ok {
		return info.Emoji + " " + info.Label
	}
	return fallback
}

const (
	minScore   = 0.3
	maxObjects = 5
)

// FromDetections turns raw detector output into an Analysis. Detections
// below the score floor or without a civic category are dropped.
func FromDetections(detections []Detection, c Classifier, live bool) *Analysis {
	var objects []DetectedObject
	for _, d := range detections {
		if d.Score <= minScore {
			continue
		}
		category := c.Classify(d.Label)
		if category == "" {
			continue
		}
		objects = append(objects, DetectedObject{
			Label:         d.Label,
			Confidence:    percent(d.Score),
			CivicCategory: category,
			BoundingBox:   d.Box,
		})
		if len(objects) == maxObjects {
			break
		}
	}

	a := &Analysis{
		PrimaryLabel: "Civic Issue Detected",
		Category:     CategoryUnknown,
		Priority:     PriorityMedium,
		Description:  describe(objects),
		Objects:      objects,
		IsRealAPI:    live,
	}
	if objects == nil {
		a.Objects = []DetectedObject{}
	}
	if len(objects) > 0 {
		primary := objects[0]
		a.Category = primary.CivicCategory
		a.Confidence = primary.Confidence
		a.Priority = PriorityFor(primary.CivicCategory)
		a.PrimaryLabel = displayLabel(primary.CivicCategory, a.PrimaryLabel)
	}
	a.SuggestedActions = SuggestedActions(a.Category)
	return a
}

// Enrich fills classifier-derived fields a client left blank.
func Enrich(a *Analysis, c Classifier) {
	if a == nil {
		return
	}
	for i := range a.Objects {
		if a.Objects[i].CivicCategory == "" {
			a.Objects[i].CivicCategory = c.Classify(a.Objects[i].Label)
		}
	}
	if a.Category == "" || a.Category == CategoryUnknown {
		for _, obj := range a.Objects {
			if obj.CivicCategory != "" {
				a.Category = obj.CivicCategory
				break
			}
		}
		if a.Category == "" {
			a.Category = CategoryUnknown
		}
	}
	if a.Priority == "" {
		a.Priority = PriorityFor(a.Category)
	}
	if len(a.SuggestedActions) == 0 {
		a.SuggestedActions = SuggestedActions(a.Category)
	}
	if a.PrimaryLabel == "" {
		a.PrimaryLabel = displayLabel(a.Category, "Issue Detected")
	}
}

func describe(objects []DetectedObject) string {
	if len(objects) == 0 {
		return "Potential civic issue detected"
	}

	counts := make(map[string]int)
	var order []string
	for _, obj := range objects {
		if counts[obj.CivicCategory] == 0 {
			order = append(order, obj.CivicCategory)
		}
		counts[obj.CivicCategory]++
	}

	if len(order) == 1 {
		n := counts[order[0]]
		plural := ""
		if n > 1 {
			plural = "s"
		}
		return fmt.Sprintf("Detected %d %s issue%s", n, strings.ToLower(Categories[order[0]].Label), plural)
	}

	labels := make([]string, 0, len(order))
	for _, cat := range order {
		labels = append(labels, Categories[cat].Label)
	}
	return "Detected multiple issues: " + strings.Join(labels, ", ")
}

func percent(score float64) float64 {
	return float64(int(score*100 + 0.5))
}

// CategoryNames lists catalogue keys in sorted order.
func CategoryNames() []string {
	names := make([]string, 0, len(Categories))
	for name := range Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
