package reports

import (
	"strings"
	"time"

	"github.com/golang/geo/s2"
	"github.com/xyz-asif/citycare/internal/features/analysis"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// Status is the lifecycle state of a report. Any status may be set from any
// other; only the value itself is validated.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

var Statuses = []Status{StatusSubmitted, StatusPending, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Mode tells which store served a request.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// LocalIDPrefix marks ids issued by the in-process fallback store.
const LocalIDPrefix = "LOCAL-"

const (
	DefaultCategory = analysis.CategoryGeneral
	DefaultPriority = analysis.PriorityMedium
)

const earthRadiusMeters = 6371008.8

// Coordinates is the canonical point shape, stored nested as {lat, lng}.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat" example:"12.9"`
	Lng float64 `bson:"lng" json:"lng" example:"77.6"`
}

func (c Coordinates) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lng)
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (c Coordinates) Valid() bool {
	return c.latLng().IsValid()
}

// DistanceMeters is the great-circle distance to o.
func (c Coordinates) DistanceMeters(o Coordinates) float64 {
	return float64(c.latLng().Distance(o.latLng())) * earthRadiusMeters
}

// MarkedLocation is a secondary point annotated on the map.
type MarkedLocation struct {
	ID             string     `bson:"id" json:"id"`
	Lat            float64    `bson:"lat" json:"lat"`
	Lng            float64    `bson:"lng" json:"lng"`
	Label          string     `bson:"label,omitempty" json:"label,omitempty"`
	MarkedAt       *time.Time `bson:"markedAt,omitempty" json:"markedAt,omitempty"`
	DistanceMeters float64    `bson:"distanceMeters,omitempty" json:"distanceMeters,omitempty"`
}

func (m MarkedLocation) Coordinates() Coordinates {
	return Coordinates{Lat: m.Lat, Lng: m.Lng}
}

// Report is a citizen-submitted civic issue.
// @Description A civic issue report
type Report struct {
	ID              string             `bson:"-" json:"id" example:"665f1c2e9b1d4c0012a3b4c5"`
	Location        string             `bson:"location" json:"location" example:"5th Ave"`
	Description     string             `bson:"description" json:"description" example:"pothole"`
	Image           string             `bson:"image" json:"image" example:"/uploads/1718000000000-123456789.jpg"`
	ImageKey        string             `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	Coordinates     *Coordinates       `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Category        string             `bson:"category" json:"category" example:"pothole"`
	Priority        string             `bson:"priority" json:"priority" example:"high"`
	Status          Status             `bson:"status" json:"status" example:"submitted"`
	AIAnalysis      *analysis.Analysis `bson:"aiAnalysis,omitempty" json:"aiAnalysis,omitempty"`
	MarkedLocations []MarkedLocation   `bson:"markedLocations" json:"markedLocations"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsLocal reports whether the report lives in the fallback store.
func (r *Report) IsLocal() bool {
	return IsLocalID(r.ID)
}

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// Validate enforces the fields every stored report must carry.
func (r *Report) Validate() error {
	switch {
	case strings.TrimSpace(r.Location) == "":
		return apperrors.Validation("location", "location is required")
	case strings.TrimSpace(r.Description) == "":
		return apperrors.Validation("description", "description is required")
	case strings.TrimSpace(r.Image) == "":
		return apperrors.Validation("image", "image is required")
	}
	return nil
}

// Stats counts reports per status.
type Stats struct {
	Total      int64 `json:"total" example:"12"`
	Submitted  int64 `json:"submitted" example:"4"`
	Pending    int64 `json:"pending" example:"3"`
	InProgress int64 `json:"inProgress" example:"3"`
	Resolved   int64 `json:"resolved" example:"2"`
}

func (s *Stats) Add(status Status, n int64) {
	s.Total += n
	switch status {
	case StatusSubmitted:
		s.Submitted += n
	case StatusPending:
		s.Pending += n
	case StatusInProgress:
		s.InProgress += n
	case StatusResolved:
		s.Resolved += n
	}
}

// Summarize counts reports per status.
func Summarize(reports []Report) Stats {
	var s Stats
	for _, r := range reports {
		s.Add(r.Status, 1)
	}
	return s
}

// FilterByStatus returns the reports with the given status; "" or "all"
// returns every report.
func FilterByStatus(reports []Report, status string) []Report {
	if status == "" || status == "all" {
		return reports
	}
	filtered := make([]Report, 0, len(reports))
	for _, r := range reports {
		if string(r.Status) == status {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// SyncedReport pairs a fallback id with the durable id it was replayed under.
type SyncedReport struct {
	LocalID string `json:"localId" example:"LOCAL-1"`
	ID      string `json:"id" example:"665f1c2e9b1d4c0012a3b4c5"`
}

// SyncFailure records a fallback report that could not be replayed.
type SyncFailure struct {
	LocalID string `json:"localId"`
	Error   string `json:"error"`
}

// SyncResult is the outcome of replaying fallback reports into MongoDB.
type SyncResult struct {
	Synced []SyncedReport `json:"synced"`
	Failed []SyncFailure  `json:"failed"`
}

// CreateReportResponse is returned by POST /api/reports.
type CreateReportResponse struct {
	ReportID  string    `json:"reportId" example:"665f1c2e9b1d4c0012a3b4c5"`
	ID        string    `json:"id" example:"665f1c2e9b1d4c0012a3b4c5"`
	Message   string    `json:"message" example:"Report submitted successfully"`
	Timestamp time.Time `json:"timestamp"`
	Mode      Mode      `json:"mode" example:"online"`
}

// StatsResponse is returned by GET /api/reports/stats/summary.
type StatsResponse struct {
	Stats Stats `json:"stats"`
	Mode  Mode  `json:"mode" example:"online"`
}

// UpdateStatusRequest is the body of PATCH/PUT /api/reports/:id.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"in-progress"`
}
