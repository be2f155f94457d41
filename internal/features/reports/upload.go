package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/xyz-asif/citycare/internal/features/analysis"
	"github.com/xyz-asif/citycare/internal/pkg/storage"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

const (
	maxFormMemory = 32 << 20
	// maxFormSlack covers multipart framing and the text fields on top of
	// the image itself.
	maxFormSlack = 1 << 20
)

// Submission is a parsed, validated multipart report form. The image has
// not been stored yet.
type Submission struct {
	Location        string
	Description     string
	Category        string
	Priority        string
	Coordinates     *Coordinates
	AIAnalysis      *analysis.Analysis
	MarkedLocations []MarkedLocation
	Image           *multipart.FileHeader
}

// LimitBody caps how much of the request body is read, so an oversized
// upload is rejected before it is spooled to disk.
func LimitBody(w http.ResponseWriter, r *http.Request, maxImageBytes int64) {
	if maxImageBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+maxFormSlack)
	}
}

// ParseSubmission reads and validates the multipart report form. Every
// failure is a *ValidationError naming the offending field.
func ParseSubmission(r *http.Request, maxImageBytes int64) (*Submission, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, apperrors.Validation("image", "image file is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.Validation("image", fmt.Sprintf("image exceeds maximum allowed size of %d MB", maxImageBytes/(1024*1024)))
		}
		return nil, apperrors.Validation("", fmt.Sprintf("invalid multipart form: %v", err))
	}
	form := r.MultipartForm

	files := form.File["image"]
	if len(files) == 0 {
		return nil, apperrors.Validation("image", "image file is required")
	}
	if len(files) > 1 {
		return nil, apperrors.Validation("image", "exactly one image is allowed")
	}
	if err := storage.ValidateImage(files[0], maxImageBytes); err != nil {
		return nil, apperrors.Validation("image", err.Error())
	}

	sub := &Submission{
		Location:    value(form, "location"),
		Description: value(form, "description"),
		Category:    strings.ToLower(value(form, "category")),
		Priority:    strings.ToLower(value(form, "priority")),
		Image:       files[0],
	}

	if sub.Location == "" {
		return nil, apperrors.Validation("location", "location is required")
	}
	if sub.Description == "" {
		return nil, apperrors.Validation("description", "description is required")
	}
	if sub.Priority != "" && !analysis.IsPriority(sub.Priority) {
		return nil, apperrors.Validation("priority", fmt.Sprintf("priority must be one of low, medium, high; got %q", sub.Priority))
	}
	if sub.Category != "" && !isCategory(sub.Category) {
		return nil, apperrors.Validation("category", fmt.Sprintf("unknown category %q", sub.Category))
	}

	coords, err := parseCoordinates(form)
	if err != nil {
		return nil, err
	}
	sub.Coordinates = coords

	if raw := value(form, "aiAnalysis"); raw != "" {
		var a analysis.Analysis
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, apperrors.Validation("aiAnalysis", "aiAnalysis must be a JSON object")
		}
		if err := a.Validate(); err != nil {
			return nil, apperrors.Validation("aiAnalysis", err.Error())
		}
		sub.AIAnalysis = &a
	}

	if raw := value(form, "markedLocations"); raw != "" {
		var marked []MarkedLocation
		if err := json.Unmarshal([]byte(raw), &marked); err != nil {
			return nil, apperrors.Validation("markedLocations", "markedLocations must be a JSON array")
		}
		for i, m := range marked {
			if !m.Coordinates().Valid() {
				return nil, apperrors.Validation("markedLocations", fmt.Sprintf("markedLocations[%d] is out of range", i))
			}
		}
		sub.MarkedLocations = marked
	}

	return sub, nil
}

func value(form *multipart.Form, keys ...string) string {
	for _, key := range keys {
		if vs := form.Value[key]; len(vs) > 0 {
			if v := strings.TrimSpace(vs[0]); v != "" {
				return v
			}
		}
	}
	return ""
}

// parseCoordinates accepts flat latitude/longitude, the lat/lng aliases, or
// a JSON coordinates object. No coordinates at all is allowed.
func parseCoordinates(form *multipart.Form) (*Coordinates, error) {
	latRaw := value(form, "latitude", "lat")
	lngRaw := value(form, "longitude", "lng")

	if latRaw == "" && lngRaw == "" {
		raw := value(form, "coordinates")
		if raw == "" {
			return nil, nil
		}
		var c Coordinates
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, apperrors.Validation("coordinates", "coordinates must be a JSON object with lat and lng")
		}
		if !c.Valid() {
			return nil, apperrors.Validation("coordinates", "coordinates are out of range")
		}
		return &c, nil
	}

	if latRaw == "" {
		return nil, apperrors.Validation("latitude", "latitude is required when longitude is set")
	}
	if lngRaw == "" {
		return nil, apperrors.Validation("longitude", "longitude is required when latitude is set")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, apperrors.Validation("latitude", fmt.Sprintf("latitude must be a number, got %q", latRaw))
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, apperrors.Validation("longitude", fmt.Sprintf("longitude must be a number, got %q", lngRaw))
	}

	c := Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil, apperrors.Validation("coordinates", "coordinates are out of range")
	}
	return &c, nil
}

func isCategory(category string) bool {
	if category == analysis.CategoryGeneral {
		return true
	}
	_, ok := analysis.Categories[category]
	return ok
}
