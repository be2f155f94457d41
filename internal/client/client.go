// Package client talks to the CityCare API from the reporter's and the
// administrator's side, falling back to a local cache when the API is down.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xyz-asif/citycare/internal/features/analysis"
	"github.com/xyz-asif/citycare/internal/features/health"
	"github.com/xyz-asif/citycare/internal/features/reports"
	"github.com/xyz-asif/citycare/internal/pkg/response"
)

// DefaultBaseURL is used when CITYCARE_API_URL is unset.
const DefaultBaseURL = "http://localhost:5000"

// ErrBackendUnavailable means the API could not be reached at all. It only
// ever drives fallback; callers never see the underlying network error.
var ErrBackendUnavailable = errors.New("backend unavailable")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api %d %s (%s): %s", e.StatusCode, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("api %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// APIClient is a thin JSON/multipart client for the /api routes.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*APIClient)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *APIClient) { c.httpClient = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *APIClient) { c.token = token }
}

func NewAPIClient(baseURL string, opts ...Option) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health calls GET /api/health.
func (c *APIClient) Health(ctx context.Context) (*health.Status, error) {
	var status health.Status
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, "", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateReport posts sub as multipart/form-data.
func (c *APIClient) CreateReport(ctx context.Context, sub *Submission) (*reports.CreateReportResponse, error) {
	body, contentType, err := sub.encode()
	if err != nil {
		return nil, err
	}
	var created reports.CreateReportResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports", body, contentType, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListReports fetches every report, newest first. status filters on the
// server; "" fetches everything.
func (c *APIClient) ListReports(ctx context.Context, status string) ([]reports.Report, error) {
	path := "/api/reports"
	if status != "" && status != "all" {
		path += "?status=" + url.QueryEscape(status)
	}
	var list []reports.Report
	if err := c.do(ctx, http.MethodGet, path, nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *APIClient) GetReport(ctx context.Context, id string) (*reports.Report, error) {
	var report reports.Report
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(id), nil, "", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *APIClient) Stats(ctx context.Context) (*reports.StatsResponse, error) {
	var stats reports.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports/stats/summary", nil, "", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *APIClient) UpdateStatus(ctx context.Context, id string, status reports.Status) (*reports.Report, error) {
	payload, err := json.Marshal(reports.UpdateStatusRequest{Status: string(status)})
	if err != nil {
		return nil, err
	}
	var report reports.Report
	if err := c.do(ctx, http.MethodPatch, "/api/reports/"+url.PathEscape(id), bytes.NewReader(payload), "application/json", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *APIClient) DeleteReport(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/reports/"+url.PathEscape(id), nil, "", nil)
}

// Sync asks the server to replay its fallback reports into MongoDB.
func (c *APIClient) Sync(ctx context.Context) (*reports.SyncResult, error) {
	var result reports.SyncResult
	if err := c.do(ctx, http.MethodPost, "/api/admin/sync", nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reconnect asks the server to re-probe MongoDB.
func (c *APIClient) Reconnect(ctx context.Context) (*health.Status, error) {
	var status health.Status
	if err := c.do(ctx, http.MethodPost, "/api/health/reconnect", nil, "", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrBackendUnavailable, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload response.ErrorResponse
		if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
			apiErr.Code = payload.Code
			apiErr.Field = payload.Field
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Submission is one report as composed on the reporter's side.
type Submission struct {
	Location        string
	Description     string
	Coordinates     *reports.Coordinates
	Category        string
	Priority        string
	Analysis        *analysis.Analysis
	MarkedLocations []reports.MarkedLocation

	ImageName string
	Image     []byte
}

func (s *Submission) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"location":    s.Location,
		"description": s.Description,
		"category":    s.Category,
		"priority":    s.Priority,
	}
	if s.Coordinates != nil {
		fields["latitude"] = strconv.FormatFloat(s.Coordinates.Lat, 'f', -1, 64)
		fields["longitude"] = strconv.FormatFloat(s.Coordinates.Lng, 'f', -1, 64)
	}
	if s.Analysis != nil {
		raw, err := json.Marshal(s.Analysis)
		if err != nil {
			return nil, "", fmt.Errorf("encode aiAnalysis: %w", err)
		}
		fields["aiAnalysis"] = string(raw)
	}
	if len(s.MarkedLocations) > 0 {
		raw, err := json.Marshal(s.MarkedLocations)
		if err != nil {
			return nil, "", fmt.Errorf("encode markedLocations: %w", err)
		}
		fields["markedLocations"] = string(raw)
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(s.ImageName)))
	imageType := mime.TypeByExtension(strings.ToLower(filepath.Ext(s.ImageName)))
	if imageType == "" {
		imageType = "application/octet-stream"
	}
	header.Set("Content-Type", imageType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(s.Image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
