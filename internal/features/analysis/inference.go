package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

// Detector runs object detection on an image.
type Detector interface {
	Detect(ctx context.Context, image []byte, contentType string) ([]Detection, error)
}

// InferenceClient calls a hosted object-detection model over HTTP.
type InferenceClient struct {
	endpoint   string
	apiKey     string
	client     *http.Client
	retryDelay time.Duration
}

// NewInferenceClient returns a client for endpoint authenticated with apiKey.
func NewInferenceClient(endpoint, apiKey string) *InferenceClient {
	return &InferenceClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryDelay: 5 * time.Second,
	}
}

// Detect posts the raw image. A 503 means the model is still loading; it is
// retried once after retryDelay.
func (c *InferenceClient) Detect(ctx context.Context, image []byte, contentType string) ([]Detection, error) {
	if c.endpoint == "" || c.apiKey == "" {
		return nil, apperrors.Upstream(errors.New("inference service not configured"))
	}

	body, status, err := c.post(ctx, image)
	if err == nil && status == http.StatusServiceUnavailable {
		select {
		case <-ctx.Done():
			return nil, apperrors.Upstream(ctx.Err())
		case <-time.After(c.retryDelay):
		}
		body, status, err = c.post(ctx, image)
	}
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	if status < 200 || status >= 300 {
		return nil, apperrors.Upstream(fmt.Errorf("inference API error %d: %s", status, truncate(string(body), 200)))
	}

	return parseDetections(body)
}

func (c *InferenceClient) post(ctx context.Context, image []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// parseDetections accepts detector arrays and single classification objects.
func parseDetections(body []byte) ([]Detection, error) {
	var list []Detection
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var single Detection
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}
	if single.Label == "" {
		return nil, errors.New("inference response has no label")
	}
	return []Detection{single}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// MockDetections are served when the inference service is unavailable.
func MockDetections() []Detection {
	box := &BoundingBox{XMin: 0, YMin: 0, XMax: 100, YMax: 100}
	return []Detection{
		{Label: "pothole", Score: 0.92, Box: box},
		{Label: "road damage", Score: 0.85, Box: box},
		{Label: "garbage", Score: 0.78, Box: box},
		{Label: "street light", Score: 0.65, Box: box},
		{Label: "construction barrier", Score: 0.72, Box: box},
	}
}
