package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

func newTestClient(url string) *InferenceClient {
	c := NewInferenceClient(url, "test-key")
	c.retryDelay = 10 * time.Millisecond
	return c
}

func TestInferenceClientDetect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, "img", string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"label":"pothole","score":0.91,"box":{"xmin":1,"ymin":2,"xmax":3,"ymax":4}}]`))
	}))
	defer server.Close()

	detections, err := newTestClient(server.URL).Detect(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	require.Len(t, detections, 1)
	require.Equal(t, "pothole", detections[0].Label)
	require.Equal(t, float64(3), detections[0].Box.XMax)
}

func TestInferenceClientRetriesLoadingModel(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"label":"trash","score":0.7}`))
	}))
	defer server.Close()

	detections, err := newTestClient(server.URL).Detect(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Equal(t, []Detection{{Label: "trash", Score: 0.7}}, detections)
}

func TestInferenceClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Detect(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))

	_, err = NewInferenceClient(server.URL, "").Detect(context.Background(), nil, "")
	require.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))
}

func TestParseDetections(t *testing.T) {
	_, err := parseDetections([]byte(`{"error":"loading"}`))
	require.Error(t, err)

	_, err = parseDetections([]byte(`not json`))
	require.Error(t, err)

	list, err := parseDetections([]byte(`[]`))
	require.NoError(t, err)
	require.Empty(t, list)
}
