package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	detections []Detection
	err        error
}

func (s stubDetector) Detect(ctx context.Context, image []byte, contentType string) ([]Detection, error) {
	return s.detections, s.err
}

func TestServiceAnalyze(t *testing.T) {
	live := NewService(stubDetector{detections: []Detection{{Label: "flooded street", Score: 0.8}}}, nil)
	a := live.Analyze(context.Background(), []byte("img"), "image/jpeg")
	require.True(t, a.IsRealAPI)
	require.Equal(t, "water", a.Category)

	down := NewService(stubDetector{err: errors.New("connection refused")}, nil)
	a = down.Analyze(context.Background(), []byte("img"), "image/jpeg")
	require.False(t, a.IsRealAPI)
	require.Equal(t, "pothole", a.Category)

	a = NewService(nil, nil).Analyze(context.Background(), nil, "")
	require.False(t, a.IsRealAPI)
	require.NotNil(t, NewService(nil, nil).Classifier())
}

func imageForm(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestAnalyzeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api"), NewService(stubDetector{err: errors.New("down")}, nil), 1<<20)

	body, ct := imageForm(t, "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var a Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	require.False(t, a.IsRealAPI)
	require.NotEmpty(t, a.Objects)

	body, ct = imageForm(t, "text/plain")
	req = httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/analyze/categories", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "pothole")
}
