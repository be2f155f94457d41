package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xyz-asif/citycare/internal/pkg/storage"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

type testServer struct {
	router *gin.Engine
	store  *Store
	dir    string
}

func pass(c *gin.Context) { c.Next() }

func newTestServer(t *testing.T, durable Repository, conn Reachability) *testServer {
	t.Helper()
	dir := t.TempDir()
	disk, err := storage.NewDiskStore(dir, "/uploads")
	require.NoError(t, err)
	return newTestServerWithImages(t, durable, conn, disk, dir)
}

func newTestServerWithImages(t *testing.T, durable Repository, conn Reachability, images storage.ImageStore, dir string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewStore(durable, conn, images, nil)
	handler := NewHandler(store, NewService(store, images, nil), 5<<20)

	r := gin.New()
	r.Static("/uploads", dir)
	RegisterRoutes(r.Group("/api"), handler, pass, pass)

	return &testServer{router: r, store: store, dir: dir}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func submission(t *testing.T, fields map[string]string, withImage bool) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withImage {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="pothole.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'e', 'g'})
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func scenarioFields() map[string]string {
	return map[string]string{
		"location":    "5th Ave",
		"description": "pothole",
		"latitude":    "12.9",
		"longitude":   "77.6",
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestSubmitScenarioOffline(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(submission(t, scenarioFields(), true))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created CreateReportResponse
	decodeJSON(t, w, &created)
	require.Equal(t, ModeOffline, created.Mode)
	require.Equal(t, created.ID, created.ReportID)
	require.True(t, IsLocalID(created.ID))
	require.False(t, created.Timestamp.IsZero())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got Report
	decodeJSON(t, w, &got)
	require.Equal(t, "5th Ave", got.Location)
	require.Equal(t, "pothole", got.Description)
	require.Equal(t, StatusSubmitted, got.Status)
	require.Equal(t, DefaultCategory, got.Category)
	require.Equal(t, DefaultPriority, got.Priority)
	require.Equal(t, &Coordinates{Lat: 12.9, Lng: 77.6}, got.Coordinates)
	require.Regexp(t, `^/uploads/\d+-\d{9}\.jpg$`, got.Image)

	w = s.do(httptest.NewRequest(http.MethodGet, got.Image, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []Report
	decodeJSON(t, w, &list)
	require.Len(t, list, 1)
}

func TestSubmitOnline(t *testing.T) {
	s := newTestServer(t, newFakeDurable(), &fakeConn{reachable: true})

	w := s.do(submission(t, scenarioFields(), true))
	require.Equal(t, http.StatusCreated, w.Code)

	var created CreateReportResponse
	decodeJSON(t, w, &created)
	require.Equal(t, ModeOnline, created.Mode)
	require.Len(t, created.ID, 24)
}

type brokenImages struct{ fakeImages }

func (b *brokenImages) Save(_ context.Context, _ io.Reader, name, _ string) (*storage.StoredImage, error) {
	return nil, &apperrors.StorageError{Op: "write", Key: name, Err: errors.New("disk full")}
}

func TestSubmitImageWriteFailure(t *testing.T) {
	s := newTestServerWithImages(t, nil, nil, &brokenImages{}, t.TempDir())

	w := s.do(submission(t, scenarioFields(), true))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	decodeJSON(t, w, &body)
	require.Equal(t, "STORAGE_ERROR", body["code"])
	require.Equal(t, 0, s.store.Local().Len())
}

func TestSubmitCreateFailureRemovesImage(t *testing.T) {
	durable := newFakeDurable()
	durable.fail(errors.New("document validation failed"))
	images := &fakeImages{}
	s := newTestServerWithImages(t, durable, &fakeConn{reachable: true}, images, t.TempDir())

	w := s.do(submission(t, scenarioFields(), true))
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	var body map[string]string
	decodeJSON(t, w, &body)
	require.Equal(t, "INTERNAL_ERROR", body["code"])
	require.Equal(t, []string{"pothole.jpg"}, images.Deleted())
	require.Equal(t, 0, s.store.Local().Len())
}

func TestSubmitOversizedBodyStopsEarly(t *testing.T) {
	s := newTestServer(t, nil, nil)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range scenarioFields() {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="huge.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xFF}, 7<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var resp map[string]string
	decodeJSON(t, w, &resp)
	require.Equal(t, "image", resp["field"])
	require.Contains(t, resp["message"], "5 MB")
	require.Equal(t, 0, s.store.Local().Len())
}

func TestSubmitMissingImage(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(submission(t, scenarioFields(), false))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	decodeJSON(t, w, &body)
	require.Equal(t, "image", body["field"])
	require.Equal(t, "VALIDATION_FAILED", body["code"])

	require.Equal(t, 0, s.store.Local().Len())
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	cases := []struct {
		name  string
		edit  func(map[string]string)
		field string
	}{
		{"missing location", func(f map[string]string) { delete(f, "location") }, "location"},
		{"blank description", func(f map[string]string) { f["description"] = "   " }, "description"},
		{"bad latitude", func(f map[string]string) { f["latitude"] = "north" }, "latitude"},
		{"out of range", func(f map[string]string) { f["latitude"] = "95" }, "coordinates"},
		{"lonely longitude", func(f map[string]string) { delete(f, "latitude") }, "latitude"},
		{"bad priority", func(f map[string]string) { f["priority"] = "urgent" }, "priority"},
		{"bad category", func(f map[string]string) { f["category"] = "aliens" }, "category"},
		{"bad analysis", func(f map[string]string) { f["aiAnalysis"] = "{not json" }, "aiAnalysis"},
		{"bad marked locations", func(f map[string]string) { f["markedLocations"] = `{"id":"1"}` }, "markedLocations"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := scenarioFields()
			tc.edit(fields)

			w := s.do(submission(t, fields, true))
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var body map[string]string
			decodeJSON(t, w, &body)
			require.Equal(t, tc.field, body["field"])
		})
	}
	require.Equal(t, 0, s.store.Local().Len())
}

func TestSubmitWithoutCoordinates(t *testing.T) {
	s := newTestServer(t, nil, nil)

	fields := scenarioFields()
	delete(fields, "latitude")
	delete(fields, "longitude")
	w := s.do(submission(t, fields, true))
	require.Equal(t, http.StatusCreated, w.Code)

	list, _, err := s.store.List(t.Context())
	require.NoError(t, err)
	require.Nil(t, list[0].Coordinates)
}

func TestSubmitAcceptsAliasesAndTypedAnalysis(t *testing.T) {
	s := newTestServer(t, nil, nil)

	fields := map[string]string{
		"location":        "Main St",
		"description":     "bins overflowing",
		"lat":             "40.7128",
		"lng":             "-74.0060",
		"aiAnalysis":      `{"confidence":80,"objects":[{"label":"trash can","confidence":80}],"isRealAPI":true}`,
		"markedLocations": `[{"id":"m1","lat":40.7138,"lng":-74.0060,"label":"second bin"}]`,
	}
	w := s.do(submission(t, fields, true))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created CreateReportResponse
	decodeJSON(t, w, &created)
	got, err := s.store.Get(t.Context(), created.ID)
	require.NoError(t, err)

	require.Equal(t, &Coordinates{Lat: 40.7128, Lng: -74.0060}, got.Coordinates)
	require.Equal(t, "garbage", got.Category)
	require.Equal(t, "medium", got.Priority)
	require.Equal(t, "garbage", got.AIAnalysis.Objects[0].CivicCategory)
	require.True(t, got.AIAnalysis.IsRealAPI)
	require.Len(t, got.MarkedLocations, 1)
	require.InDelta(t, 111, got.MarkedLocations[0].DistanceMeters, 2)
}

func TestDeleteRemovesReportAndImage(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(submission(t, scenarioFields(), true))
	var created CreateReportResponse
	decodeJSON(t, w, &created)
	report, err := s.store.Get(t.Context(), created.ID)
	require.NoError(t, err)

	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/reports/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"msg":"Report removed"}`, w.Body.String())
	s.store.Wait()

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	require.JSONEq(t, `[]`, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/uploads/"+path.Base(report.Image), nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/reports/"+created.ID, nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func patchStatus(method, id, status string) *http.Request {
	req := httptest.NewRequest(method, "/api/reports/"+id, bytes.NewBufferString(fmt.Sprintf(`{"status":%q}`, status)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUpdateStatus(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(submission(t, scenarioFields(), true))
	var created CreateReportResponse
	decodeJSON(t, w, &created)

	w = s.do(patchStatus(http.MethodPatch, created.ID, "in-progress"))
	require.Equal(t, http.StatusOK, w.Code)
	first := w.Body.String()

	w = s.do(patchStatus(http.MethodPut, created.ID, "in-progress"))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, first, w.Body.String())

	w = s.do(patchStatus(http.MethodPatch, created.ID, "closed"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(patchStatus(http.MethodPatch, "LOCAL-404", "resolved"))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(patchStatus(http.MethodPatch, "665f1c2e9b1d4c0012a3b4c5", "resolved"))
	require.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPatch, "/api/reports/"+created.ID, bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = s.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	decodeJSON(t, w, &body)
	require.Equal(t, "VALIDATION_FAILED", body["code"])
	require.Equal(t, "status", body["field"])

	req = httptest.NewRequest(http.MethodPatch, "/api/reports/"+created.ID, bytes.NewBufferString(`{"status":`))
	req.Header.Set("Content-Type", "application/json")
	w = s.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	decodeJSON(t, w, &body)
	require.Equal(t, "INVALID_JSON", body["code"])
}

func TestListFilterAndStats(t *testing.T) {
	s := newTestServer(t, nil, nil)

	var ids []string
	for i := 0; i < 3; i++ {
		w := s.do(submission(t, scenarioFields(), true))
		var created CreateReportResponse
		decodeJSON(t, w, &created)
		ids = append(ids, created.ID)
	}
	s.do(patchStatus(http.MethodPatch, ids[0], "resolved"))

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/reports?status=resolved", nil))
	var resolved []Report
	decodeJSON(t, w, &resolved)
	require.Len(t, resolved, 1)
	require.Equal(t, ids[0], resolved[0].ID)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	var all []Report
	decodeJSON(t, w, &all)
	require.Len(t, all, 3)
	require.Equal(t, ids[2], all[0].ID, "newest first")

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports?page=2&limit=2", nil))
	var paged []Report
	decodeJSON(t, w, &paged)
	require.Len(t, paged, 1)
	require.Equal(t, ids[0], paged[0].ID)
	require.Equal(t, "3", w.Header().Get("X-Total-Count"))
	require.Equal(t, "2", w.Header().Get("X-Total-Pages"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports/stats/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	decodeJSON(t, w, &stats)
	require.Equal(t, ModeOffline, stats.Mode)
	require.Equal(t, Stats{Total: 3, Submitted: 2, Resolved: 1}, stats.Stats)
}

func TestConcurrentOfflineSubmissionsGetDistinctIDs(t *testing.T) {
	s := newTestServer(t, nil, nil)

	const n = 10
	reqs := make([]*http.Request, n)
	for i := range reqs {
		reqs[i] = submission(t, scenarioFields(), true)
	}

	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, reqs[i])
			var created CreateReportResponse
			if json.Unmarshal(w.Body.Bytes(), &created) == nil {
				ids[i] = created.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
