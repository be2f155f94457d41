package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	apperrors "github.com/xyz-asif/citycare/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccessAndErrorResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	OK(c, map[string]string{"foo": "bar"})
	require.Equal(t, 200, w.Code)
	require.Equal(t, "bar", decode(t, w)["foo"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Error(c, 400, "bad request", "BAD_REQ")
	require.Equal(t, 400, w.Code)
	body := decode(t, w)
	require.Equal(t, "bad request", body["message"])
	require.Equal(t, "BAD_REQ", body["code"])
	require.NotContains(t, body, "field")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Message(c, "Report removed")
	require.Equal(t, "Report removed", decode(t, w)["msg"])
}

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperrors.Validation("image", "image file is required"), 400, "VALIDATION_FAILED"},
		{"not found", fmt.Errorf("get: %w", apperrors.ErrNotFound), 404, "NOT_FOUND"},
		{"storage", &apperrors.StorageError{Op: "write", Key: "a.png", Err: errors.New("disk full")}, 500, "STORAGE_ERROR"},
		{"other", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			FromError(c, tc.err, "Error submitting report")
			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.code, decode(t, w)["code"])
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, apperrors.Validation("image", "image file is required"), "")
	require.Equal(t, "image", decode(t, w)["field"])
}
