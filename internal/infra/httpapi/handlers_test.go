package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deferred_notifier/internal/app"
	"deferred_notifier/internal/infra/database"
	"deferred_notifier/internal/timeutil"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := logrus.New()
	l.SetOutput(io.Discard)
	entry := logrus.NewEntry(l)

	db, err := database.NewSQLiteConnection(filepath.Join(t.TempDir(), "api.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(context.Background(), db, database.DriverSQLite))

	svc := app.NewNotificationService(database.NewSQLiteNotificationRepository(db), timeutil.NewFixedClock(now), entry)
	return InitRoutes(NewNotificationHandler(svc, entry), "https://app.example", entry)
}

func do(t *testing.T, r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func createOnce(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/create", `{"type":"ONCE","arguments":["2026-03-02T12:30:00Z","hi"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp createResponse
	decode(t, w, &resp)
	require.True(t, resp.OK, resp.Message)
	return resp.UUID
}

func TestCreateInfo(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/create_info", "")
	require.Equal(t, http.StatusOK, w.Code)

	var types []struct {
		Type      string `json:"type"`
		Arguments []struct {
			Type  string `json:"type"`
			Label string `json:"label"`
			Desc  string `json:"desc"`
		} `json:"arguments"`
	}
	decode(t, w, &types)
	require.Len(t, types, 3)
	assert.Equal(t, "ONCE", types[0].Type)
	assert.Equal(t, "DATETIME", types[0].Arguments[0].Type)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreate(t *testing.T) {
	r := newTestRouter(t)
	assert.NotEmpty(t, createOnce(t, r))

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"unknown type", `{"type":"HOURLY","arguments":[]}`, "Unknown type 'HOURLY'."},
		{"past time", `{"type":"ONCE","arguments":["2020-01-01T00:00:00Z","hi"]}`, "DATETIME must be in the future (UTC)."},
		{"not an object", `[1,2]`, "Body must be an object."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/create", tt.body)
			assert.Equal(t, http.StatusOK, w.Code)
			var resp createResponse
			decode(t, w, &resp)
			assert.False(t, resp.OK)
			assert.Equal(t, tt.message, resp.Message)
		})
	}

	w := do(t, r, http.MethodPost, "/api/create", `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfo(t *testing.T) {
	r := newTestRouter(t)
	id := createOnce(t, r)

	w := do(t, r, http.MethodGet, "/api/info?uuid="+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp infoResponse
	decode(t, w, &resp)
	assert.True(t, resp.OK)
	assert.Equal(t, id, resp.Notification.UUID)
	assert.True(t, resp.Notification.ActiveStatus)
	assert.Equal(t, "2026-03-02T12:00:00Z", resp.Notification.CreatedUTC)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "ONCE", resp.Rows[0].Name)
	assert.Equal(t, "2026-03-02T12:30:00Z", resp.Rows[0].UTCDatetime)
	assert.Equal(t, "hi", resp.Rows[0].Content)

	w = do(t, r, http.MethodGet, "/api/info?uuid=nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/info", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAndList(t *testing.T) {
	r := newTestRouter(t)
	id := createOnce(t, r)

	w := do(t, r, http.MethodGet, "/api/list", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []rowView
	decode(t, w, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].UUID)

	w = do(t, r, http.MethodGet, "/api/delete?uuid="+id, "")
	var status statusResponse
	decode(t, w, &status)
	assert.True(t, status.OK)

	w = do(t, r, http.MethodGet, "/api/delete?uuid="+id, "")
	status = statusResponse{}
	decode(t, w, &status)
	assert.False(t, status.OK)
	assert.Equal(t, "UUID not found.", status.Message)

	w = do(t, r, http.MethodGet, "/api/list", "")
	rows = nil
	decode(t, w, &rows)
	assert.Empty(t, rows)
}

func TestSetActive(t *testing.T) {
	r := newTestRouter(t)
	id := createOnce(t, r)

	w := do(t, r, http.MethodPost, "/api/active?uuid="+id+"&active=false", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/info?uuid="+id, "")
	var resp infoResponse
	decode(t, w, &resp)
	assert.False(t, resp.Notification.ActiveStatus)
	assert.Empty(t, resp.Rows)

	w = do(t, r, http.MethodPost, "/api/active?uuid="+id+"&active=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflightAndHealth(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodOptions, "/api/create", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
