package pushover

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deferred_notifier/internal/timeutil"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

var fixedNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func TestClient_PostsForm(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		got = map[string]string{
			"token":   r.PostForm.Get("token"),
			"user":    r.PostForm.Get("user"),
			"message": r.PostForm.Get("message"),
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":1,"request":"abc"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Token: "tok", User: "usr", URL: srv.URL}, timeutil.NewFixedClock(fixedNow), quietLogger())
	resp := c.SendMessage(context.Background(), "one\ntwo")

	assert.Equal(t, `HTTP 200: {"status":1,"request":"abc"}`, resp)
	assert.Equal(t, map[string]string{"token": "tok", "user": "usr", "message": "one\ntwo"}, got)
}

func TestClient_ReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"user":"invalid","status":0}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Token: "tok", User: "usr", URL: srv.URL}, timeutil.NewFixedClock(fixedNow), quietLogger())
	assert.Equal(t, `HTTP 400: {"user":"invalid","status":0}`, c.SendMessage(context.Background(), "x"))
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Config{Token: "tok"}, timeutil.NewFixedClock(fixedNow), quietLogger())
	assert.Equal(t,
		"Pushover not configured: missing PUSHOVER_TOKEN or PUSHOVER_USER. at 2026-03-02T12:00:00Z",
		c.SendMessage(context.Background(), "x"))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{Token: "tok", User: "usr", URL: url}, timeutil.NewFixedClock(fixedNow), quietLogger())
	assert.True(t, strings.HasPrefix(c.SendMessage(context.Background(), "x"), "ERROR: "))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{Token: "tok", User: "usr", URL: srv.URL, Timeout: 50 * time.Millisecond},
		timeutil.NewFixedClock(fixedNow), quietLogger())
	assert.True(t, strings.HasPrefix(c.SendMessage(context.Background(), "x"), "ERROR: "))
}
