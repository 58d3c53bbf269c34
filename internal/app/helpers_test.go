package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"deferred_notifier/internal/domain/notification"
	"deferred_notifier/internal/domain/notifytype"
	"deferred_notifier/internal/infra/database"
	"deferred_notifier/internal/timeutil"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	response string
}

func (s *recordingSender) SendMessage(_ context.Context, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	if s.response == "" {
		return "HTTP 200: {\"status\":1}"
	}
	return s.response
}

func (s *recordingSender) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// flakyRepo fails history lookups for one notification.
type flakyRepo struct {
	notification.Repository
	failID string
}

func (r *flakyRepo) HasSentOccurrence(ctx context.Context, id string, instant time.Time) (bool, error) {
	if id == r.failID {
		return false, errors.New("disk on fire")
	}
	return r.Repository.HasSentOccurrence(ctx, id, instant)
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newRepo(t *testing.T) notification.Repository {
	t.Helper()
	db, err := database.NewSQLiteConnection(filepath.Join(t.TempDir(), "app.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(context.Background(), db, database.DriverSQLite))
	return database.NewSQLiteNotificationRepository(db)
}

func insert(t *testing.T, repo notification.Repository, id string, kind notifytype.Kind, createdAt time.Time, args ...any) {
	t.Helper()
	require.NoError(t, repo.InsertNotification(context.Background(), &notification.Notification{
		ID:        id,
		Kind:      kind,
		Arguments: notifytype.Arguments(args),
		Active:    true,
		CreatedAt: createdAt,
	}))
}

func isActive(t *testing.T, repo notification.Repository, id string) bool {
	t.Helper()
	n, err := repo.GetNotification(context.Background(), id)
	require.NoError(t, err)
	return n.Active
}

func newClock() *timeutil.FixedClock { return timeutil.NewFixedClock(t0) }
