package session

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/krishimitra/frontend/internal/models"
	"github.com/krishimitra/frontend/internal/storage"
	"github.com/krishimitra/frontend/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDiagnoser struct{}

func (stubDiagnoser) Predict(ctx context.Context, name, mediaType string, image io.Reader) (*models.DiagnosisResult, error) {
	return &models.DiagnosisResult{Success: true}, nil
}

type stubAssistant struct{}

func (stubAssistant) Ask(ctx context.Context, question string) (string, error) {
	return "ok", nil
}

func newTestManager(t *testing.T, max int) (*Manager, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	return NewManager(ui.Deps{Store: store, Diagnoser: stubDiagnoser{}, Assistant: stubAssistant{}}, max), store
}

func TestSessionManager(t *testing.T) {
	m, _ := newTestManager(t, 0)

	ctrl := m.StartSession()
	require.NotEmpty(t, ctrl.ID())

	got, ok := m.GetSession(ctrl.ID())
	require.True(t, ok)
	assert.Same(t, ctrl, got)

	again, started := m.GetOrStart(ctrl.ID())
	assert.False(t, started)
	assert.Same(t, ctrl, again)

	fresh, started := m.GetOrStart("unknown-id")
	assert.True(t, started)
	assert.NotEqual(t, ctrl.ID(), fresh.ID())

	_, started = m.GetOrStart("")
	assert.True(t, started)
	assert.Equal(t, 3, m.Count())
	assert.NotNil(t, m.Hub())
}

func TestSessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t, 0)
	a := m.StartSession()
	b := m.StartSession()

	require.True(t, a.SendMessage(context.Background(), "hello"))
	require.NoError(t, b.ShowSection(models.SectionChat))

	assert.Len(t, a.Transcript(), 2)
	assert.Empty(t, b.Transcript())
	assert.Equal(t, models.SectionDashboard, a.Snapshot().Section)
}

func TestEndSession_ReleasesImage(t *testing.T) {
	m, store := newTestManager(t, 0)
	ctrl := m.StartSession()
	_, err := ctrl.SelectFile("leaf.jpg", "image/jpeg", strings.NewReader("img"))
	require.NoError(t, err)
	require.Equal(t, 1, store.Count())

	assert.True(t, m.EndSession(ctrl.ID()))
	assert.False(t, m.EndSession(ctrl.ID()))
	assert.Equal(t, 0, store.Count())
	assert.Equal(t, 0, m.Count())
}

func TestCleanupOldSessions(t *testing.T) {
	m, store := newTestManager(t, 0)
	ctrl := m.StartSession()
	_, err := ctrl.SelectFile("leaf.jpg", "image/jpeg", strings.NewReader("img"))
	require.NoError(t, err)

	assert.Equal(t, 0, m.CleanupOldSessions(time.Hour), "recent sessions are kept")
	assert.Equal(t, 1, m.Count())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, m.CleanupOldSessions(time.Millisecond))
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 0, store.Count(), "idle session image is removed")
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	m, _ := newTestManager(t, 2)
	oldest := m.StartSession()
	time.Sleep(2 * time.Millisecond)
	newer := m.StartSession()
	time.Sleep(2 * time.Millisecond)

	// touching makes the first session the most recent one
	require.NoError(t, oldest.ShowSection(models.SectionAbout))

	third := m.StartSession()
	assert.Equal(t, 2, m.Count())

	_, ok := m.GetSession(newer.ID())
	assert.False(t, ok, "least recently used session should be evicted")
	_, ok = m.GetSession(oldest.ID())
	assert.True(t, ok)
	_, ok = m.GetSession(third.ID())
	assert.True(t, ok)
}
