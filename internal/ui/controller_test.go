package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/krishimitra/frontend/internal/models"
	"github.com/krishimitra/frontend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiagnoser struct {
	mu       sync.Mutex
	calls    int
	payloads []string
	result   *models.DiagnosisResult
	err      error
	panicMsg string
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeDiagnoser) Predict(ctx context.Context, name, mediaType string, image io.Reader) (*models.DiagnosisResult, error) {
	data, _ := io.ReadAll(image)

	f.mu.Lock()
	f.calls++
	f.payloads = append(f.payloads, string(data))
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.result, f.err
}

func (f *fakeDiagnoser) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAssistant struct {
	mu        sync.Mutex
	questions []string
	answer    string
	err       error
}

func (f *fakeAssistant) Ask(ctx context.Context, question string) (string, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	return f.answer, f.err
}

func newTestController(t *testing.T, d *fakeDiagnoser, a *fakeAssistant) (*Controller, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), 1024)
	require.NoError(t, err)
	if d == nil {
		d = &fakeDiagnoser{}
	}
	if a == nil {
		a = &fakeAssistant{}
	}
	return NewController("session-1", Deps{Store: store, Diagnoser: d, Assistant: a}), store
}

func selectImage(t *testing.T, c *Controller, content string) *models.FileInfo {
	t.Helper()
	info, err := c.SelectFile("leaf.jpg", "image/jpeg", strings.NewReader(content))
	require.NoError(t, err)
	return info
}

func TestNewController_DefaultSection(t *testing.T) {
	c, _ := newTestController(t, nil, nil)

	snap := c.Snapshot()
	assert.Equal(t, models.SectionDashboard, snap.Section)
	assert.Equal(t, models.UploadStateEmpty, snap.UploadState)
	assert.False(t, snap.CanAnalyze)
	assert.Empty(t, snap.Transcript)
}

func TestShowSection(t *testing.T) {
	c, _ := newTestController(t, nil, nil)

	require.NoError(t, c.ShowSection(models.SectionChat))
	assert.Equal(t, models.SectionChat, c.Snapshot().Section)

	err := c.ShowSection("settings")
	assert.ErrorIs(t, err, ErrUnknownSection)
	assert.Equal(t, models.SectionChat, c.Snapshot().Section, "unknown section must not change state")
}

func TestSelectFile_RejectsNonImage(t *testing.T) {
	for _, mediaType := range []string{"application/pdf", "text/plain", "", "video/mp4", "image"} {
		t.Run(mediaType, func(t *testing.T) {
			c, store := newTestController(t, nil, nil)

			_, err := c.SelectFile("notes", mediaType, strings.NewReader("data"))
			assert.ErrorIs(t, err, ErrNotImage)

			snap := c.Snapshot()
			assert.Equal(t, models.UploadStateEmpty, snap.UploadState)
			assert.False(t, snap.CanAnalyze)
			assert.Nil(t, snap.SelectedFile)
			assert.Equal(t, AlertNotImage, snap.Alert)
			assert.Equal(t, 0, store.Count())
		})
	}
}

func TestSelectFile_RejectsNonImageKeepsPrevious(t *testing.T) {
	c, _ := newTestController(t, nil, nil)
	first := selectImage(t, c, "first")

	_, err := c.SelectFile("doc.pdf", "application/pdf", strings.NewReader("pdf"))
	require.ErrorIs(t, err, ErrNotImage)

	snap := c.Snapshot()
	assert.Equal(t, models.UploadStatePreviewing, snap.UploadState)
	assert.Equal(t, first.ID, snap.SelectedFile.ID)
}

func TestSelectFile_PreviewAndEnable(t *testing.T) {
	c, _ := newTestController(t, nil, nil)
	selectImage(t, c, "abc")

	snap := c.Snapshot()
	assert.Equal(t, models.UploadStatePreviewing, snap.UploadState)
	assert.True(t, snap.CanAnalyze)
	assert.Equal(t, "data:image/jpeg;base64,YWJj", snap.PreviewURL)
}

func TestSelectFile_NormalisesMediaType(t *testing.T) {
	c, _ := newTestController(t, nil, nil)

	info, err := c.SelectFile("leaf.png", "Image/PNG; name=leaf.png", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.MediaType)
	assert.Equal(t, "data:image/png;base64,YWJj", c.Snapshot().PreviewURL)
}

func TestSelectFile_ReplacesPrevious(t *testing.T) {
	c, store := newTestController(t, nil, nil)
	first := selectImage(t, c, "first")
	second := selectImage(t, c, "second")

	snap := c.Snapshot()
	assert.Equal(t, second.ID, snap.SelectedFile.ID)
	assert.Equal(t, "data:image/jpeg;base64,c2Vjb25k", snap.PreviewURL)
	assert.Equal(t, 1, store.Count(), "previous blob should be released")

	_, err := store.Get(first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSelectFile_TooLarge(t *testing.T) {
	c, _ := newTestController(t, nil, nil)

	_, err := c.SelectFile("huge.jpg", "image/jpeg", strings.NewReader(strings.Repeat("x", 2048)))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, models.UploadStateEmpty, c.Snapshot().UploadState)
	assert.Equal(t, AlertTooLarge, c.Snapshot().Alert)
}

func TestAnalyze_NoFileSelected(t *testing.T) {
	d := &fakeDiagnoser{}
	c, _ := newTestController(t, d, nil)

	_, err := c.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrNoFileSelected)
	assert.Equal(t, 0, d.Calls())
	assert.False(t, c.Snapshot().Loading)
}

func TestAnalyze_Success(t *testing.T) {
	d := &fakeDiagnoser{result: &models.DiagnosisResult{
		Success:    true,
		Disease:    "Potato Early Blight",
		Confidence: 0.91,
		Advice:     &models.Advice{Urgency: models.UrgencyMedium},
	}}
	c, _ := newTestController(t, d, nil)
	selectImage(t, c, "image-bytes")

	panel, err := c.Analyze(context.Background())
	require.NoError(t, err)
	require.NotNil(t, panel.Result)
	assert.Equal(t, "Potato Early Blight", panel.Result.Disease)
	assert.Empty(t, panel.Error)
	assert.Equal(t, []string{"image-bytes"}, d.payloads)

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, models.UploadStatePreviewing, snap.UploadState)
	assert.True(t, snap.CanAnalyze, "user may re-analyze")
	assert.Equal(t, panel, snap.Panel)
}

func TestAnalyze_FailuresHideLoading(t *testing.T) {
	tests := []struct {
		name    string
		d       *fakeDiagnoser
		wantErr string
	}{
		{"backend error message", &fakeDiagnoser{result: &models.DiagnosisResult{Success: false, Error: "No file selected"}}, "No file selected"},
		{"backend failure without message", &fakeDiagnoser{result: &models.DiagnosisResult{Success: false}}, DefaultAnalysisError},
		{"network error", &fakeDiagnoser{err: errors.New("connection refused")}, "connection refused"},
		{"malformed json", &fakeDiagnoser{err: errors.New("invalid diagnosis response (HTTP 500): invalid character '<'")}, "invalid diagnosis response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(t, tt.d, nil)
			selectImage(t, c, "img")

			panel, err := c.Analyze(context.Background())
			require.NoError(t, err)
			assert.Nil(t, panel.Result)
			assert.Contains(t, panel.Error, tt.wantErr)

			snap := c.Snapshot()
			assert.False(t, snap.Loading)
			assert.Equal(t, models.UploadStatePreviewing, snap.UploadState)
		})
	}
}

func TestAnalyze_PanicStillHidesLoading(t *testing.T) {
	d := &fakeDiagnoser{panicMsg: "boom"}
	c, _ := newTestController(t, d, nil)
	selectImage(t, c, "img")

	assert.Panics(t, func() { _, _ = c.Analyze(context.Background()) })
	assert.False(t, c.Snapshot().Loading)
	assert.False(t, c.Busy())
}

func TestAnalyze_LoadingVisibleWhileInFlight(t *testing.T) {
	d := &fakeDiagnoser{
		result:  &models.DiagnosisResult{Success: true, Disease: "Tomato Healthy"},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c, _ := newTestController(t, d, &fakeAssistant{answer: "ok"})
	selectImage(t, c, "img")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Analyze(context.Background())
	}()

	<-d.started
	snap := c.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, models.UploadStateSubmitting, snap.UploadState)
	assert.False(t, snap.CanAnalyze)

	// a duplicate submission is refused while the first is outstanding
	_, err := c.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	// chat is not blocked by the outstanding analysis
	assert.True(t, c.SendMessage(context.Background(), "still there?"))

	close(d.release)
	<-done

	assert.False(t, c.Snapshot().Loading)
	assert.Equal(t, 1, d.Calls())
}

func TestSendMessage_IgnoresBlank(t *testing.T) {
	a := &fakeAssistant{answer: "unused"}
	c, _ := newTestController(t, nil, a)

	for _, text := range []string{"", "   ", "\t\n"} {
		assert.False(t, c.SendMessage(context.Background(), text))
	}
	assert.Empty(t, c.Transcript())
	assert.Empty(t, a.questions)
}

func TestSendMessage_AppendsInOrder(t *testing.T) {
	a := &fakeAssistant{answer: "Apply copper fungicide."}
	c, _ := newTestController(t, nil, a)

	require.True(t, c.SendMessage(context.Background(), "  How do I treat leaf blight?  "))

	transcript := c.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, models.RoleUser, transcript[0].Role)
	assert.Equal(t, "How do I treat leaf blight?", transcript[0].Text)
	assert.Equal(t, models.RoleAssistant, transcript[1].Role)
	assert.Equal(t, "Apply copper fungicide.", transcript[1].Text)
	assert.Equal(t, []string{"How do I treat leaf blight?"}, a.questions)
}

func TestSendMessage_FailureUsesFallback(t *testing.T) {
	a := &fakeAssistant{err: errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")}
	c, _ := newTestController(t, nil, a)

	require.True(t, c.SendMessage(context.Background(), "watering?"))

	transcript := c.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, ChatFallbackMessage, transcript[1].Text)
	assert.NotContains(t, transcript[1].Text, "connection refused")
}

func TestDragHighlight(t *testing.T) {
	c, _ := newTestController(t, nil, nil)

	c.DragEnter()
	assert.True(t, c.Snapshot().DragActive)
	c.DragLeave()
	assert.False(t, c.Snapshot().DragActive)
	c.DragEnter()
	c.Drop()
	assert.False(t, c.Snapshot().DragActive)
	assert.Equal(t, models.UploadStateEmpty, c.Snapshot().UploadState)
}

func TestConsumeAlert(t *testing.T) {
	c, _ := newTestController(t, nil, nil)
	_, _ = c.SelectFile("a.txt", "text/plain", strings.NewReader("x"))

	assert.Equal(t, AlertNotImage, c.ConsumeAlert())
	assert.Empty(t, c.ConsumeAlert())
}

func TestClose_ReleasesBlob(t *testing.T) {
	c, store := newTestController(t, nil, nil)
	selectImage(t, c, "img")
	require.Equal(t, 1, store.Count())

	require.NoError(t, c.Close())
	assert.Equal(t, 0, store.Count())
	assert.Equal(t, models.UploadStateEmpty, c.Snapshot().UploadState)
	assert.NoError(t, c.Close())
}

func TestEvents_PublishedInOrder(t *testing.T) {
	hub := NewHub()
	events, unsubscribe := hub.Subscribe("s")
	defer unsubscribe()

	store, err := storage.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	c := NewController("s", Deps{
		Store:     store,
		Diagnoser: &fakeDiagnoser{result: &models.DiagnosisResult{Success: true}},
		Assistant: &fakeAssistant{answer: "hi"},
		Hub:       hub,
	})

	selectImage(t, c, "img")
	_, err = c.Analyze(context.Background())
	require.NoError(t, err)

	var types []EventType
	timeout := time.After(time.Second)
	for len(types) < 5 {
		select {
		case ev := <-events:
			assert.Equal(t, "s", ev.SessionID)
			types = append(types, ev.Type)
		case <-timeout:
			t.Fatalf("timed out, got %v", types)
		}
	}
	assert.Equal(t, []EventType{EventSection, EventPreview, EventLoading, EventResult, EventLoading}, types)
}
