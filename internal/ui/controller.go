// Package ui holds the per-session UI controller: navigation, the upload
// state machine, the analysis request and the chat transcript.
package ui

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/krishimitra/frontend/internal/models"
	"github.com/krishimitra/frontend/internal/storage"
)

// User-visible texts.
const (
	AlertNotImage        = "Please select an image file"
	AlertTooLarge        = "Please select a smaller image"
	DefaultAnalysisError = "Analysis failed"
	ChatFallbackMessage  = "Sorry, I encountered an error. Please try again."
)

const imageMediaPrefix = "image/"

var (
	ErrNotImage         = errors.New("selected file is not an image")
	ErrFileTooLarge     = errors.New("selected file is too large")
	ErrNoFileSelected   = errors.New("no file selected")
	ErrAnalysisInFlight = errors.New("analysis already in progress")
	ErrUnknownSection   = errors.New("unknown section")
)

// Diagnoser submits an image to the diagnosis endpoint.
type Diagnoser interface {
	Predict(ctx context.Context, name, mediaType string, image io.Reader) (*models.DiagnosisResult, error)
}

// Assistant answers chat questions.
type Assistant interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Deps are the collaborators shared by all controllers.
type Deps struct {
	Store     storage.Store
	Diagnoser Diagnoser
	Assistant Assistant
	Hub       *Hub
}

// Controller is the UI state of one browser session. Network calls run
// outside the lock so chat stays usable while an analysis is outstanding.
type Controller struct {
	id   string
	deps Deps

	mu           sync.Mutex
	section      models.Section
	state        models.UploadState
	selected     *models.SelectedFile
	loading      bool
	dragActive   bool
	alert        string
	panel        models.ResultPanel
	transcript   []models.ChatMessage
	lastActivity time.Time
}

// NewController creates a controller showing the default section.
func NewController(id string, deps Deps) *Controller {
	if deps.Hub == nil {
		deps.Hub = NewHub()
	}
	c := &Controller{
		id:           id,
		deps:         deps,
		state:        models.UploadStateEmpty,
		transcript:   make([]models.ChatMessage, 0),
		lastActivity: time.Now(),
	}
	// cannot fail for the default section
	_ = c.ShowSection(models.DefaultSection)
	return c
}

// ID returns the session ID the controller belongs to.
func (c *Controller) ID() string {
	return c.id
}

// ShowSection makes section the only visible one.
func (c *Controller) ShowSection(section models.Section) error {
	if !section.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	c.mu.Lock()
	c.section = section
	c.touchLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventSection, Section: section})
	return nil
}

// DragEnter turns the drop-zone highlight on.
func (c *Controller) DragEnter() { c.setDrag(true) }

// DragLeave turns the drop-zone highlight off.
func (c *Controller) DragLeave() { c.setDrag(false) }

// Drop turns the highlight off; the dropped file goes through SelectFile.
func (c *Controller) Drop() { c.setDrag(false) }

func (c *Controller) setDrag(active bool) {
	c.mu.Lock()
	c.dragActive = active
	c.touchLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventDrag, Active: active})
}

// SelectFile takes a browsed or dropped file. The declared media type is
// normalised first (parameters dropped, lower-cased). Non-images and
// oversized files raise an alert and leave the state untouched; a valid
// image replaces any previous selection and its preview.
func (c *Controller) SelectFile(name, mediaType string, r io.Reader) (*models.FileInfo, error) {
	declared := mediaType
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	} else {
		mediaType = ""
	}
	if !strings.HasPrefix(mediaType, imageMediaPrefix) {
		c.raiseAlert(AlertNotImage)
		return nil, fmt.Errorf("%s (%q): %w", name, declared, ErrNotImage)
	}

	info, err := c.deps.Store.Save(name, mediaType, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			c.raiseAlert(AlertTooLarge)
			return nil, fmt.Errorf("%w: %v", ErrFileTooLarge, err)
		}
		return nil, fmt.Errorf("storing selected file: %w", err)
	}

	preview, err := c.buildPreview(info)
	if err != nil {
		_ = c.deps.Store.Delete(info.ID)
		return nil, err
	}

	c.mu.Lock()
	previous := c.selected
	c.selected = &models.SelectedFile{FileInfo: *info, PreviewURL: preview}
	if c.state != models.UploadStateSubmitting {
		c.state = models.UploadStatePreviewing
	}
	c.alert = ""
	c.touchLocked()
	c.mu.Unlock()

	if previous != nil {
		if err := c.deps.Store.Delete(previous.ID); err != nil {
			slog.Warn("Failed to remove replaced image", "session_id", c.id, "file_id", previous.ID, "err", err)
		}
	}

	c.publish(Event{Type: EventPreview, File: info})
	return info, nil
}

func (c *Controller) raiseAlert(text string) {
	c.mu.Lock()
	c.alert = text
	c.touchLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventAlert, Alert: text})
}

// buildPreview encodes the stored blob as a data: URL.
func (c *Controller) buildPreview(info *models.FileInfo) (string, error) {
	rc, _, err := c.deps.Store.Open(info.ID)
	if err != nil {
		return "", fmt.Errorf("reading selected file: %w", err)
	}
	defer rc.Close()

	var sb strings.Builder
	sb.Grow(len("data:;base64,") + len(info.MediaType) + base64.StdEncoding.EncodedLen(int(info.Size)))
	sb.WriteString("data:")
	sb.WriteString(info.MediaType)
	sb.WriteString(";base64,")

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	if _, err := io.Copy(enc, rc); err != nil {
		return "", fmt.Errorf("encoding preview: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding preview: %w", err)
	}
	return sb.String(), nil
}

// Analyze submits the selected image to the diagnosis endpoint. The
// loading indicator is shown for the lifetime of the request and hidden
// on every exit path. A backend or transport failure is not an error of
// Analyze: it ends up in the returned panel.
func (c *Controller) Analyze(ctx context.Context) (models.ResultPanel, error) {
	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return models.ResultPanel{}, ErrNoFileSelected
	}
	if c.state == models.UploadStateSubmitting {
		c.mu.Unlock()
		return models.ResultPanel{}, ErrAnalysisInFlight
	}
	file := c.selected.FileInfo
	// opened under the lock so a concurrent reselection cannot delete it first
	rc, _, openErr := c.deps.Store.Open(file.ID)
	c.state = models.UploadStateSubmitting
	c.loading = true
	c.touchLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventLoading, Active: true})
	defer c.finishAnalysis()

	start := time.Now()
	var panel models.ResultPanel
	if openErr != nil {
		panel = models.ResultPanel{Error: openErr.Error()}
	} else {
		panel = c.runAnalysis(ctx, file, rc)
	}

	c.mu.Lock()
	c.panel = panel
	c.mu.Unlock()

	if panel.Error != "" {
		slog.Warn("Analysis failed", "session_id", c.id, "file", file.Name, "error", panel.Error, "duration", time.Since(start))
	} else {
		slog.Info("Analysis complete", "session_id", c.id, "file", file.Name, "disease", panel.Result.Disease, "duration", time.Since(start))
	}

	c.publish(Event{Type: EventResult, Panel: &panel})
	return panel, nil
}

func (c *Controller) runAnalysis(ctx context.Context, file models.FileInfo, rc io.ReadCloser) models.ResultPanel {
	defer rc.Close()

	result, err := c.deps.Diagnoser.Predict(ctx, file.Name, file.MediaType, rc)
	if err != nil {
		return models.ResultPanel{Error: err.Error()}
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = DefaultAnalysisError
		}
		return models.ResultPanel{Error: msg}
	}
	return models.ResultPanel{Result: result}
}

func (c *Controller) finishAnalysis() {
	c.mu.Lock()
	c.loading = false
	if c.selected != nil {
		c.state = models.UploadStatePreviewing
	} else {
		c.state = models.UploadStateEmpty
	}
	c.touchLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventLoading, Active: false})
}

// SendMessage appends the user's message and the assistant's answer to
// the transcript. Blank input is ignored and reported as false.
func (c *Controller) SendMessage(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.appendMessage(models.RoleUser, text)

	answer, err := c.deps.Assistant.Ask(ctx, text)
	if err != nil {
		slog.Warn("Chat request failed", "session_id", c.id, "err", err)
		answer = ChatFallbackMessage
	}

	c.appendMessage(models.RoleAssistant, answer)
	return true
}

func (c *Controller) appendMessage(role models.Role, text string) {
	msg := models.ChatMessage{Role: role, Text: text, SentAt: time.Now()}

	c.mu.Lock()
	c.transcript = append(c.transcript, msg)
	c.touchLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventTranscript, Message: &msg})
}

// Transcript returns a copy of the chat transcript.
func (c *Controller) Transcript() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ChatMessage, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// ConsumeAlert returns the pending alert, if any, and clears it.
func (c *Controller) ConsumeAlert() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	alert := c.alert
	c.alert = ""
	return alert
}

// Snapshot returns a copy of the current state for rendering.
func (c *Controller) Snapshot() models.UISnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.UISnapshot{
		SessionID:    c.id,
		Section:      c.section,
		UploadState:  c.state,
		CanAnalyze:   c.selected != nil && c.state == models.UploadStatePreviewing,
		Loading:      c.loading,
		DragActive:   c.dragActive,
		Alert:        c.alert,
		Panel:        c.panel,
		Transcript:   make([]models.ChatMessage, len(c.transcript)),
		LastActivity: c.lastActivity,
	}
	copy(snap.Transcript, c.transcript)
	if c.selected != nil {
		info := c.selected.FileInfo
		snap.SelectedFile = &info
		snap.PreviewURL = c.selected.PreviewURL
	}
	return snap
}

// LastActivity returns when the controller was last used.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Busy reports whether an analysis is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == models.UploadStateSubmitting
}

// Close releases the stored image, if any.
func (c *Controller) Close() error {
	c.mu.Lock()
	selected := c.selected
	c.selected = nil
	if c.state != models.UploadStateSubmitting {
		c.state = models.UploadStateEmpty
	}
	c.mu.Unlock()

	if selected == nil {
		return nil
	}
	return c.deps.Store.Delete(selected.ID)
}

func (c *Controller) touchLocked() {
	c.lastActivity = time.Now()
}

func (c *Controller) publish(ev Event) {
	ev.SessionID = c.id
	c.deps.Hub.Publish(ev)
}
