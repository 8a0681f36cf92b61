// Package render turns UI state into HTML. All backend-provided text goes
// through html/template's contextual escaping.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/krishimitra/frontend/internal/models"
)

//go:embed templates/*.gohtml
var templateFiles embed.FS

// FallbackStep is shown when the backend sends no treatment steps.
const FallbackStep = "Consult local agricultural expert"

// Urgency classes.
const (
	ClassUrgent  = "urgent"
	ClassWarning = "warning"
	ClassSuccess = "success"
)

var funcs = template.FuncMap{
	"urgencyClass": UrgencyClass,
	"confidence":   FormatConfidence,
	"steps":        Steps,
	"speaker":      speaker,
	"messageClass": messageClass,
	"lastIndex":    func(msgs []models.ChatMessage) int { return len(msgs) - 1 },
}

var defaultTemplates = template.Must(template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.gohtml"))

// UrgencyClass maps an urgency to its visual class.
func UrgencyClass(u models.Urgency) string {
	switch u {
	case models.UrgencyHigh:
		return ClassUrgent
	case models.UrgencyMedium:
		return ClassWarning
	default:
		return ClassSuccess
	}
}

// FormatConfidence renders a 0..1 confidence as a percentage with one decimal.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

// Steps returns the treatment steps, or the single fallback step. The
// rendered list is never empty.
func Steps(a *models.Advice) []string {
	if a == nil || len(a.Steps) == 0 {
		return []string{FallbackStep}
	}
	return a.Steps
}

func speaker(r models.Role) string {
	if r == models.RoleAssistant {
		return "KrishiMitra:"
	}
	return "You:"
}

func messageClass(r models.Role) string {
	if r == models.RoleAssistant {
		return "ai-message"
	}
	return "user-message"
}

// PageData is the input of the full page template.
type PageData struct {
	Snapshot models.UISnapshot
	Menu     []models.NavItem
	Version  string
}

// PreviewURL marks the preview data: URL as safe for an img src. It is
// built by the controller from a parsed image/* media type and base64.
func (p PageData) PreviewURL() template.URL {
	return template.URL(p.Snapshot.PreviewURL)
}

// Page writes the full page.
func Page(w io.Writer, data PageData) error {
	if data.Menu == nil {
		data.Menu = models.Menu
	}
	return defaultTemplates.ExecuteTemplate(w, "page", data)
}

// Result renders a diagnosis.
func Result(res *models.DiagnosisResult) (template.HTML, error) {
	return execute("result", res)
}

// ErrorPanel renders the error panel for msg.
func ErrorPanel(msg string) (template.HTML, error) {
	return execute("error", msg)
}

// Panel renders whatever the result area currently holds.
func Panel(p models.ResultPanel) (template.HTML, error) {
	return execute("panel", p)
}

// Transcript renders the chat transcript; the newest entry carries id="latest".
func Transcript(msgs []models.ChatMessage) (template.HTML, error) {
	return execute("transcript", msgs)
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := defaultTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
