package models

import "time"

// UploadState is the state of the upload controller.
type UploadState string

const (
	UploadStateEmpty      UploadState = "empty"
	UploadStatePreviewing UploadState = "previewing"
	UploadStateSubmitting UploadState = "submitting"
)

// ResultPanel is what the result area currently shows: a diagnosis, an
// error message, or nothing.
type ResultPanel struct {
	Result *DiagnosisResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Empty reports whether the panel has nothing to show.
func (p ResultPanel) Empty() bool {
	return p.Result == nil && p.Error == ""
}

// UISnapshot is a point-in-time copy of a UI session's state.
type UISnapshot struct {
	SessionID    string        `json:"sessionId"`
	Section      Section       `json:"section"`
	UploadState  UploadState   `json:"uploadState"`
	SelectedFile *FileInfo     `json:"selectedFile,omitempty"`
	PreviewURL   string        `json:"-"`
	CanAnalyze   bool          `json:"canAnalyze"`
	Loading      bool          `json:"loading"`
	DragActive   bool          `json:"dragActive"`
	Alert        string        `json:"alert,omitempty"`
	Panel        ResultPanel   `json:"panel"`
	Transcript   []ChatMessage `json:"transcript"`
	LastActivity time.Time     `json:"lastActivity"`
}
