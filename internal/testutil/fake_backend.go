// fake_backend.go - Stand-in for the diagnosis and chat service
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Upload is a /predict request as the fake backend received it
type Upload struct {
	Filename  string
	MediaType string
	Data      []byte
}

// FakeBackend serves /predict and /api/chat with canned answers
type FakeBackend struct {
	*httptest.Server

	mu sync.Mutex

	// PredictStatus and PredictBody are written for every /predict call
	PredictStatus int
	PredictBody   string
	// ChatStatus and ChatBody are written for every /api/chat call
	ChatStatus int
	ChatBody   string

	uploads   []Upload
	questions []string
}

// NewFakeBackend starts a fake backend answering 200 with an empty object.
// The server is closed by the caller.
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		PredictStatus: http.StatusOK,
		PredictBody:   `{}`,
		ChatStatus:    http.StatusOK,
		ChatBody:      `{}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", fb.handlePredict)
	mux.HandleFunc("/api/chat", fb.handleChat)
	fb.Server = httptest.NewServer(mux)
	return fb
}

func (fb *FakeBackend) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var up Upload
	if file, header, err := r.FormFile("file"); err == nil {
		up.Filename = header.Filename
		up.MediaType = header.Header.Get("Content-Type")
		up.Data, _ = io.ReadAll(file)
		file.Close()
	}

	fb.mu.Lock()
	fb.uploads = append(fb.uploads, up)
	status, body := fb.PredictStatus, fb.PredictBody
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (fb *FakeBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	fb.mu.Lock()
	fb.questions = append(fb.questions, req.Question)
	status, body := fb.ChatStatus, fb.ChatBody
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// SetPredict changes the /predict answer
func (fb *FakeBackend) SetPredict(status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.PredictStatus, fb.PredictBody = status, body
}

// SetChat changes the /api/chat answer
func (fb *FakeBackend) SetChat(status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.ChatStatus, fb.ChatBody = status, body
}

// Uploads returns the /predict requests received so far
func (fb *FakeBackend) Uploads() []Upload {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]Upload(nil), fb.uploads...)
}

// Questions returns the chat questions received so far
func (fb *FakeBackend) Questions() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.questions...)
}
