// Package backend talks to the diagnosis and chat service.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/krishimitra/frontend/internal/models"
)

// ErrEmptyResponse is returned when the chat endpoint answers without a response field.
var ErrEmptyResponse = errors.New("chat response missing")

// Options configures a Client.
type Options struct {
	BaseURL     string
	PredictPath string
	ChatPath    string
	Timeout     time.Duration
}

// Client calls POST /predict and POST /api/chat on the backend.
type Client struct {
	http        *resty.Client
	predictPath string
	chatPath    string
}

// NewClient creates a backend client.
func NewClient(opts Options) *Client {
	if opts.PredictPath == "" {
		opts.PredictPath = "/predict"
	}
	if opts.ChatPath == "" {
		opts.ChatPath = "/api/chat"
	}

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	return &Client{
		http:        rc,
		predictPath: opts.PredictPath,
		chatPath:    opts.ChatPath,
	}
}

// Predict uploads an image as multipart field "file" and decodes the
// diagnosis. A decoded body is returned whatever the HTTP status, since
// the backend reports failures as {"error": ...} with a 4xx/5xx code.
func (c *Client) Predict(ctx context.Context, name, mediaType string, image io.Reader) (*models.DiagnosisResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", name, mediaType, image).
		Post(c.predictPath)
	if err != nil {
		return nil, fmt.Errorf("diagnosis request failed: %w", err)
	}

	var result models.DiagnosisResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		slog.Warn("Undecodable diagnosis response", "status", resp.StatusCode(), "err", err)
		return nil, fmt.Errorf("invalid diagnosis response (HTTP %d): %w", resp.StatusCode(), err)
	}

	if resp.IsError() && result.Success {
		// a 4xx/5xx never counts as a diagnosis
		result.Success = false
	}
	return &result, nil
}

// Ask sends a question to the chat endpoint and returns its answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var out models.ChatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.ChatRequest{Question: question}).
		Post(c.chatPath)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat request failed: HTTP %d", resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("invalid chat response: %w", err)
	}
	if out.Response == nil {
		return "", ErrEmptyResponse
	}
	return *out.Response, nil
}
