// handlers_ui.go - Page action handlers
package api

import (
	"errors"
	"net/http"

	"github.com/krishimitra/frontend/internal/models"
	"github.com/krishimitra/frontend/internal/ui"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// UIHandlerImpl implements the UIHandler interface
type UIHandlerImpl struct {
	sessions sessionResolver
}

// NewUIHandler creates a new UI action handler
func NewUIHandler(sessions sessionResolver) UIHandler {
	return &UIHandlerImpl{sessions: sessions}
}

type sectionRequest struct {
	Section string `json:"section" form:"section" query:"section"`
}

type dragRequest struct {
	Event string `json:"event" form:"event"`
}

type chatRequest struct {
	Message string `json:"message" form:"message"`
}

// HandleShowSection switches the visible section
func (h *UIHandlerImpl) HandleShowSection(c echo.Context) error {
	var req sectionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Section == "" {
		return NewValidationError("section")
	}

	ctrl := h.sessions.controller(c)
	if err := ctrl.ShowSection(models.Section(req.Section)); err != nil {
		if errors.Is(err, ui.ErrUnknownSection) && !wantsJSON(c) {
			// the page stays on the current section
			return c.Redirect(http.StatusSeeOther, "/")
		}
		return FromUIError(err)
	}
	return respond(c, ctrl, "/")
}

// HandleUpload takes a browsed or dropped image (multipart field "file")
func (h *UIHandlerImpl) HandleUpload(c echo.Context) error {
	ctrl := h.sessions.controller(c)

	if c.FormValue("source") == "drop" {
		ctrl.Drop()
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	if _, err := ctrl.SelectFile(file.Filename, file.Header.Get(echo.HeaderContentType), src); err != nil {
		alerted := errors.Is(err, ui.ErrNotImage) || errors.Is(err, ui.ErrFileTooLarge)
		if alerted && !wantsJSON(c) {
			// the page shows the pending alert
			return c.Redirect(http.StatusSeeOther, "/")
		}
		if alerted {
			ctrl.ConsumeAlert()
		}
		return FromUIError(err)
	}

	return respond(c, ctrl, "/")
}

// HandleDrag records drop-zone highlight changes
func (h *UIHandlerImpl) HandleDrag(c echo.Context) error {
	var req dragRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	ctrl := h.sessions.controller(c)
	switch req.Event {
	case "enter":
		ctrl.DragEnter()
	case "leave":
		ctrl.DragLeave()
	case "drop":
		ctrl.Drop()
	default:
		return NewValidationError("event")
	}
	return respond(c, ctrl, "/")
}

// HandleAnalyze submits the selected image for diagnosis. Backend
// failures are part of the rendered panel, not of the HTTP status.
func (h *UIHandlerImpl) HandleAnalyze(c echo.Context) error {
	ctrl := h.sessions.controller(c)

	if _, err := ctrl.Analyze(c.Request().Context()); err != nil {
		if errors.Is(err, ui.ErrNoFileSelected) && !wantsJSON(c) {
			return c.Redirect(http.StatusSeeOther, "/")
		}
		return FromUIError(err)
	}
	return respond(c, ctrl, "/")
}

// HandleChat sends a chat message. Blank messages are ignored.
func (h *UIHandlerImpl) HandleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	ctrl := h.sessions.controller(c)
	target := "/"
	if ctrl.SendMessage(c.Request().Context(), req.Message) {
		target = "/#latest"
	}
	return respond(c, ctrl, target)
}

// HandleState returns the session snapshot
func (h *UIHandlerImpl) HandleState(c echo.Context) error {
	ctrl := h.sessions.controller(c)
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

// HandleTranscript returns the chat transcript
func (h *UIHandlerImpl) HandleTranscript(c echo.Context) error {
	ctrl, err := h.sessions.existing(c)
	if err != nil {
		return err
	}

	transcript := ctrl.Transcript()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": transcript,
		"total":    len(transcript),
	})
}

// HandleTranscriptMsgpack returns the chat transcript msgpack-encoded
func (h *UIHandlerImpl) HandleTranscriptMsgpack(c echo.Context) error {
	ctrl, err := h.sessions.existing(c)
	if err != nil {
		return err
	}

	transcript := ctrl.Transcript()
	data, err := msgpack.Marshal(map[string]interface{}{
		"messages": transcript,
		"total":    len(transcript),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}
