// handlers_page.go - Full page rendering
package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/krishimitra/frontend/internal/models"
	"github.com/krishimitra/frontend/internal/render"
	"github.com/krishimitra/frontend/internal/ui"
	"github.com/labstack/echo/v4"
)

// PageHandlerImpl implements the PageHandler interface
type PageHandlerImpl struct {
	sessions sessionResolver
	version  string
}

// NewPageHandler creates a new page handler
func NewPageHandler(sessions sessionResolver, version string) PageHandler {
	return &PageHandlerImpl{sessions: sessions, version: version}
}

// HandlePage renders the page for the caller's session. A section query
// parameter switches the visible section first, as the menu links do.
func (h *PageHandlerImpl) HandlePage(c echo.Context) error {
	ctrl := h.sessions.controller(c)

	if section := c.QueryParam("section"); section != "" {
		if err := ctrl.ShowSection(models.Section(section)); err != nil {
			if errors.Is(err, ui.ErrUnknownSection) && !wantsJSON(c) {
				return c.Redirect(http.StatusSeeOther, "/")
			}
			return FromUIError(err)
		}
	}

	snap := ctrl.Snapshot()
	// an alert is shown once
	ctrl.ConsumeAlert()

	var buf bytes.Buffer
	if err := render.Page(&buf, render.PageData{Snapshot: snap, Version: h.version}); err != nil {
		return NewInternalError("failed to render page", err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
