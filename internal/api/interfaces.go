// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// PageHandler renders the full page
type PageHandler interface {
	HandlePage(c echo.Context) error
}

// UIHandler handles the actions a page can trigger
type UIHandler interface {
	HandleShowSection(c echo.Context) error
	HandleUpload(c echo.Context) error
	HandleDrag(c echo.Context) error
	HandleAnalyze(c echo.Context) error
	HandleChat(c echo.Context) error
	HandleState(c echo.Context) error
	HandleTranscript(c echo.Context) error
	HandleTranscriptMsgpack(c echo.Context) error
}

// EventsHandler streams controller events
type EventsHandler interface {
	HandleEvents(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
