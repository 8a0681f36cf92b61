// routes.go - Route registration helpers
package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/krishimitra/frontend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	SessionMgr *session.Manager
	CookieName string
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Page   PageHandler
	UI     UIHandler
	Events EventsHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	sessions := newSessionResolver(deps.SessionMgr, deps.CookieName)
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.SessionMgr),
		Page:   NewPageHandler(sessions, deps.Version),
		UI:     NewUIHandler(sessions),
		Events: NewWebSocketHandler(sessions, deps.SessionMgr.Hub()),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Page
	e.GET("/", handlers.Page.HandlePage)

	// Page actions
	uiGroup := e.Group("/ui")
	uiGroup.POST("/section", handlers.UI.HandleShowSection)
	uiGroup.POST("/upload", handlers.UI.HandleUpload)
	uiGroup.POST("/drag", handlers.UI.HandleDrag)
	uiGroup.POST("/analyze", handlers.UI.HandleAnalyze)
	uiGroup.POST("/chat", handlers.UI.HandleChat)
	uiGroup.GET("/state", handlers.UI.HandleState)
	uiGroup.GET("/transcript", handlers.UI.HandleTranscript)
	uiGroup.GET("/transcript/msgpack", handlers.UI.HandleTranscriptMsgpack)
	uiGroup.GET("/events", handlers.Events.HandleEvents)
}

// RegisterUploadsProxy forwards /uploads/* to the backend, which serves
// the analysed images referenced by a diagnosis' image_url.
func RegisterUploadsProxy(e *echo.Echo, backendURL string) error {
	target, err := url.Parse(backendURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return fmt.Errorf("invalid backend URL: %q", backendURL)
	}

	balancer := middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: target}})
	e.Group("/uploads", middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: balancer,
	}))
	return nil
}

// MiddlewareOptions configures SetupMiddleware
type MiddlewareOptions struct {
	RequestLogging   bool
	Gzip             bool
	BodyLimit        string
	ShowErrorDetails bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler(opts.ShowErrorDetails)

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !opts.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				path == "/ui/events" ||
				strings.HasPrefix(path, "/static/")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if opts.Gzip {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/ui/events"
			},
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))
}
