package api

import (
	"net/http"
	"strings"

	"github.com/krishimitra/frontend/internal/session"
	"github.com/krishimitra/frontend/internal/ui"
	"github.com/labstack/echo/v4"
)

const defaultCookieName = "km_session"

// sessionResolver maps the session cookie onto a UI controller.
type sessionResolver struct {
	mgr        *session.Manager
	cookieName string
}

func newSessionResolver(mgr *session.Manager, cookieName string) sessionResolver {
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	return sessionResolver{mgr: mgr, cookieName: cookieName}
}

// controller returns the caller's controller, starting a session and
// setting the cookie when needed.
func (r sessionResolver) controller(c echo.Context) *ui.Controller {
	var id string
	if cookie, err := c.Cookie(r.cookieName); err == nil {
		id = cookie.Value
	}

	ctrl, started := r.mgr.GetOrStart(id)
	if started {
		c.SetCookie(&http.Cookie{
			Name:     r.cookieName,
			Value:    ctrl.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   c.IsTLS(),
		})
	}
	return ctrl
}

// existing returns the caller's controller without starting a new one.
func (r sessionResolver) existing(c echo.Context) (*ui.Controller, error) {
	cookie, err := c.Cookie(r.cookieName)
	if err != nil {
		return nil, NewNotFoundError("session", "")
	}
	ctrl, ok := r.mgr.GetSession(cookie.Value)
	if !ok {
		return nil, NewNotFoundError("session", cookie.Value)
	}
	return ctrl, nil
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// respond answers a form action: JSON clients get the state snapshot,
// browsers are redirected back to the page.
func respond(c echo.Context, ctrl *ui.Controller, target string) error {
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, ctrl.Snapshot())
	}
	return c.Redirect(http.StatusSeeOther, target)
}
