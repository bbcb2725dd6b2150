package guard

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"userdesk/services/web/internal/session"
)

const legacyCookie = "token"

// Middleware is the routing guard: it reads the session artifact (falling
// back to the access-token cookie as a weaker authenticated signal) and
// redirects before any protected page renders.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			isAuthPage := path == "/login" || path == "/register"
			isDashboard := strings.HasPrefix(path, "/dashboard")
			isAdmin := strings.HasPrefix(path, "/admin")

			if !isAuthPage && !isDashboard && !isAdmin {
				return next(c)
			}

			sess := session.Read(c.Request(), secret)
			legacy, _ := c.Cookie(legacyCookie)
			authenticated := sess != nil || (legacy != nil && legacy.Value != "")

			role := ""
			if sess != nil {
				role = sess.Role
			}

			if !authenticated && (isDashboard || isAdmin) {
				return c.Redirect(http.StatusFound, "/login")
			}

			if authenticated && isAuthPage {
				if role == "ADMIN" {
					return c.Redirect(http.StatusFound, "/admin")
				}
				return c.Redirect(http.StatusFound, "/dashboard")
			}

			if authenticated && isAdmin && role != "ADMIN" {
				return c.Redirect(http.StatusFound, "/dashboard")
			}

			return next(c)
		}
	}
}
