package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"userdesk/pkg/authclient"
	"userdesk/services/web/internal/guard"
)

type Deps struct {
	Client        *authclient.Client
	BackendURL    string
	SessionSecret []byte
	Secure        bool
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.Use(echomw.Recover(), echomw.RequestID(), echomw.Secure())
	e.Use(guard.Middleware(d.SessionSecret))

	authHandler := &AuthHTTP{
		Client:        d.Client,
		SessionSecret: d.SessionSecret,
		Secure:        d.Secure,
	}

	e.POST("/api/login", authHandler.Login)
	e.POST("/api/register", authHandler.Register)
	e.POST("/api/refresh", authHandler.Refresh)
	e.POST("/api/logout", authHandler.Logout)
	e.GET("/auth/google/callback", authHandler.GoogleCallback)

	// The console pages talk to the backend through this proxy so everything
	// stays same-origin and the token cookies flow along.
	backendProxy, err := newProxy(d.BackendURL, "/api/backend")
	if err != nil {
		return err
	}
	e.Any("/api/backend/*", backendProxy)

	registerPages(e)
	return nil
}

// Placeholder pages: rendering is out of scope, the guard needs routes to
// protect.
func registerPages(e *echo.Echo) {
	page := func(title string) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.HTML(http.StatusOK, "<!doctype html><title>"+title+"</title><h1>"+title+"</h1>")
		}
	}

	e.GET("/", page("userdesk"))
	e.GET("/login", page("Sign in"))
	e.GET("/register", page("Create account"))
	e.GET("/dashboard", page("Dashboard"))
	e.GET("/admin", page("Admin"))
	e.GET("/admin/users", page("Users"))
}
