package httpserver

import (
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"userdesk/services/api/internal/events"
	mw "userdesk/services/api/internal/middleware"
	"userdesk/services/api/internal/models"
	"userdesk/services/api/internal/oauth"
	"userdesk/services/api/internal/service"
)

type Deps struct {
	Auth  *service.AuthService
	Users *service.UserService

	Google   *oauth.Google
	Producer *events.Producer
	ES       *elasticsearch.Client
	Redis    *redis.Client

	AppURL string
	Secure bool

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authHandler := &AuthHTTP{Svc: d.Auth, Producer: d.Producer, Secure: d.Secure}
	usersHandler := &UsersHTTP{Svc: d.Users, Producer: d.Producer, ES: d.ES}

	limited := mw.RateLimit(d.Redis, d.LoginRateLimit, d.LoginRateWindow)

	e.POST("/auth/signup", authHandler.Signup, limited)
	e.POST("/auth/register", authHandler.Signup, limited)
	e.POST("/auth/signin", authHandler.Signin, limited)
	e.POST("/auth/login", authHandler.Signin, limited)

	e.POST("/auth/refresh", authHandler.Refresh, mw.RequireRefresh(d.Auth.RefreshSecret))

	if d.Google != nil {
		googleHandler := &GoogleHTTP{
			Svc:    d.Auth,
			Google: d.Google,
			Auth:   authHandler,
			AppURL: d.AppURL,
			Secure: d.Secure,
		}
		e.GET("/auth/google/login", googleHandler.Login)
		e.GET("/auth/google/callback", googleHandler.Callback)
	}

	authed := e.Group("", mw.RequireAuth(d.Auth.AccessSecret))
	authed.POST("/auth/signout", authHandler.SignOut)
	authed.POST("/auth/logout", authHandler.SignOut)
	authed.GET("/users/me", usersHandler.Me)

	admin := e.Group("", mw.RequireAuth(d.Auth.AccessSecret), mw.RequireRole(models.RoleAdmin))
	admin.GET("/users", usersHandler.List)
	admin.GET("/admin/users", usersHandler.List)
	admin.POST("/admin/users", usersHandler.Create)
	admin.PATCH("/admin/users/:id", usersHandler.Update)
	admin.DELETE("/admin/users/:id", usersHandler.Delete)
}
