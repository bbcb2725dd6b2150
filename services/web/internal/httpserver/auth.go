package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"userdesk/pkg/authclient"
	"userdesk/pkg/cookies"
	"userdesk/pkg/logging"
	"userdesk/services/web/internal/session"
)

const (
	accessCookie  = "token"
	refreshCookie = "refreshToken"
)

type AuthHTTP struct {
	Client        *authclient.Client
	SessionSecret []byte
	Secure        bool
}

// clearAll drops the session artifact and both token cookies.
func (h *AuthHTTP) clearAll(c echo.Context) {
	c.SetCookie(session.Clear())
	c.SetCookie(cookies.Delete(accessCookie, "/"))
	c.SetCookie(cookies.Delete(refreshCookie, "/"))
}

func (h *AuthHTTP) establish(c echo.Context, res *authclient.AuthResponse) error {
	sess, err := session.Create(h.SessionSecret, res.User.ID, res.User.Email, res.User.Role, h.Secure)
	if err != nil {
		return err
	}
	c.SetCookie(sess)
	c.SetCookie(cookies.Create(accessCookie, res.AccessToken, "/", time.Time{}, h.Secure))
	c.SetCookie(cookies.Create(refreshCookie, res.RefreshToken, "/", time.Time{}, h.Secure))
	return nil
}

func backendStatus(err error, fallback string) error {
	var statusErr *authclient.StatusError
	if errors.As(err, &statusErr) {
		return echo.NewHTTPError(statusErr.Status, statusErr.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "web_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please provide a valid email and password")
	}

	res, err := h.Client.Signin(ctx, req.Email, req.Password)
	if err != nil {
		l.Warn("login_failed", "error", err)
		return backendStatus(err, "login failed, please try again")
	}

	if err := h.establish(c, res); err != nil {
		l.Error("session_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed, please try again")
	}

	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{"user": res.User})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "web_register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please provide a name, email and password")
	}

	res, err := h.Client.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		l.Warn("register_failed", "error", err)
		return backendStatus(err, "registration failed, please try again")
	}

	if err := h.establish(c, res); err != nil {
		l.Error("session_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed, please try again")
	}

	l.Info("register_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{"user": res.User})
}

// Refresh rotates the backend token pair and re-issues the session artifact,
// which keeps the artifact's staleness bounded by the access-token lifetime.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "web_refresh")

	cookie, err := c.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Client.Refresh(ctx, cookie.Value)
	if err != nil {
		h.clearAll(c)
		l.Warn("refresh_failed", "error", err)
		return backendStatus(err, "refresh failed")
	}

	if err := h.establish(c, res); err != nil {
		l.Error("session_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"user": res.User})
}

// Logout notifies the backend best-effort; the cookies are cleared either way.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if cookie, err := c.Cookie(accessCookie); err == nil && cookie.Value != "" {
		if err := h.Client.SignOut(ctx, cookie.Value); err != nil {
			logging.FromContext(ctx).Warn("backend_signout_failed", "error", err)
		}
	}

	h.clearAll(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// GoogleCallback lands here after the backend's provider callback set the
// token cookies and redirected with a success flag. The backend's /users/me
// supplies the identity for the session artifact.
func (h *AuthHTTP) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "web_google_callback")

	if c.QueryParam("success") != "true" {
		return c.Redirect(http.StatusFound, "/login")
	}

	cookie, err := c.Cookie(accessCookie)
	if err != nil || cookie.Value == "" {
		return c.Redirect(http.StatusFound, "/login")
	}

	user, err := h.Client.Me(ctx, cookie.Value)
	if err != nil {
		l.Warn("google_callback_failed", "error", err)
		h.clearAll(c)
		return c.Redirect(http.StatusFound, "/login")
	}

	sess, err := session.Create(h.SessionSecret, user.ID, user.Email, user.Role, h.Secure)
	if err != nil {
		l.Error("session_create_failed", "error", err)
		return c.Redirect(http.StatusFound, "/login")
	}
	c.SetCookie(sess)

	if user.Role == "ADMIN" {
		return c.Redirect(http.StatusFound, "/admin")
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}
