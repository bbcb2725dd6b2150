package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"userdesk/pkg/cookies"
	"userdesk/pkg/logging"
	"userdesk/services/api/internal/oauth"
	"userdesk/services/api/internal/service"
)

const stateCookie = "oauth_state"

type GoogleHTTP struct {
	Svc    *service.AuthService
	Google *oauth.Google
	Auth   *AuthHTTP
	AppURL string
	Secure bool
}

func (h *GoogleHTTP) Login(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(cookies.Create(stateCookie, state, "/auth/google", time.Now().Add(10*time.Minute), h.Secure))
	return c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

func (h *GoogleHTTP) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "google_callback")

	// The provider reports cancellation and its own failures via the error
	// query parameter.
	if errParam := c.QueryParam("error"); errParam != "" {
		l.Warn("google_login_failed", "status", 400, "reason", errParam)
		return echo.NewHTTPError(http.StatusBadRequest, "google authentication was cancelled or failed")
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing code or state")
	}

	saved, err := c.Cookie(stateCookie)
	if err != nil || saved.Value == "" || saved.Value != state {
		l.Warn("google_login_failed", "status", 400, "reason", "state mismatch")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid state")
	}
	c.SetCookie(cookies.Delete(stateCookie, "/auth/google"))

	token, err := h.Google.Exchange(ctx, code)
	if err != nil {
		l.Warn("google_login_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "failed to exchange provider token")
	}

	profile, err := h.Google.FetchProfile(ctx, token)
	if err != nil {
		l.Warn("google_login_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "failed to fetch provider profile")
	}

	sess, err := h.Svc.LoginWithGoogle(ctx, service.GoogleProfile{
		ID:    profile.ID,
		Email: profile.Email,
		Name:  profile.Name,
	})
	if err != nil {
		return httpError(err)
	}

	h.Auth.setSessionCookies(c, sess)
	h.Auth.publish(c, "user_signed_in", sess.User.ID)
	l.Info("google_login_successful", "user_id", sess.User.ID)

	return c.Redirect(http.StatusFound, h.AppURL+"/auth/google/callback?success=true")
}
