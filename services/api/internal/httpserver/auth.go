package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"userdesk/pkg/cookies"
	"userdesk/pkg/logging"
	"userdesk/services/api/internal/events"
	mw "userdesk/services/api/internal/middleware"
	"userdesk/services/api/internal/service"
	"userdesk/services/api/internal/transport"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Producer *events.Producer
	Secure   bool
}

func (h *AuthHTTP) setSessionCookies(c echo.Context, sess *service.Session) {
	c.SetCookie(cookies.Create(mw.AccessCookie, sess.AccessToken, "/", sess.AccessExp, h.Secure))
	c.SetCookie(cookies.Create(mw.RefreshCookie, sess.RefreshToken, "/", sess.RefreshExp, h.Secure))
}

func (h *AuthHTTP) clearSessionCookies(c echo.Context) {
	c.SetCookie(cookies.Delete(mw.AccessCookie, "/"))
	c.SetCookie(cookies.Delete(mw.RefreshCookie, "/"))
}

func (h *AuthHTTP) publish(c echo.Context, eventType string, userID uint) {
	ctx := c.Request().Context()
	event := map[string]any{
		"type":    eventType,
		"user_id": userID,
	}
	if err := h.Producer.Publish(ctx, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", eventType, "error", err)
	}
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return httpError(err)
	}

	h.setSessionCookies(c, sess)
	h.publish(c, "user_registered", sess.User.ID)
	l.Info("signup_successful", "user_id", sess.User.ID)

	return c.JSON(http.StatusCreated, transport.AuthResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         transport.FromUser(sess.User),
	})
}

func (h *AuthHTTP) Signin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.ValidateCredentials(ctx, req.Email, req.Password)
	if err != nil {
		l.Warn("signin_failed", "status", 401)
		return httpError(err)
	}

	sess, err := h.Svc.IssueSession(ctx, user)
	if err != nil {
		return httpError(err)
	}

	h.setSessionCookies(c, sess)
	h.publish(c, "user_signed_in", sess.User.ID)
	l.Info("signin_successful", "user_id", sess.User.ID)

	return c.JSON(http.StatusOK, transport.AuthResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         transport.FromUser(sess.User),
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	userID, _ := c.Get(mw.CtxUserID).(uint)
	presented, _ := c.Get(mw.CtxRefreshToken).(string)

	sess, err := h.Svc.Refresh(ctx, userID, presented)
	if err != nil {
		l.Warn("refresh_failed", "user_id", userID)
		return httpError(err)
	}

	h.setSessionCookies(c, sess)
	l.Info("refresh_successful", "user_id", userID)

	return c.JSON(http.StatusOK, transport.AuthResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         transport.FromUser(sess.User),
	})
}

func (h *AuthHTTP) SignOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signout")

	userID, _ := c.Get(mw.CtxUserID).(uint)
	if err := h.Svc.SignOut(ctx, userID); err != nil {
		l.Error("signout_failed", "user_id", userID, "error", err)
		h.clearSessionCookies(c)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.clearSessionCookies(c)
	l.Info("signout_successful", "user_id", userID)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
