package httpserver

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"userdesk/pkg/logging"
	"userdesk/services/api/internal/events"
	mw "userdesk/services/api/internal/middleware"
	"userdesk/services/api/internal/search"
	"userdesk/services/api/internal/service"
	"userdesk/services/api/internal/transport"
)

type UsersHTTP struct {
	Svc      *service.UserService
	Producer *events.Producer
	ES       *elasticsearch.Client
}

func actorFrom(c echo.Context) service.Actor {
	id, _ := c.Get(mw.CtxUserID).(uint)
	role, _ := c.Get(mw.CtxRole).(string)
	return service.Actor{ID: id, Role: role}
}

func (h *UsersHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	id, _ := c.Get(mw.CtxUserID).(uint)

	user, err := h.Svc.Get(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.FromUser(*user))
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_list")

	if q := c.QueryParam("q"); q != "" && h.ES != nil {
		users, err := search.SearchUsers(ctx, h.ES, q, 0, 50)
		if err != nil {
			l.Warn("user_search_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
		}
		return c.JSON(http.StatusOK, users)
	}

	users, err := h.Svc.List(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.FromUsers(users))
}

func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_create")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Create(ctx, actorFrom(c), req)
	if err != nil {
		return httpError(err)
	}

	pub := transport.FromUser(*user)
	h.index(c, pub)
	h.publishUserEvent(c, "user_created", user.ID)
	l.Info("user_created", "user_id", user.ID)

	return c.JSON(http.StatusCreated, pub)
}

func (h *UsersHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_update")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Update(ctx, actorFrom(c), id, req)
	if err != nil {
		return httpError(err)
	}

	pub := transport.FromUser(*user)
	h.index(c, pub)
	h.publishUserEvent(c, "user_updated", user.ID)
	l.Info("user_updated", "user_id", user.ID)

	return c.JSON(http.StatusOK, pub)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, actorFrom(c), id); err != nil {
		return httpError(err)
	}

	if err := search.DeleteUser(ctx, h.ES, id); err != nil {
		l.Warn("user_index_delete_failed", "user_id", id, "error", err)
	}
	h.publishUserEvent(c, "user_deleted", id)
	l.Info("user_deleted", "user_id", id)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return uint(id), nil
}

func (h *UsersHTTP) index(c echo.Context, u transport.PublicUser) {
	ctx := c.Request().Context()
	if err := search.IndexUser(ctx, h.ES, u); err != nil {
		logging.FromContext(ctx).Warn("user_index_failed", "user_id", u.ID, "error", err)
	}
}

func (h *UsersHTTP) publishUserEvent(c echo.Context, eventType string, userID uint) {
	ctx := c.Request().Context()
	event := map[string]any{
		"type":     eventType,
		"user_id":  userID,
		"actor_id": actorFrom(c).ID,
	}
	if err := h.Producer.Publish(ctx, strconv.FormatUint(uint64(userID), 10), event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", eventType, "error", err)
	}
}
