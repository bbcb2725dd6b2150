package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userdesk/services/api/internal/models"
	"userdesk/services/api/internal/repo"
	"userdesk/services/api/internal/service"
	"userdesk/services/api/internal/transport"
)

func initTestServer(t *testing.T) (*echo.Echo, *service.AuthService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, db.AutoMigrate(&models.User{}), "failed to migrate tables")

	users := &repo.UserRepo{DB: db}
	auth := &service.AuthService{
		Repo:          users,
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}

	e := echo.New()
	Register(e, &Deps{
		Auth:  auth,
		Users: &service.UserService{Repo: users},
	})
	return e, auth
}

func doJSON(e *echo.Echo, method, path string, body any, decorate func(r *http.Request)) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) transport.AuthResponse {
	t.Helper()

	var resp transport.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	return resp
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	// last one wins when a handler sets the same cookie twice
	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			found = ck
		}
	}
	return found
}

func signupPayload(email string) transport.RegisterRequest {
	return transport.RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "password",
	}
}

func TestSignupEndpoint(t *testing.T) {
	e, _ := initTestServer(t)

	rec := doJSON(e, http.MethodPost, "/auth/signup", signupPayload("alice@example.com"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeAuth(t, rec)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.NotZero(t, resp.User.ID)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	access := cookieByName(rec, "token")
	require.NotNil(t, access)
	assert.Equal(t, resp.AccessToken, access.Value)
	assert.True(t, access.HttpOnly)

	refresh := cookieByName(rec, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, resp.RefreshToken, refresh.Value)

	// duplicate email
	rec = doJSON(e, http.MethodPost, "/auth/signup", signupPayload("alice@example.com"), nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// validation failure
	rec = doJSON(e, http.MethodPost, "/auth/signup", transport.RegisterRequest{
		Name:     "X",
		Email:    "bad",
		Password: "1",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSigninEndpoint(t *testing.T) {
	e, _ := initTestServer(t)

	first := decodeAuth(t, doJSON(e, http.MethodPost, "/auth/signup", signupPayload("alice@example.com"), nil))

	rec := doJSON(e, http.MethodPost, "/auth/signin", transport.LoginRequest{
		Email:    "alice@example.com",
		Password: "password",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeAuth(t, rec)
	assert.NotEqual(t, first.RefreshToken, resp.RefreshToken)

	rec = doJSON(e, http.MethodPost, "/auth/signin", transport.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	e, _ := initTestServer(t)

	first := decodeAuth(t, doJSON(e, http.MethodPost, "/auth/signup", signupPayload("alice@example.com"), nil))

	withRefresh := func(token string) func(r *http.Request) {
		return func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "refreshToken", Value: token})
		}
	}

	rec := doJSON(e, http.MethodPost, "/auth/refresh", nil, withRefresh(first.RefreshToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := decodeAuth(t, rec)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	// the spent token is refused even though its signature still verifies
	rec = doJSON(e, http.MethodPost, "/auth/refresh", nil, withRefresh(first.RefreshToken))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/refresh", nil, withRefresh(rotated.RefreshToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/refresh", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignOutEndpoint(t *testing.T) {
	e, _ := initTestServer(t)

	sess := decodeAuth(t, doJSON(e, http.MethodPost, "/auth/signup", signupPayload("alice@example.com"), nil))

	rec := doJSON(e, http.MethodPost, "/auth/signout", nil, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+sess.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	access := cookieByName(rec, "token")
	require.NotNil(t, access)
	assert.Empty(t, access.Value)
	assert.Less(t, access.MaxAge, 0)

	// revoked refresh token no longer rotates
	rec = doJSON(e, http.MethodPost, "/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: sess.RefreshToken})
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/signout", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	e, _ := initTestServer(t)

	sess := decodeAuth(t, doJSON(e, http.MethodPost, "/auth/signup", signupPayload("alice@example.com"), nil))

	rec := doJSON(e, http.MethodGet, "/users/me", nil, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+sess.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me transport.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, sess.User.ID, me.ID)
	assert.Equal(t, "alice@example.com", me.Email)

	rec = doJSON(e, http.MethodGet, "/users/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func adminSession(t *testing.T, e *echo.Echo, auth *service.AuthService) transport.AuthResponse {
	t.Helper()

	sess := decodeAuth(t, doJSON(e, http.MethodPost, "/auth/signup", signupPayload("admin@example.com"), nil))

	// promote directly; role changes re-enter through a fresh signin
	user, err := auth.Repo.ByID(t.Context(), sess.User.ID)
	require.NoError(t, err)
	user.Role = models.RoleAdmin
	require.NoError(t, auth.Repo.Update(t.Context(), user))

	rec := doJSON(e, http.MethodPost, "/auth/signin", transport.LoginRequest{
		Email:    "admin@example.com",
		Password: "password",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeAuth(t, rec)
}

func TestAdminEndpoints(t *testing.T) {
	e, auth := initTestServer(t)

	admin := adminSession(t, e, auth)
	asAdmin := func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+admin.AccessToken)
	}

	// plain users are locked out
	plain := decodeAuth(t, doJSON(e, http.MethodPost, "/auth/signup", signupPayload("plain@example.com"), nil))
	rec := doJSON(e, http.MethodGet, "/admin/users", nil, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+plain.AccessToken)
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodGet, "/admin/users", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listed []transport.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)

	rec = doJSON(e, http.MethodPost, "/admin/users", transport.RegisterRequest{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "password",
		Role:     models.RoleAdmin,
	}, asAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created transport.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.RoleAdmin, created.Role)

	rec = doJSON(e, http.MethodPatch, fmt.Sprintf("/admin/users/%d", created.ID), map[string]string{
		"name": "Robert",
	}, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated transport.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Robert", updated.Name)

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/admin/users/%d", created.ID), nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/admin/users/%d", created.ID), nil, asAdmin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCannotTouchOwnAccount(t *testing.T) {
	e, auth := initTestServer(t)

	admin := adminSession(t, e, auth)
	asAdmin := func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+admin.AccessToken)
	}

	rec := doJSON(e, http.MethodDelete, fmt.Sprintf("/admin/users/%d", admin.User.ID), nil, asAdmin)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPatch, fmt.Sprintf("/admin/users/%d", admin.User.ID), map[string]string{
		"role": models.RoleUser,
	}, asAdmin)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// renaming itself stays allowed
	rec = doJSON(e, http.MethodPatch, fmt.Sprintf("/admin/users/%d", admin.User.ID), map[string]string{
		"name": "Renamed Admin",
	}, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
