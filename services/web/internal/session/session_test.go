package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-session-secret")

func requestWithCookie(ck *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(ck)
	return req
}

func TestCreateRead(t *testing.T) {
	t.Parallel()

	ck, err := Create(testSecret, 42, "alice@example.com", "ADMIN", false)
	require.NoError(t, err)
	assert.Equal(t, CookieName, ck.Name)
	assert.True(t, ck.HttpOnly)

	sess := Read(requestWithCookie(ck), testSecret)
	require.NotNil(t, sess)
	assert.Equal(t, "42", sess.UserID)
	assert.Equal(t, "alice@example.com", sess.Email)
	assert.Equal(t, "ADMIN", sess.Role)
}

func TestRead_Failures(t *testing.T) {
	t.Parallel()

	ck, err := Create(testSecret, 1, "a@x.com", "USER", false)
	require.NoError(t, err)

	// wrong signing secret
	assert.Nil(t, Read(requestWithCookie(ck), []byte("other-secret")))

	// no cookie at all
	assert.Nil(t, Read(httptest.NewRequest(http.MethodGet, "/", nil), testSecret))

	// mangled value
	bad := *ck
	bad.Value = "not-a-token"
	assert.Nil(t, Read(requestWithCookie(&bad), testSecret))
}

func TestClear(t *testing.T) {
	t.Parallel()

	ck := Clear()
	assert.Equal(t, CookieName, ck.Name)
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0)
}
