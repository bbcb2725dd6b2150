package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-access-secret")
	exp := time.Now().Add(15 * time.Minute).UTC()

	token, err := SignAccess(secret, 42, "a@x.com", "ADMIN", "Alice", exp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := Parse(token, secret)
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "Alice", claims.Name)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestSignRefresh_UniqueJTI(t *testing.T) {
	t.Parallel()

	secret := []byte("test-refresh-secret")
	exp := time.Now().Add(24 * time.Hour).UTC()

	first, err := SignRefresh(secret, 1, "a@x.com", "USER", "Alice", exp)
	require.NoError(t, err)
	second, err := SignRefresh(secret, 1, "a@x.com", "USER", "Alice", exp)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	claims, err := Parse(first, secret)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	other := []byte("other-secret")

	expired, err := SignAccess(secret, 1, "a@x.com", "USER", "", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	valid, err := SignAccess(secret, 1, "a@x.com", "USER", "", time.Now().Add(time.Minute))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{name: "wrong secret", token: valid, secret: other},
		{name: "expired", token: expired, secret: secret},
		{name: "garbage", token: "not-a-token", secret: secret},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := Parse(tt.token, tt.secret)
			require.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
