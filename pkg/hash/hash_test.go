package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hashed, err := HashPassword("hunter2secret")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2secret", hashed)

	assert.True(t, CheckPassword(hashed, "hunter2secret"))
	assert.False(t, CheckPassword(hashed, "wrong-password"))
	assert.False(t, CheckPassword("", "hunter2secret"))
}

func TestTokenDigest(t *testing.T) {
	t.Parallel()

	a := TokenDigest("some.refresh.token")
	b := TokenDigest("some.refresh.token")
	c := TokenDigest("other.refresh.token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	assert.True(t, DigestEqual(a, b))
	assert.False(t, DigestEqual(a, c))
}
