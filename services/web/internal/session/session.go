// Package session maintains the web tier's own signed session cookie. It is
// deliberately independent of the backend's token pair: the guard can route
// without a network round trip, at the cost of a staleness window bounded by
// the access-token lifetime (every token refresh re-issues the session).
package session

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"userdesk/pkg/cookies"
)

const (
	CookieName = "session"
	MaxAge     = 24 * time.Hour
)

type Session struct {
	UserID string
	Email  string
	Role   string
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func Create(secret []byte, userID uint, email, role string, secure bool) (*http.Cookie, error) {
	exp := time.Now().UTC().Add(MaxAge)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}).SignedString(secret)
	if err != nil {
		return nil, err
	}
	return cookies.Create(CookieName, token, "/", exp, secure), nil
}

// Read returns nil on any failure; an unreadable session is simply an
// unauthenticated request to the guard.
func Read(r *http.Request, secret []byte) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	var c claims
	tkn, err := jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil
	}

	return &Session{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   c.Role,
	}
}

func Clear() *http.Cookie {
	return cookies.Delete(CookieName, "/")
}
