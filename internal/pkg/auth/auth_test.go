package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToken(t *testing.T, secret, sub, name string, exp time.Duration) string {
	t.Helper()
	claims := &Claims{FirstName: name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp))}}
	res, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.Nil(t, err)
	return res
}

func testEcho(t *testing.T, v *Verifier) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/olia", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"user": UserID(c), "name": FirstName(c)})
	}, v.Middleware())
	return e
}

func TestNewVerifier_Fail(t *testing.T) {
	_, err := NewVerifier("")
	assert.NotNil(t, err)
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier("secret")
	require.Nil(t, err)
	e := testEcho(t, v)

	req := httptest.NewRequest(http.MethodGet, "/olia", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+newToken(t, "secret", "u-1", "Alex", time.Hour))
	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"user":"u-1"`)
	assert.Contains(t, resp.Body.String(), `"name":"Alex"`)
}

func TestMiddleware_401(t *testing.T) {
	v, err := NewVerifier("secret")
	require.Nil(t, err)
	e := testEcho(t, v)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "no bearer", header: "Basic olia"},
		{name: "garbage", header: "Bearer olia"},
		{name: "wrong key", header: "Bearer " + newToken(t, "other", "u-1", "", time.Hour)},
		{name: "expired", header: "Bearer " + newToken(t, "secret", "u-1", "", -time.Hour)},
		{name: "no subject", header: "Bearer " + newToken(t, "secret", "", "", time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/olia", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			resp := httptest.NewRecorder()
			e.ServeHTTP(resp, req)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
		})
	}
}
