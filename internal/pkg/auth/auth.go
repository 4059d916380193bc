// Package auth verifies bearer tokens and resolves the request's user
// identity. Token issuance belongs to the managed auth backend, only
// verification happens here.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey    = "auth.userID"
	firstNameKey = "auth.firstName"
)

// Claims carries the user identity inside the token
type Claims struct {
	FirstName string `json:"given_name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("no auth secret")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Middleware returns an echo middleware that rejects requests without a
// valid bearer token and stores the user identity in the request context
func (v *Verifier) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := v.parse(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			c.Set(userIDKey, claims.Subject)
			c.Set(firstNameKey, claims.FirstName)
			return next(c)
		}
	}
}

func (v *Verifier) parse(header string) (*Claims, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, fmt.Errorf("no bearer token")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("can't parse token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// UserID returns the authenticated user ID stored by Middleware
func UserID(c echo.Context) string {
	res, _ := c.Get(userIDKey).(string)
	return res
}

// FirstName returns the optional user first name stored by Middleware
func FirstName(c echo.Context) string {
	res, _ := c.Get(firstNameKey).(string)
	return res
}
