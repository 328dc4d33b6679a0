package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// SessionClaims are carried by both user bearer tokens and the encryption
// sessions the service issues.
type SessionClaims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateSessionToken mints the opaque encryption-session token returned by
// the session endpoint. The token is a short-lived HS256 JWT over the
// service's derived session key; downstream consumers treat it as opaque.
func GenerateSessionToken(signingKey []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "recoverykit-session",
			Audience:  []string{"recoverykit-shield"},
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// JWTMiddleware guards the enrollment and share endpoints with bearer-token
// authentication over the same signing key.
func JWTMiddleware(signingKey []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(SessionClaims)
		},
		SigningKey: signingKey,
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Unauthorized")
		},
	})
}

// GetUserIDFromToken extracts the authenticated user id set by JWTMiddleware.
func GetUserIDFromToken(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}
