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

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func TestGenerateSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken(testSigningKey, "user-1", 10*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return testSigningKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*SessionClaims)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "recoverykit-session", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSessionTokensAreUnique(t *testing.T) {
	first, err := GenerateSessionToken(testSigningKey, "user-1", time.Minute)
	require.NoError(t, err)
	second, err := GenerateSessionToken(testSigningKey, "user-1", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestJWTMiddleware(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserIDFromToken(c))
	}

	token, err := GenerateSessionToken(testSigningKey, "user-7", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", authHeader: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "user-7"},
		{name: "missing token", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.authHeader != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.authHeader)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := JWTMiddleware(testSigningKey)(handler)(c)
			if tc.wantStatus == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, tc.wantBody, rec.Body.String())
				return
			}

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tc.wantStatus, httpErr.Code)
		})
	}
}

func TestJWTMiddlewareRejectsWrongKey(t *testing.T) {
	e := echo.New()
	otherKey := []byte("ffffffffffffffffffffffffffffffff")

	token, err := GenerateSessionToken(otherKey, "user-1", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = JWTMiddleware(testSigningKey)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestGetUserIDFromTokenWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, GetUserIDFromToken(c))
}
