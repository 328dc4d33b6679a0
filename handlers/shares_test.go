package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfort-xyz/recoverykit/auth"
	"github.com/openfort-xyz/recoverykit/codec"
	"github.com/openfort-xyz/recoverykit/storage"
)

// authedContext builds an echo context carrying parsed claims the way
// auth.JWTMiddleware leaves them.
func authedContext(t *testing.T, method, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/share", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if userID != "" {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.SessionClaims{UserID: userID})
		c.Set("user", token)
	}
	return c, rec
}

func TestUploadAndDownloadShare(t *testing.T) {
	setupTest(t)
	storage.Provider = storage.NewMemoryStore()

	share := []byte("sealed share blob")
	body := `{"share":"` + codec.EncodeBase64URL(share) + `"}`

	c, rec := authedContext(t, http.MethodPut, body, "user-1")
	require.NoError(t, UploadShare(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, rec = authedContext(t, http.MethodGet, "", "user-1")
	require.NoError(t, DownloadShare(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, codec.EncodeBase64URL(share), data["share"])
}

func TestUploadShareRequiresAuth(t *testing.T) {
	setupTest(t)
	storage.Provider = storage.NewMemoryStore()

	c, rec := authedContext(t, http.MethodPut, `{"share":"AQID"}`, "")
	require.NoError(t, UploadShare(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadShareRejectsBadEncoding(t *testing.T) {
	setupTest(t)
	storage.Provider = storage.NewMemoryStore()

	c, rec := authedContext(t, http.MethodPut, `{"share":"not+valid/base64url"}`, "user-1")
	require.NoError(t, UploadShare(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadShareMissing(t *testing.T) {
	setupTest(t)
	storage.Provider = storage.NewMemoryStore()

	c, rec := authedContext(t, http.MethodGet, "", "user-1")
	require.NoError(t, DownloadShare(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteShare(t *testing.T) {
	setupTest(t)
	store := storage.NewMemoryStore()
	storage.Provider = store

	require.NoError(t, store.PutShare(t.Context(), "user-1", []byte{1}))

	c, rec := authedContext(t, http.MethodDelete, "", "user-1")
	require.NoError(t, DeleteShare(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := store.GetShare(t.Context(), "user-1")
	assert.ErrorIs(t, err, storage.ErrShareNotFound)
}

func TestSharesAreScopedPerUser(t *testing.T) {
	setupTest(t)
	storage.Provider = storage.NewMemoryStore()

	body := `{"share":"` + codec.EncodeBase64URL([]byte("alice's share")) + `"}`
	c, _ := authedContext(t, http.MethodPut, body, "alice")
	require.NoError(t, UploadShare(c))

	c, rec := authedContext(t, http.MethodGet, "", "bob")
	require.NoError(t, DownloadShare(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTOTPStatusUnenrolled(t *testing.T) {
	mock := setupTest(t)
	mock.ExpectQuery("SELECT id, email, display_name").
		WithArgs("user-1").
		WillReturnRows(userRows().AddRow("user-1", "alice@example.com", "Alice", nil, false, time.Now()))

	c, rec := authedContext(t, http.MethodGet, "", "user-1")
	require.NoError(t, TOTPStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["enabled"])
}
