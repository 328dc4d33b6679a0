package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openfort-xyz/recoverykit/auth"
	"github.com/openfort-xyz/recoverykit/codec"
	"github.com/openfort-xyz/recoverykit/config"
	"github.com/openfort-xyz/recoverykit/database"
	"github.com/openfort-xyz/recoverykit/logging"
	"github.com/openfort-xyz/recoverykit/models"
	"github.com/openfort-xyz/recoverykit/shield"
)

// RegisterUser creates an account and returns a bearer token for the
// enrollment endpoints.
func RegisterUser(c echo.Context) error {
	var request struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := c.Bind(&request); err != nil {
		return JSONError(c, http.StatusBadRequest, "Invalid request body")
	}

	request.Email = strings.TrimSpace(strings.ToLower(request.Email))
	if request.Email == "" || !strings.Contains(request.Email, "@") {
		return JSONError(c, http.StatusBadRequest, "Valid email is required")
	}

	user, err := models.CreateUser(database.DB, request.Email, request.DisplayName)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to create user %s: %v", request.Email, err)
		return JSONError(c, http.StatusConflict, "Failed to create user")
	}

	cfg := config.GetConfig()
	signingKey, err := shield.DeriveServiceKey([]byte(cfg.Security.MasterSecret), shield.SessionTokenContext)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to derive signing key: %v", err)
		return JSONError(c, http.StatusInternalServerError, "Failed to create user")
	}

	token, err := auth.GenerateSessionToken(signingKey, user.ID, 24*time.Hour)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to mint token for user %s: %v", user.ID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to create user")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user_id": user.ID,
		"token":   token,
	})
}

// RegisterPasskey records a credential the client created through the passkey
// orchestrator, so later recovery flows can list it.
func RegisterPasskey(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	var request struct {
		CredentialID string `json:"credential_id"`
		DisplayName  string `json:"display_name"`
	}
	if err := c.Bind(&request); err != nil || request.CredentialID == "" {
		return JSONError(c, http.StatusBadRequest, "Credential id is required")
	}

	// Stored canonically so lookups never depend on the caller's alphabet.
	credentialID, err := codec.ReencodeCredentialID(request.CredentialID)
	if err != nil {
		return JSONError(c, http.StatusBadRequest, "Invalid credential id")
	}

	passkey := &models.RegisteredPasskey{
		CredentialID: credentialID,
		UserID:       userID,
		DisplayName:  request.DisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := models.SavePasskey(database.DB, passkey); err != nil {
		logging.ErrorLogger.Printf("Failed to save passkey for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to save passkey")
	}

	return JSONResponse(c, http.StatusCreated, "Passkey registered", nil)
}

// ListPasskeys returns the authenticated user's registered passkeys.
func ListPasskeys(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	passkeys, err := models.ListUserPasskeys(database.DB, userID)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to list passkeys for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to list passkeys")
	}

	list := make([]map[string]string, 0, len(passkeys))
	for _, pk := range passkeys {
		list = append(list, map[string]string{
			"credential_id": pk.CredentialID,
			"display_name":  pk.DisplayName,
			"created_at":    pk.CreatedAt.Format(time.RFC3339),
		})
	}

	return JSONResponse(c, http.StatusOK, "", map[string]interface{}{
		"passkeys": list,
	})
}
