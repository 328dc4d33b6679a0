package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openfort-xyz/recoverykit/auth"
	"github.com/openfort-xyz/recoverykit/config"
	"github.com/openfort-xyz/recoverykit/database"
	"github.com/openfort-xyz/recoverykit/logging"
	"github.com/openfort-xyz/recoverykit/models"
)

// TOTPSetup starts a TOTP enrollment for the authenticated user and returns
// the provisioning secret plus a QR code. The enrollment is inactive until
// the first code is verified.
func TOTPSetup(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	user, err := models.GetUserByID(database.DB, userID)
	if err != nil {
		return JSONError(c, http.StatusNotFound, "User not found")
	}

	master := []byte(config.GetConfig().Security.MasterSecret)
	setup, err := auth.GenerateTOTPSetup(database.DB, master, user)
	if err != nil {
		logging.ErrorLogger.Printf("TOTP setup failed for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to set up TOTP")
	}

	return JSONResponse(c, http.StatusOK, "TOTP setup created", setup)
}

// TOTPVerify confirms a pending enrollment with a first code and enables it.
func TOTPVerify(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	var request struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&request); err != nil || request.Code == "" {
		return JSONError(c, http.StatusBadRequest, "Code is required")
	}

	user, err := models.GetUserByID(database.DB, userID)
	if err != nil {
		return JSONError(c, http.StatusNotFound, "User not found")
	}

	master := []byte(config.GetConfig().Security.MasterSecret)
	valid, err := auth.VerifyTOTPCode(master, user, request.Code)
	if err != nil {
		logging.ErrorLogger.Printf("TOTP verification failed for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to verify code")
	}
	if !valid {
		return JSONError(c, http.StatusUnauthorized, "Invalid code")
	}

	if err := models.EnableTOTP(database.DB, userID); err != nil {
		logging.ErrorLogger.Printf("Failed to enable TOTP for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to enable TOTP")
	}

	return JSONResponse(c, http.StatusOK, "TOTP enabled", nil)
}

// TOTPStatus reports whether the authenticated user has TOTP enabled.
func TOTPStatus(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	user, err := models.GetUserByID(database.DB, userID)
	if err != nil {
		return JSONError(c, http.StatusNotFound, "User not found")
	}

	return JSONResponse(c, http.StatusOK, "", map[string]bool{
		"enabled": user.TOTPEnabled,
	})
}
