package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openfort-xyz/recoverykit/auth"
	"github.com/openfort-xyz/recoverykit/config"
	"github.com/openfort-xyz/recoverykit/database"
	"github.com/openfort-xyz/recoverykit/logging"
	"github.com/openfort-xyz/recoverykit/models"
	"github.com/openfort-xyz/recoverykit/shield"
)

// CreateEncryptionSession mints a short-lived encryption session token. The
// request body matches what recovery.Resolver sends: both fields are
// optional, but when the named user has a verified TOTP enrollment a valid
// code is required.
func CreateEncryptionSession(c echo.Context) error {
	var request struct {
		OTPCode string `json:"otp_code"`
		UserID  string `json:"user_id"`
	}
	if err := c.Bind(&request); err != nil {
		return JSONError(c, http.StatusBadRequest, "Invalid request body")
	}

	cfg := config.GetConfig()
	master := []byte(cfg.Security.MasterSecret)

	if request.UserID != "" {
		user, err := models.GetUserByID(database.DB, request.UserID)
		if err != nil {
			return JSONError(c, http.StatusNotFound, "User not found")
		}

		if user.TOTPEnabled {
			if request.OTPCode == "" {
				return JSONError(c, http.StatusUnauthorized, "OTP code required")
			}
			valid, err := auth.VerifyTOTPCode(master, user, request.OTPCode)
			if err != nil {
				logging.ErrorLogger.Printf("TOTP verification failed for user %s: %v", user.ID, err)
				return JSONError(c, http.StatusInternalServerError, "Failed to verify OTP code")
			}
			if !valid {
				return JSONError(c, http.StatusUnauthorized, "Invalid OTP code")
			}
		}
	}

	signingKey, err := shield.DeriveServiceKey(master, shield.SessionTokenContext)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to derive session signing key: %v", err)
		return JSONError(c, http.StatusInternalServerError, "Failed to create session")
	}

	ttl := time.Duration(cfg.Security.SessionTTLMinutes) * time.Minute
	session, err := auth.GenerateSessionToken(signingKey, request.UserID, ttl)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to mint session token: %v", err)
		return JSONError(c, http.StatusInternalServerError, "Failed to create session")
	}

	// Flat shape consumed by recovery.Resolver, not the APIResponse envelope.
	return c.JSON(http.StatusOK, map[string]string{
		"session": session,
	})
}
