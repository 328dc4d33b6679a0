package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openfort-xyz/recoverykit/auth"
	"github.com/openfort-xyz/recoverykit/config"
	"github.com/openfort-xyz/recoverykit/shield"
)

// Echo is the server instance routes are registered on, set by main before
// RegisterRoutes runs.
var Echo *echo.Echo

// RegisterRoutes initializes all routes for the application
func RegisterRoutes() error {
	cfg := config.GetConfig()
	signingKey, err := shield.DeriveServiceKey([]byte(cfg.Security.MasterSecret), shield.SessionTokenContext)
	if err != nil {
		return err
	}

	Echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Account bootstrap (public)
	Echo.POST("/api/users", RegisterUser)

	// Encryption sessions, consumed by the recovery resolver (public; OTP
	// enforcement happens inside the handler for enrolled users)
	Echo.POST("/api/encryption-session", CreateEncryptionSession)

	// Everything below requires a bearer token
	protected := Echo.Group("/api", auth.JWTMiddleware(signingKey))

	// TOTP enrollment
	protected.POST("/totp/setup", TOTPSetup)
	protected.POST("/totp/verify", TOTPVerify)
	protected.GET("/totp/status", TOTPStatus)

	// Passkey registry
	protected.POST("/passkeys", RegisterPasskey)
	protected.GET("/passkeys", ListPasskeys)

	// Encrypted recovery shares
	protected.PUT("/share", UploadShare)
	protected.GET("/share", DownloadShare)
	protected.DELETE("/share", DeleteShare)

	return nil
}
