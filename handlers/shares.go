package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openfort-xyz/recoverykit/auth"
	"github.com/openfort-xyz/recoverykit/codec"
	"github.com/openfort-xyz/recoverykit/logging"
	"github.com/openfort-xyz/recoverykit/storage"
)

// UploadShare stores the authenticated user's encrypted recovery share. The
// blob is sealed client-side; the service only persists ciphertext.
func UploadShare(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	var request struct {
		Share string `json:"share"`
	}
	if err := c.Bind(&request); err != nil || request.Share == "" {
		return JSONError(c, http.StatusBadRequest, "Share is required")
	}

	share, err := codec.DecodeBase64URL(request.Share)
	if err != nil {
		return JSONError(c, http.StatusBadRequest, "Share must be base64url encoded")
	}

	if err := storage.Provider.PutShare(c.Request().Context(), userID, share); err != nil {
		logging.ErrorLogger.Printf("Failed to store share for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to store share")
	}

	return JSONResponse(c, http.StatusCreated, "Share stored", nil)
}

// DownloadShare returns the authenticated user's encrypted share blob.
func DownloadShare(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	share, err := storage.Provider.GetShare(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrShareNotFound) {
			return JSONError(c, http.StatusNotFound, "No share stored")
		}
		logging.ErrorLogger.Printf("Failed to fetch share for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to fetch share")
	}

	return JSONResponse(c, http.StatusOK, "", map[string]string{
		"share": codec.EncodeBase64URL(share),
	})
}

// DeleteShare removes the authenticated user's stored share.
func DeleteShare(c echo.Context) error {
	userID := auth.GetUserIDFromToken(c)
	if userID == "" {
		return JSONError(c, http.StatusUnauthorized, "Unauthorized")
	}

	if err := storage.Provider.DeleteShare(c.Request().Context(), userID); err != nil {
		logging.ErrorLogger.Printf("Failed to delete share for user %s: %v", userID, err)
		return JSONError(c, http.StatusInternalServerError, "Failed to delete share")
	}

	return JSONResponse(c, http.StatusOK, "Share deleted", nil)
}
