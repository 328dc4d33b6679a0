package handlers

import (
	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every session-service endpoint replies with.
// The one exception is the encryption-session endpoint, which returns a flat
// body because the recovery resolver parses that shape directly.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONResponse writes an enveloped response; Success tracks the status class.
func JSONResponse(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, APIResponse{
		Success: status >= 200 && status < 300,
		Message: message,
		Data:    data,
	})
}

// JSONError writes an enveloped failure with no data payload.
func JSONError(c echo.Context, status int, message string) error {
	return c.JSON(status, APIResponse{
		Success: false,
		Message: message,
	})
}
