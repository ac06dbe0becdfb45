package handler

import (
	"jewelry-service/internal/apperr"

	"github.com/labstack/echo/v4"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: false, Message: message})
}

// failErr translates a data-layer error into the envelope. Only the
// taxonomy's caller-safe message crosses the boundary.
func failErr(c echo.Context, err error) error {
	return fail(c, apperr.StatusOf(err), apperr.Message(err))
}
