package api

import (
	"github.com/labstack/echo/v4"
)

// Every endpoint answers with the same envelope so clients only ever
// branch on the HTTP status and the success flag.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func OK(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Envelope{Success: true, Data: data})
}

func Err(c echo.Context, code int, msg string) error {
	return c.JSON(code, Envelope{Success: false, Error: msg})
}
