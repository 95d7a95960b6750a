package http

import (
	"github.com/labstack/echo/v4"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
)

func errorJSON(c echo.Context, code, message string) error {
	return c.JSON(apperrors.ToHTTPStatus(code), echo.Map{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}

// messageOf pulls the human-readable message out of an error, without leaking
// wrapped internals.
func messageOf(err error) string {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		return appErr.Message()
	}
	return "Internal Server Error"
}
