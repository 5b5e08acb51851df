package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const MetricsContentType = echo.MIMETextPlainCharsetUTF8

func SendMetrics(c echo.Context, body []byte) error {
	return c.Blob(http.StatusOK, MetricsContentType, body)
}

func SendError(c echo.Context, statusCode int, message string) error {
	return c.String(statusCode, message+"\n")
}

func SendInternalError(c echo.Context, message string) error {
	return SendError(c, http.StatusInternalServerError, message)
}
