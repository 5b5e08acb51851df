package stats

import (
	"github.com/TheChilliPL/docker-io-reporter/internal/common"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	statsService *Service
}

func NewHandler(statsService *Service) *Handler {
	return &Handler{
		statsService: statsService,
	}
}

// Metrics runs a fresh collection for every request.
func (h *Handler) Metrics(c echo.Context) error {
	buf, err := h.statsService.Collect(c.Request().Context())
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}

	return common.SendMetrics(c, buf.Bytes())
}
