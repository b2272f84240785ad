package api

import (
	"net/http"

	drepo "HedgeDesk/internal/domain/repository"
	xhttp "HedgeDesk/pkg/http"

	"github.com/labstack/echo/v4"
)

// HealthEchoHandler reports store liveness for the load balancer.
type HealthEchoHandler struct {
	prices drepo.PriceStore
}

func NewHealthEchoHandler(prices drepo.PriceStore) *HealthEchoHandler {
	return &HealthEchoHandler{prices: prices}
}

func (h *HealthEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
}

func (h *HealthEchoHandler) Healthz(c echo.Context) error {
	if err := h.prices.Health(c.Request().Context()); err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
