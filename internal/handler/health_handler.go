package handler

import (
	"net/http"

	"inspection-service/prometheus"

	"github.com/labstack/echo/v4"
)

// HealthCheck returns service liveness
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"service": "inspection-service",
	})
}

// MetricsHandler exposes the prometheus registry
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
