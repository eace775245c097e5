package handler

import (
	"context"
	"net/http"
	"time"

	"foodcourt-service/pkg/database"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		logger.FromContext(c).Error("Database ping failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "unhealthy",
			"service":  "foodcourt-service",
			"database": "down",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "healthy",
		"service":  "foodcourt-service",
		"database": "up",
	})
}
