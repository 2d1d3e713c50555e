package router

import (
	"time"

	"questrank/internal/adapter/api/handler"
	"questrank/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupProgressionRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter) {
	progressionHandler := handler.GetProgressionHandler()

	// Level table is reference data, no auth needed
	e.GET("/v1/progression/levels", progressionHandler.GetLevels)

	progressionGroup := e.Group("/v1/progression")
	progressionGroup.Use(authMiddleware.Authenticate)

	progressionGroup.GET("", progressionHandler.GetProgression)
	progressionGroup.POST("/experience", progressionHandler.ApplyExperience, rateLimiter.Limit(60, time.Minute))
}
