package router

import (
	"questrank/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter) {
	SetupProgressionRouter(e, authMiddleware, rateLimiter)
	SetupQuestRouter(e, authMiddleware, rateLimiter)
	SetupWebSocketRouter(e)
	SetupHealthRouter(e)
}
