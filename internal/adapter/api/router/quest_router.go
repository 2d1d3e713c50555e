package router

import (
	"time"

	"questrank/internal/adapter/api/handler"
	"questrank/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupQuestRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter) {
	questHandler := handler.GetQuestHandler()

	questGroup := e.Group("/v1/quests")
	questGroup.Use(authMiddleware.Authenticate)

	questGroup.GET("", questHandler.ListQuests)                                                          // GET /v1/quests?type=daily
	questGroup.POST("/:questId/start", questHandler.StartQuest, rateLimiter.Limit(30, time.Minute))      // POST /v1/quests/:questId/start
	questGroup.POST("/:questId/progress", questHandler.RecordProgress, rateLimiter.Limit(120, time.Minute)) // POST /v1/quests/:questId/progress
	questGroup.POST("/:questId/abandon", questHandler.AbandonQuest, rateLimiter.Limit(30, time.Minute))  // POST /v1/quests/:questId/abandon
}
