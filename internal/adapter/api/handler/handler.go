package handler

import (
	"questrank/internal/infrastructure/firebase"
	"questrank/internal/infrastructure/websocket"
	"questrank/internal/usecase"
)

var (
	progressionHandler *ProgressionHandler
	questHandler       *QuestHandler
	healthHandler      *HealthHandler
	webSocketHandler   *WebSocketHandler
)

func Setup(
	progressionUseCase *usecase.ProgressionUseCase,
	questUseCase *usecase.QuestUseCase,
	firebaseAuth *firebase.FirebaseAuthClient,
	wsManager *websocket.Manager,
) {
	progressionHandler = NewProgressionHandler(progressionUseCase)
	questHandler = NewQuestHandler(questUseCase)
	healthHandler = NewHealthHandler(firebaseAuth)
	webSocketHandler = NewWebSocketHandler(wsManager, firebaseAuth)
}

func GetProgressionHandler() *ProgressionHandler {
	return progressionHandler
}

func GetQuestHandler() *QuestHandler {
	return questHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}
