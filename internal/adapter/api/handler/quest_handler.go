package handler

import (
	"questrank/internal/usecase"
	"questrank/pkg/errors"
	"questrank/pkg/response"

	"github.com/labstack/echo/v4"
)

type QuestHandler struct {
	questUseCase *usecase.QuestUseCase
}

func NewQuestHandler(questUseCase *usecase.QuestUseCase) *QuestHandler {
	return &QuestHandler{
		questUseCase: questUseCase,
	}
}

func (h *QuestHandler) ListQuests(c echo.Context) error {
	userID := c.Get("uid").(string)
	filterType := c.QueryParam("type")

	quests, err := h.questUseCase.ListQuests(c.Request().Context(), userID, filterType)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, quests)
}

func (h *QuestHandler) StartQuest(c echo.Context) error {
	userID := c.Get("uid").(string)
	questID := c.Param("questId")

	if questID == "" {
		return response.Error(c, errors.BadRequest("Quest ID is required", nil))
	}

	instance, err := h.questUseCase.StartQuest(c.Request().Context(), userID, questID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, instance)
}

type recordProgressRequest struct {
	RequirementType string `json:"requirementType" validate:"required"`
	Amount          int64  `json:"amount"`
}

func (h *QuestHandler) RecordProgress(c echo.Context) error {
	userID := c.Get("uid").(string)
	questID := c.Param("questId")

	if questID == "" {
		return response.Error(c, errors.BadRequest("Quest ID is required", nil))
	}

	var req recordProgressRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request format", err))
	}
	if err := validate.Struct(&req); err != nil {
		return response.Error(c, err)
	}
	if req.Amount == 0 {
		req.Amount = 1
	}

	instance, isCompleted, err := h.questUseCase.RecordProgress(c.Request().Context(), userID, questID, req.RequirementType, req.Amount)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"instance":    instance,
		"isCompleted": isCompleted,
	})
}

func (h *QuestHandler) AbandonQuest(c echo.Context) error {
	userID := c.Get("uid").(string)
	questID := c.Param("questId")

	if questID == "" {
		return response.Error(c, errors.BadRequest("Quest ID is required", nil))
	}

	if err := h.questUseCase.AbandonQuest(c.Request().Context(), userID, questID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Quest abandoned",
	})
}
