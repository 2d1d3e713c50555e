package handler

import (
	"questrank/internal/usecase"
	"questrank/pkg/errors"
	"questrank/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

type ProgressionHandler struct {
	progressionUseCase *usecase.ProgressionUseCase
}

func NewProgressionHandler(progressionUseCase *usecase.ProgressionUseCase) *ProgressionHandler {
	return &ProgressionHandler{
		progressionUseCase: progressionUseCase,
	}
}

func (h *ProgressionHandler) GetProgression(c echo.Context) error {
	userID := c.Get("uid").(string)

	// First contact creates the level-1 ledger.
	if err := h.progressionUseCase.EnsureLedger(c.Request().Context(), userID); err != nil {
		return response.Error(c, err)
	}

	view, err := h.progressionUseCase.GetProgression(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, view)
}

func (h *ProgressionHandler) GetLevels(c echo.Context) error {
	return response.Success(c, map[string]interface{}{
		"levels": h.progressionUseCase.Levels(),
	})
}

type applyExperienceRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required"`
}

func (h *ProgressionHandler) ApplyExperience(c echo.Context) error {
	var req applyExperienceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request format", err))
	}
	if err := validate.Struct(&req); err != nil {
		return response.Error(c, err)
	}

	// Grants default to the acting user; internal callers may target another.
	userID := req.UserID
	if userID == "" {
		userID = c.Get("uid").(string)
	}

	result, err := h.progressionUseCase.ApplyExperience(c.Request().Context(), userID, req.Amount, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
