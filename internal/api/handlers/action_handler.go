package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
)

type ActionHandler struct {
	actions    repository.AutomatedActionRepository
	automation service.AutomationService
}

func NewActionHandler(actions repository.AutomatedActionRepository, automation service.AutomationService) *ActionHandler {
	return &ActionHandler{actions: actions, automation: automation}
}

func (h *ActionHandler) RunAction(c *fiber.Ctx) error {
	id := c.Params("id")

	action, err := h.actions.GetByID(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	if action == nil || action.UserID != GetUserID(c) {
		return errorResponse(c, service.ErrActionNotFound)
	}

	if err := h.automation.ExecuteActionManually(c.Context(), id); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Action executed",
	})
}
