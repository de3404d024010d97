package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/service"
)

type CredentialHandler struct {
	s service.CredentialService
}

func NewCredentialHandler(s service.CredentialService) *CredentialHandler {
	return &CredentialHandler{s: s}
}

func (h *CredentialHandler) Connect(c *fiber.Ctx) error {
	var creds models.Credentials
	if err := c.BodyParser(&creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	cred, err := h.s.Connect(c.Context(), GetUserID(c), models.Platform(c.Params("platform")), creds)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cred)
}

func (h *CredentialHandler) List(c *fiber.Ctx) error {
	creds, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if creds == nil {
		creds = []*models.PlatformCredential{}
	}
	return c.Status(fiber.StatusOK).JSON(creds)
}

func (h *CredentialHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.s.Disconnect(c.Context(), GetUserID(c), models.Platform(c.Params("platform"))); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
