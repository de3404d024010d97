package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := c.Locals("user_id").(int64)
	return userID
}

// errorStatus maps service errors to HTTP statuses. Anything unknown is a
// 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrActionNotFound),
		errors.Is(err, service.ErrCredentialNotConnected):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidPost),
		errors.Is(err, service.ErrUnknownPlatform),
		errors.Is(err, service.ErrIncompleteCredentials):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrStatusConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrNoConnectedPlatforms),
		errors.Is(err, service.ErrCredentialsRejected),
		errors.Is(err, service.ErrUnknownActionType):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
