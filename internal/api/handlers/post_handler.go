package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type PostHandler struct {
	hub service.HubManager
}

func NewPostHandler(hub service.HubManager) *PostHandler {
	return &PostHandler{hub: hub}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PostCreation
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.hub.SchedulePost(c.Context(), req.Post(), userID)
	if err != nil {
		slog.Warn("schedule post failed", "user_id", userID, "error", err)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(transfer.PostCreated{
		PostID:      post.ID,
		Status:      post.Status,
		ScheduledAt: post.ScheduledAt,
	})
}

// owned loads the post status and hides posts of other users behind a 404.
func (h *PostHandler) owned(c *fiber.Ctx) (*service.PostStatusView, error) {
	view, err := h.hub.GetPostStatus(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if view.UserID != GetUserID(c) {
		return nil, service.ErrPostNotFound
	}
	return view, nil
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	view, err := h.owned(c)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.hub.CancelPost(c.Context(), view.PostID); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post cancelled",
	})
}

func (h *PostHandler) GetPostStatus(c *fiber.Ctx) error {
	view, err := h.owned(c)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}
