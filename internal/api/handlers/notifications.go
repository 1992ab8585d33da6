package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rajankumarrkr/sukoon/internal/api/middleware"
	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/models"
	"github.com/rajankumarrkr/sukoon/internal/wire"
	"github.com/rajankumarrkr/sukoon/pkg/types"
)

// NotificationStore reads and updates a user's notifications.
// *models.Queries implements it.
type NotificationStore interface {
	ListNotificationsByRecipient(ctx context.Context, arg models.ListNotificationsParams) ([]models.NotificationWithSender, error)
	MarkNotificationsRead(ctx context.Context, arg models.MarkNotificationsReadParams) (int64, error)
}

type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// ListNotificationsResponse is the GET /api/notifications body.
type ListNotificationsResponse struct {
	Notifications []wire.Notification `json:"notifications"`
}

// MarkReadRequest is the PUT /api/notifications/mark-read body.
type MarkReadRequest struct {
	// Type is optional; "message" marks only message notifications and any
	// other value marks everything else.
	Type string `json:"type"`
}

// ListNotifications handles GET /api/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	items, err := h.store.ListNotificationsByRecipient(c.Request.Context(), models.ListNotificationsParams{
		RecipientID: userID,
		Limit:       int64(limit),
	})
	if err != nil {
		logger.Errorf("list notifications for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to fetch notifications"})
		return
	}

	result := make([]wire.Notification, 0, len(items))
	for _, item := range items {
		result = append(result, item.Wire())
	}
	c.JSON(http.StatusOK, ListNotificationsResponse{Notifications: result})
}

// MarkRead handles PUT /api/notifications/mark-read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}

	n, err := h.store.MarkNotificationsRead(c.Request.Context(), models.MarkNotificationsReadParams{
		RecipientID: userID,
		Type:        req.Type,
	})
	if err != nil {
		logger.Errorf("mark notifications read for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to mark notifications as read"})
		return
	}
	logger.Debugf("Marked %d notifications read for %s (type=%q)", n, userID, req.Type)
	c.JSON(http.StatusOK, types.MessageResponse{Message: "Notifications marked as read"})
}
