package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rajankumarrkr/sukoon/internal/api/middleware"
	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/models"
	"github.com/rajankumarrkr/sukoon/pkg/types"
)

// ProfileStore keeps the display fields shown on notifications.
// *models.Queries implements it.
type ProfileStore interface {
	UpsertUser(ctx context.Context, arg models.UpsertUserParams) error
}

type UserHandler struct {
	store ProfileStore
}

func NewUserHandler(store ProfileStore) *UserHandler {
	return &UserHandler{store: store}
}

// UpdateProfileRequest is the PUT /api/users/me body.
type UpdateProfileRequest struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	ProfilePic string `json:"profilePic"`
}

// UpdateProfile handles PUT /api/users/me
//
// Clients sync their profile after login so that notifications they send
// carry a username and avatar.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "username is required"})
		return
	}

	err := h.store.UpsertUser(c.Request.Context(), models.UpsertUserParams{
		ID:         userID,
		Username:   username,
		Name:       strings.TrimSpace(req.Name),
		ProfilePic: strings.TrimSpace(req.ProfilePic),
	})
	if err != nil {
		logger.Errorf("upsert profile for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
}
