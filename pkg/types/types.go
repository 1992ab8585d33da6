package types

import "github.com/google/uuid"

// NewID returns a new random identifier for persisted records.
func NewID() string {
	return uuid.NewString()
}

// Common response types

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Notification types, matching the values stored in notifications.type.
const (
	NotificationMessage    = "message"
	NotificationLike       = "like"
	NotificationComment    = "comment"
	NotificationFollow     = "follow"
	NotificationMissedCall = "missed_call"
)
