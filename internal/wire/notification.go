package wire

import "time"

// NotificationSender is the populated sender reference on a notification.
type NotificationSender struct {
	// ID is the sender's user id.
	ID string `json:"_id"`
	// Username is the sender's handle; empty when the user is unknown.
	Username string `json:"username"`
	// ProfilePic is the sender's avatar URL.
	ProfilePic string `json:"profilePic"`
}

// Notification is the record pushed as the "notification" event and returned
// by the notifications REST endpoint.
type Notification struct {
	// ID is the notification id.
	ID string `json:"_id"`
	// Recipient is the user the notification is addressed to.
	Recipient string `json:"recipient"`
	// Sender is the user whose action produced the notification.
	Sender NotificationSender `json:"sender"`
	// Type is one of message, like, comment, follow, missed_call.
	Type string `json:"type"`
	// Text is the human-readable summary.
	Text string `json:"text"`
	// Post references the related post, when there is one.
	Post *string `json:"post,omitempty"`
	// Read reports whether the recipient has seen it.
	Read bool `json:"read"`
	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"createdAt"`
}
