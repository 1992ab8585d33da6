package models

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// User is the subset of the application's user profile that realtime
// delivery needs for display.
type User struct {
	ID         string
	Username   string
	Name       string
	ProfilePic string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type UpsertUserParams struct {
	ID         string
	Username   string
	Name       string
	ProfilePic string
}

// UpsertUser inserts or refreshes the display fields of a user.
func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO users (id, username, name, profile_pic, created_at, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
	username = excluded.username,
	name = excluded.name,
	profile_pic = excluded.profile_pic,
	updated_at = CURRENT_TIMESTAMP;
`, arg.ID, arg.Username, arg.Name, arg.ProfilePic)
	return err
}

// GetUser returns a user by id.
func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, `
SELECT id, username, name, profile_pic, created_at, updated_at
FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.Username, &u.Name, &u.ProfilePic, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// GetUserDisplayName returns the user's full name, falling back to the
// username when no name is set.
func (q *Queries) GetUserDisplayName(ctx context.Context, id string) (string, error) {
	u, err := q.GetUser(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", id, err)
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name, nil
	}
	return u.Username, nil
}
