package models

import (
	"time"

	"github.com/google/uuid"
)

// UserWorkspace is the membership record joining a user to a workspace.
// One row per (user, workspace) pair.
type UserWorkspace struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	User        *User     `json:"user,omitempty"`
}

// WorkspaceInvitation backs a personal invite token. The signed token carries
// this row's id; the row is deleted when the token is consumed.
type WorkspaceInvitation struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
