package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	PasswordHash       *string    `json:"-"`
	DefaultAvatarURL   *string    `json:"default_avatar_url,omitempty"`
	CanImpersonate     bool       `json:"can_impersonate"`
	DefaultWorkspaceID uuid.UUID  `json:"default_workspace_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DefaultWorkspace   *Workspace `json:"default_workspace,omitempty"`
}
