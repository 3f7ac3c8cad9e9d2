package dto

import "github.com/google/uuid"

type UserResponse struct {
	ID                 uuid.UUID          `json:"id"`
	Email              string             `json:"email"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	DefaultAvatarURL   *string            `json:"default_avatar_url,omitempty"`
	DefaultWorkspaceID uuid.UUID          `json:"default_workspace_id"`
	DefaultWorkspace   *WorkspaceResponse `json:"default_workspace,omitempty"`
}
