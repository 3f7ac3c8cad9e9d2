package dto

import "github.com/google/uuid"

type ActivateWorkspaceRequest struct {
	DisplayName string `json:"display_name"`
}

type WorkspaceResponse struct {
	ID                        uuid.UUID `json:"id"`
	DisplayName               string    `json:"display_name"`
	Subdomain                 *string   `json:"subdomain,omitempty"`
	ActivationStatus          string    `json:"activation_status"`
	IsPublicInviteLinkEnabled bool      `json:"is_public_invite_link_enabled"`
}

// PublicWorkspaceResponse is the unauthenticated view of a workspace, shown
// on invite landing pages.
type PublicWorkspaceResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Subdomain   *string   `json:"subdomain,omitempty"`
}

type WorkspaceMemberResponse struct {
	ID     uuid.UUID    `json:"id"`
	UserID uuid.UUID    `json:"user_id"`
	User   UserResponse `json:"user"`
}
