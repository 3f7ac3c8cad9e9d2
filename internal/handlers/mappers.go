package handlers

import (
	"time"

	"github.com/edenhall/corecrm/internal/models"
	"github.com/edenhall/corecrm/pkg/dto"
)

func userResponse(user *models.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:                 user.ID,
		Email:              user.Email,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		DefaultAvatarURL:   user.DefaultAvatarURL,
		DefaultWorkspaceID: user.DefaultWorkspaceID,
	}
	if user.DefaultWorkspace != nil {
		ws := workspaceResponse(user.DefaultWorkspace)
		resp.DefaultWorkspace = &ws
	}
	return resp
}

func workspaceResponse(workspace *models.Workspace) dto.WorkspaceResponse {
	return dto.WorkspaceResponse{
		ID:                        workspace.ID,
		DisplayName:               workspace.DisplayName,
		Subdomain:                 workspace.Subdomain,
		ActivationStatus:          workspace.ActivationStatus,
		IsPublicInviteLinkEnabled: workspace.IsPublicInviteLinkEnabled,
	}
}

func invitationResponse(invitation *models.WorkspaceInvitation) dto.InvitationResponse {
	return dto.InvitationResponse{
		ID:        invitation.ID,
		Email:     invitation.Email,
		ExpiresAt: invitation.ExpiresAt.Format(time.RFC3339),
		CreatedAt: invitation.CreatedAt.Format(time.RFC3339),
	}
}
