package handlers

import (
	"context"

	"github.com/edenhall/corecrm/internal/middleware"
	"github.com/edenhall/corecrm/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type WorkspaceHandler struct {
	workspaceService WorkspaceServiceInterface
	userService      UserServiceInterface
	memberships      MembershipServiceInterface
}

func NewWorkspaceHandler(
	workspaceService WorkspaceServiceInterface,
	userService UserServiceInterface,
	memberships MembershipServiceInterface,
) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		userService:      userService,
		memberships:      memberships,
	}
}

// Activate provisions the caller's default workspace: feature flags, tenant
// schema, membership and subdomain.
func (h *WorkspaceHandler) Activate(c *drift.Context) {
	var req dto.ActivateWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := context.Background()

	user, err := h.userService.GetByID(ctx, middleware.GetUserID(c))
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	workspace, err := h.workspaceService.Activate(ctx, user, req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, workspaceResponse(workspace))
}

func (h *WorkspaceHandler) Get(c *drift.Context) {
	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	ctx := context.Background()

	if !h.requireMember(c, ctx, workspaceID) {
		return
	}

	workspace, err := h.workspaceService.GetByID(ctx, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, workspaceResponse(workspace))
}

func (h *WorkspaceHandler) Delete(c *drift.Context) {
	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	ctx := context.Background()

	if !h.requireMember(c, ctx, workspaceID) {
		return
	}

	workspace, err := h.workspaceService.Delete(ctx, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, workspaceResponse(workspace))
}

func (h *WorkspaceHandler) GetMembers(c *drift.Context) {
	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	ctx := context.Background()

	if !h.requireMember(c, ctx, workspaceID) {
		return
	}

	members, err := h.memberships.GetMembers(ctx, workspaceID)
	if err != nil {
		c.InternalServerError("failed to list members")
		return
	}

	response := make([]dto.WorkspaceMemberResponse, 0, len(members))
	for _, member := range members {
		resp := dto.WorkspaceMemberResponse{
			ID:     member.ID,
			UserID: member.UserID,
		}
		if member.User != nil {
			resp.User = userResponse(member.User)
		}
		response = append(response, resp)
	}

	_ = c.JSON(200, response)
}

func (h *WorkspaceHandler) RemoveMember(c *drift.Context) {
	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	ctx := context.Background()

	if !h.requireMember(c, ctx, workspaceID) {
		return
	}

	if err := h.workspaceService.RemoveWorkspaceMember(ctx, workspaceID, userID); err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

// GetByInviteHash is public: it backs the invite landing page, so it only
// exposes the fields an anonymous visitor may see.
func (h *WorkspaceHandler) GetByInviteHash(c *drift.Context) {
	inviteHash := c.Param("inviteHash")
	if inviteHash == "" {
		c.BadRequest("invite hash is required")
		return
	}

	workspace, err := h.workspaceService.GetByInviteHash(context.Background(), inviteHash)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.PublicWorkspaceResponse{
		ID:          workspace.ID,
		DisplayName: workspace.DisplayName,
		Subdomain:   workspace.Subdomain,
	})
}

// GetAuthProviders is public: the login page needs it before the user has
// authenticated.
func (h *WorkspaceHandler) GetAuthProviders(c *drift.Context) {
	subdomain := c.Param("subdomain")
	if subdomain == "" {
		c.BadRequest("subdomain is required")
		return
	}

	ctx := context.Background()

	workspace, err := h.workspaceService.GetBySubdomain(ctx, subdomain)
	if err != nil {
		respondError(c, err)
		return
	}

	providers, err := h.workspaceService.GetAuthProviders(ctx, workspace.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.AuthProvidersResponse{
		Password:  providers.Password,
		Google:    providers.Google,
		Microsoft: providers.Microsoft,
		SSO:       providers.SSO,
	})
}

func (h *WorkspaceHandler) requireMember(c *drift.Context, ctx context.Context, workspaceID uuid.UUID) bool {
	isMember, err := h.memberships.IsMember(ctx, workspaceID, middleware.GetUserID(c))
	if err != nil {
		c.InternalServerError("failed to check membership")
		return false
	}
	if !isMember {
		c.Forbidden("not a member of this workspace")
		return false
	}
	return true
}
