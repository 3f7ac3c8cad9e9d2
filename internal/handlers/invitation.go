package handlers

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/edenhall/corecrm/internal/middleware"
	"github.com/edenhall/corecrm/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type InvitationHandler struct {
	memberships      MembershipServiceInterface
	workspaceService WorkspaceServiceInterface
	userService      UserServiceInterface
	emailService     EmailServiceInterface
	frontBaseURL     string
}

func NewInvitationHandler(
	memberships MembershipServiceInterface,
	workspaceService WorkspaceServiceInterface,
	userService UserServiceInterface,
	emailService EmailServiceInterface,
	frontBaseURL string,
) *InvitationHandler {
	return &InvitationHandler{
		memberships:      memberships,
		workspaceService: workspaceService,
		userService:      userService,
		emailService:     emailService,
		frontBaseURL:     frontBaseURL,
	}
}

// Create stores a personal invitation and emails the signed token to the
// invitee. A failed email does not fail the request; the invitation is
// already valid and listed in the workspace.
func (h *InvitationHandler) Create(c *drift.Context) {
	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	var req dto.CreateInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" {
		c.BadRequest("email is required")
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

	invitation, token, err := h.memberships.CreateInvitation(ctx, workspaceID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	inviter, err := h.userService.GetByID(ctx, middleware.GetUserID(c))
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	inviteURL := fmt.Sprintf("%s/invite/%s?inviteToken=%s",
		h.frontBaseURL, workspace.InviteHash, url.QueryEscape(token))

	inviterName := inviter.FirstName + " " + inviter.LastName
	if err := h.emailService.SendWorkspaceInvite(req.Email, workspace.DisplayName, inviterName, inviteURL); err != nil {
		log.Printf("failed to send invitation email to %s: %v", req.Email, err)
	}

	_ = c.JSON(201, invitationResponse(invitation))
}

func (h *InvitationHandler) List(c *drift.Context) {
	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	ctx := context.Background()

	if !h.requireMember(c, ctx, workspaceID) {
		return
	}

	invitations, err := h.memberships.GetWorkspaceInvitations(ctx, workspaceID)
	if err != nil {
		c.InternalServerError("failed to list invitations")
		return
	}

	response := make([]dto.InvitationResponse, 0, len(invitations))
	for i := range invitations {
		response = append(response, invitationResponse(&invitations[i]))
	}

	_ = c.JSON(200, response)
}

func (h *InvitationHandler) Cancel(c *drift.Context) {
	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	invitationID, err := uuid.Parse(c.Param("invitationId"))
	if err != nil {
		c.BadRequest("invalid invitation id")
		return
	}

	ctx := context.Background()

	if !h.requireMember(c, ctx, workspaceID) {
		return
	}

	if err := h.memberships.CancelInvitation(ctx, invitationID, workspaceID); err != nil {
		c.NotFound("invitation not found")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invitation canceled"})
}

func (h *InvitationHandler) requireMember(c *drift.Context, ctx context.Context, workspaceID uuid.UUID) bool {
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
