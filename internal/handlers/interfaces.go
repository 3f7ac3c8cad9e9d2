package handlers

import (
	"context"
	"time"

	"github.com/edenhall/corecrm/internal/models"
	"github.com/edenhall/corecrm/internal/services"
	"github.com/google/uuid"
)

// SignInUpServiceInterface defines the methods used by handlers from SignInUpService
type SignInUpServiceInterface interface {
	SignInUp(ctx context.Context, input services.SignInUpInput) (*models.User, error)
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// WorkspaceServiceInterface defines the methods used by handlers from WorkspaceService
type WorkspaceServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Workspace, error)
	GetByInviteHash(ctx context.Context, inviteHash string) (*models.Workspace, error)
	Activate(ctx context.Context, user *models.User, displayName string) (*models.Workspace, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	RemoveWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) error
	GetAuthProviders(ctx context.Context, workspaceID uuid.UUID) (*models.AuthProviders, error)
}

// MembershipServiceInterface defines the methods used by handlers from UserWorkspaceService
type MembershipServiceInterface interface {
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
	GetMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.UserWorkspace, error)
	CreateInvitation(ctx context.Context, workspaceID uuid.UUID, email string) (*models.WorkspaceInvitation, string, error)
	CancelInvitation(ctx context.Context, invitationID, workspaceID uuid.UUID) error
	GetWorkspaceInvitations(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceInvitation, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string, workspaceID uuid.UUID) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	SendWorkspaceInvite(to, workspaceName, inviterName, inviteURL string) error
}
