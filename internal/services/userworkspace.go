package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationExpired       = errors.New("invitation expired")
	ErrInvitationEmailMismatch = errors.New("invitation is not addressed to this email")
	ErrInvitationAlreadyUsed   = errors.New("invitation has already been used")
)

// UserWorkspaceService owns membership rows and the personal invitations
// that create them.
type UserWorkspaceService struct {
	db           *database.DB
	jwt          *JWTService
	inviteExpiry time.Duration
}

func NewUserWorkspaceService(db *database.DB, jwt *JWTService, inviteExpiry time.Duration) *UserWorkspaceService {
	return &UserWorkspaceService{db: db, jwt: jwt, inviteExpiry: inviteExpiry}
}

func (s *UserWorkspaceService) Create(ctx context.Context, userID, workspaceID uuid.UUID) (*models.UserWorkspace, error) {
	var uw models.UserWorkspace
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO user_workspaces (user_id, workspace_id)
		VALUES ($1, $2)
		RETURNING id, user_id, workspace_id, created_at
	`, userID, workspaceID).Scan(&uw.ID, &uw.UserID, &uw.WorkspaceID, &uw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	return &uw, nil
}

// AddUserToWorkspace joins a user via the public invite link. Re-joining an
// already-joined workspace is a no-op.
func (s *UserWorkspaceService) AddUserToWorkspace(ctx context.Context, user *models.User, workspace *models.Workspace) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO user_workspaces (user_id, workspace_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, workspace_id) DO NOTHING
	`, user.ID, workspace.ID)
	if err != nil {
		return fmt.Errorf("failed to add user to workspace: %w", err)
	}
	return nil
}

// AddUserToWorkspaceByInviteToken consumes a personal invite token. Deleting
// the invitation row and inserting the membership happen in one transaction,
// so a token can only ever be consumed once.
func (s *UserWorkspaceService) AddUserToWorkspaceByInviteToken(ctx context.Context, token string, user *models.User) error {
	invitation, err := s.ValidateInvitation(ctx, token, user.Email)
	if err != nil {
		return err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `
		DELETE FROM workspace_invitations WHERE id = $1
	`, invitation.ID)
	if err != nil {
		return fmt.Errorf("failed to consume invitation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvitationAlreadyUsed
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_workspaces (user_id, workspace_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, workspace_id) DO NOTHING
	`, user.ID, invitation.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return tx.Commit(ctx)
}

// ValidateInvitation checks a personal invite token against its backing row
// and the requester's email. Read-only; consumption happens on attach.
func (s *UserWorkspaceService) ValidateInvitation(ctx context.Context, token, email string) (*models.WorkspaceInvitation, error) {
	claims, err := s.jwt.ValidateInvitationToken(token)
	if err != nil {
		return nil, ErrInvitationNotFound
	}

	invitationID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvitationNotFound
	}

	var invitation models.WorkspaceInvitation
	err = s.db.Pool.QueryRow(ctx, `
		SELECT id, workspace_id, email, expires_at, created_at
		FROM workspace_invitations WHERE id = $1
	`, invitationID).Scan(
		&invitation.ID, &invitation.WorkspaceID, &invitation.Email,
		&invitation.ExpiresAt, &invitation.CreatedAt,
	)
	if err != nil {
		return nil, ErrInvitationNotFound
	}

	if time.Now().After(invitation.ExpiresAt) {
		return nil, ErrInvitationExpired
	}

	if !strings.EqualFold(invitation.Email, email) {
		return nil, ErrInvitationEmailMismatch
	}

	return &invitation, nil
}

// CreateInvitation stores a personal invitation for an email and returns the
// signed token to send. Re-inviting the same email refreshes the expiry.
func (s *UserWorkspaceService) CreateInvitation(ctx context.Context, workspaceID uuid.UUID, email string) (*models.WorkspaceInvitation, string, error) {
	expiresAt := time.Now().Add(s.inviteExpiry)

	var invitation models.WorkspaceInvitation
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO workspace_invitations (workspace_id, email, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, email) DO UPDATE SET expires_at = EXCLUDED.expires_at
		RETURNING id, workspace_id, email, expires_at, created_at
	`, workspaceID, email, expiresAt).Scan(
		&invitation.ID, &invitation.WorkspaceID, &invitation.Email,
		&invitation.ExpiresAt, &invitation.CreatedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create invitation: %w", err)
	}

	token, err := s.jwt.GenerateInvitationToken(invitation.ID, workspaceID, email, invitation.ExpiresAt)
	if err != nil {
		return nil, "", err
	}

	return &invitation, token, nil
}

func (s *UserWorkspaceService) CancelInvitation(ctx context.Context, invitationID, workspaceID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM workspace_invitations WHERE id = $1 AND workspace_id = $2
	`, invitationID, workspaceID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

func (s *UserWorkspaceService) GetWorkspaceInvitations(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceInvitation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, workspace_id, email, expires_at, created_at
		FROM workspace_invitations
		WHERE workspace_id = $1
		ORDER BY created_at DESC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.WorkspaceInvitation
	for rows.Next() {
		var inv models.WorkspaceInvitation
		if err := rows.Scan(&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, nil
}

// CreateWorkspaceMember records the activating user's membership during
// workspace provisioning.
func (s *UserWorkspaceService) CreateWorkspaceMember(ctx context.Context, workspaceID uuid.UUID, user *models.User) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO user_workspaces (user_id, workspace_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, workspace_id) DO NOTHING
	`, user.ID, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to create workspace member: %w", err)
	}
	return nil
}

func (s *UserWorkspaceService) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_workspaces WHERE workspace_id = $1 AND user_id = $2)
	`, workspaceID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *UserWorkspaceService) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.UserWorkspace, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, user_id, workspace_id, created_at
		FROM user_workspaces
		WHERE workspace_id = $1
		ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

func (s *UserWorkspaceService) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.UserWorkspace, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, user_id, workspace_id, created_at
		FROM user_workspaces
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

func (s *UserWorkspaceService) GetMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.UserWorkspace, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT uw.id, uw.user_id, uw.workspace_id, uw.created_at,
		       u.id, u.email, u.first_name, u.last_name, u.default_avatar_url, u.created_at, u.updated_at
		FROM user_workspaces uw
		JOIN users u ON uw.user_id = u.id
		WHERE uw.workspace_id = $1
		ORDER BY uw.created_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.UserWorkspace
	for rows.Next() {
		var member models.UserWorkspace
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.UserID, &member.WorkspaceID, &member.CreatedAt,
			&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.DefaultAvatarURL,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, nil
}

func scanMemberships(rows pgx.Rows) ([]models.UserWorkspace, error) {
	var memberships []models.UserWorkspace
	for rows.Next() {
		var uw models.UserWorkspace
		if err := rows.Scan(&uw.ID, &uw.UserID, &uw.WorkspaceID, &uw.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, uw)
	}
	return memberships, nil
}
