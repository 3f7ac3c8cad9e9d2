package services

import (
	"context"
	"fmt"

	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

type CreateUserInput struct {
	Email              string
	FirstName          string
	LastName           string
	PasswordHash       *string
	DefaultAvatarURL   *string
	DefaultWorkspaceID uuid.UUID
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, password_hash, default_avatar_url, default_workspace_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email, first_name, last_name, password_hash, default_avatar_url, can_impersonate, default_workspace_id, created_at, updated_at
	`, input.Email, input.FirstName, input.LastName, input.PasswordHash, input.DefaultAvatarURL, input.DefaultWorkspaceID).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.DefaultAvatarURL, &user.CanImpersonate, &user.DefaultWorkspaceID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, password_hash, default_avatar_url, can_impersonate, default_workspace_id, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.DefaultAvatarURL, &user.CanImpersonate, &user.DefaultWorkspaceID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail loads a user together with their default workspace. Returns
// (nil, nil) when no user with that email exists.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	var workspace models.Workspace
	err := s.db.Pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.password_hash, u.default_avatar_url, u.can_impersonate, u.default_workspace_id, u.created_at, u.updated_at,
		       w.id, w.display_name, w.subdomain, w.invite_hash, w.is_public_invite_link_enabled, w.activation_status,
		       w.is_password_auth_enabled, w.is_google_auth_enabled, w.is_microsoft_auth_enabled, w.created_at, w.updated_at
		FROM users u
		JOIN workspaces w ON u.default_workspace_id = w.id
		WHERE u.email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.DefaultAvatarURL, &user.CanImpersonate, &user.DefaultWorkspaceID,
		&user.CreatedAt, &user.UpdatedAt,
		&workspace.ID, &workspace.DisplayName, &workspace.Subdomain, &workspace.InviteHash,
		&workspace.IsPublicInviteLinkEnabled, &workspace.ActivationStatus,
		&workspace.IsPasswordAuthEnabled, &workspace.IsGoogleAuthEnabled, &workspace.IsMicrosoftAuthEnabled,
		&workspace.CreatedAt, &workspace.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.DefaultWorkspace = &workspace
	return &user, nil
}

func (s *UserService) UpdateDefaultWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET default_workspace_id = $1, updated_at = NOW() WHERE id = $2
	`, workspaceID, userID)
	return err
}

func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}
