package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"

	"github.com/edenhall/corecrm/internal/apperror"
	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TenantManager provisions and removes workspace-scoped schemas.
type TenantManager interface {
	Init(ctx context.Context, workspaceID uuid.UUID) error
	Delete(ctx context.Context, workspaceID uuid.UUID) error
}

// SubscriptionCanceler is the billing-provider side of teardown.
type SubscriptionCanceler interface {
	CancelSubscription(ctx context.Context, workspaceID uuid.UUID) error
}

// WorkspaceService drives the workspace activation state machine and its
// inverse, teardown. It holds direct references to its collaborators; none
// of them reference it back.
type WorkspaceService struct {
	db           *database.DB
	users        *UserService
	memberships  *UserWorkspaceService
	flags        *FeatureFlagService
	tenants      TenantManager
	billing      SubscriptionCanceler
	defaultFlags []string
}

func NewWorkspaceService(
	db *database.DB,
	users *UserService,
	memberships *UserWorkspaceService,
	flags *FeatureFlagService,
	tenants TenantManager,
	billing SubscriptionCanceler,
	defaultFlags []string,
) *WorkspaceService {
	return &WorkspaceService{
		db:           db,
		users:        users,
		memberships:  memberships,
		flags:        flags,
		tenants:      tenants,
		billing:      billing,
		defaultFlags: defaultFlags,
	}
}

const workspaceColumns = `id, display_name, subdomain, invite_hash, is_public_invite_link_enabled, activation_status,
	is_password_auth_enabled, is_google_auth_enabled, is_microsoft_auth_enabled, created_at, updated_at`

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var w models.Workspace
	err := row.Scan(
		&w.ID, &w.DisplayName, &w.Subdomain, &w.InviteHash,
		&w.IsPublicInviteLinkEnabled, &w.ActivationStatus,
		&w.IsPasswordAuthEnabled, &w.IsGoogleAuthEnabled, &w.IsMicrosoftAuthEnabled,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WorkspaceService) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, apperror.NotFound("workspace not found")
	}
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *WorkspaceService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Workspace, error) {
	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE subdomain = $1`, subdomain))
	if err == pgx.ErrNoRows {
		return nil, apperror.NotFound("workspace not found")
	}
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *WorkspaceService) GetByInviteHash(ctx context.Context, inviteHash string) (*models.Workspace, error) {
	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE invite_hash = $1`, inviteHash))
	if err == pgx.ErrNoRows {
		return nil, apperror.NotFound("workspace not found")
	}
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

// Activate drives a pending workspace to ACTIVE: claim the state machine,
// enable default feature flags, provision the tenant schema, create the
// activating user's membership, then persist the derived subdomain. The
// claim is a conditional update, so concurrent activations succeed at most
// once. Steps after the claim commit independently; a failure leaves the
// workspace in ONGOING_CREATION, observable and re-creatable by support
// tooling rather than silently rolled back.
func (s *WorkspaceService) Activate(ctx context.Context, user *models.User, displayName string) (*models.Workspace, error) {
	if displayName == "" {
		return nil, apperror.InvalidInput("displayName not provided")
	}

	existing, err := s.GetByID(ctx, user.DefaultWorkspaceID)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Pool.Exec(ctx, `
		UPDATE workspaces SET activation_status = $1, updated_at = NOW()
		WHERE id = $2 AND activation_status = $3
	`, models.ActivationStatusOngoingCreation, existing.ID, models.ActivationStatusPendingCreation)
	if err != nil {
		return nil, fmt.Errorf("failed to claim workspace activation: %w", err)
	}
	if result.RowsAffected() == 0 {
		if existing.ActivationStatus == models.ActivationStatusPendingCreation ||
			existing.ActivationStatus == models.ActivationStatusOngoingCreation {
			return nil, apperror.Forbidden("workspace is already being created")
		}
		return nil, apperror.Forbidden("workspace is not pending creation")
	}

	if err := s.flags.Enable(ctx, s.defaultFlags, existing.ID); err != nil {
		return nil, err
	}

	if err := s.tenants.Init(ctx, existing.ID); err != nil {
		return nil, err
	}

	if err := s.memberships.CreateWorkspaceMember(ctx, existing.ID, user); err != nil {
		return nil, err
	}

	subdomain, err := s.generateSubdomain(ctx, displayName)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Pool.Exec(ctx, `
		UPDATE workspaces SET subdomain = $1, display_name = $2, activation_status = $3, updated_at = NOW()
		WHERE id = $4
	`, subdomain, displayName, models.ActivationStatusActive, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate workspace: %w", err)
	}

	return s.GetByID(ctx, existing.ID)
}

var subdomainWordRegex = regexp.MustCompile(`\w+`)

// generateSubdomain derives a subdomain from the display name: word runs
// joined with hyphens, lowercased. On collision an 8-character random
// suffix is appended once; the unique index on subdomain catches the
// pathological double collision.
func (s *WorkspaceService) generateSubdomain(ctx context.Context, displayName string) (string, error) {
	words := subdomainWordRegex.FindAllString(displayName, -1)
	subdomain := strings.ToLower(strings.Join(words, "-"))

	var count int
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workspaces WHERE subdomain = $1`, subdomain).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to check subdomain: %w", err)
	}

	if count > 0 {
		suffix, err := randomSuffix(8)
		if err != nil {
			return "", err
		}
		subdomain += suffix
	}

	return subdomain, nil
}

const suffixCharset = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = suffixCharset[int(b)%len(suffixCharset)]
	}
	return string(buf), nil
}

// SoftDelete removes everything workspace-scoped but keeps the workspace
// row: memberships, billing subscription, tenant schema.
func (s *WorkspaceService) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	workspace, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM user_workspaces WHERE workspace_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete memberships: %w", err)
	}

	if err := s.billing.CancelSubscription(ctx, id); err != nil {
		return nil, err
	}

	if err := s.tenants.Delete(ctx, id); err != nil {
		return nil, err
	}

	return workspace, nil
}

// Delete hard-deletes a workspace. The membership list is captured before
// the soft delete so every removed member's user record can be reassigned
// or cleaned up afterwards.
func (s *WorkspaceService) Delete(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	memberships, err := s.memberships.FindByWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}

	workspace, err := s.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, membership := range memberships {
		if err := s.RemoveWorkspaceMember(ctx, id, membership.UserID); err != nil {
			return nil, err
		}
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete workspace: %w", err)
	}

	return workspace, nil
}

// RemoveWorkspaceMember deletes one membership and repairs the user's
// default workspace: users with no remaining membership are deleted, users
// whose default pointed at the removed workspace get reassigned.
func (s *WorkspaceService) RemoveWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		DELETE FROM user_workspaces WHERE user_id = $1 AND workspace_id = $2
	`, userID, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	return s.reassignOrRemoveUserDefaultWorkspace(ctx, workspaceID, userID)
}

func (s *WorkspaceService) reassignOrRemoveUserDefaultWorkspace(ctx context.Context, workspaceID, userID uuid.UUID) error {
	memberships, err := s.memberships.FindByUser(ctx, userID)
	if err != nil {
		return err
	}

	if len(memberships) == 0 {
		return s.users.Delete(ctx, userID)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user %s not found in workspace %s: %w", userID, workspaceID, err)
	}

	if user.DefaultWorkspaceID == workspaceID {
		return s.users.UpdateDefaultWorkspace(ctx, userID, memberships[0].WorkspaceID)
	}
	return nil
}

// GetAuthProviders reports which sign-in methods a workspace accepts.
func (s *WorkspaceService) GetAuthProviders(ctx context.Context, workspaceID uuid.UUID) (*models.AuthProviders, error) {
	workspace, err := s.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var ssoCount int
	err = s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM workspace_sso_identity_providers
		WHERE workspace_id = $1 AND status = 'active'
	`, workspaceID).Scan(&ssoCount)
	if err != nil {
		return nil, err
	}

	return &models.AuthProviders{
		Password:  workspace.IsPasswordAuthEnabled,
		Google:    workspace.IsGoogleAuthEnabled,
		Microsoft: workspace.IsMicrosoftAuthEnabled,
		SSO:       ssoCount > 0,
	}, nil
}
