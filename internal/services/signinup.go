package services

import (
	"context"
	"fmt"

	"github.com/edenhall/corecrm/internal/apperror"
	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Sign-in methods a workspace can gate on.
const (
	AuthProviderPassword  = "password"
	AuthProviderGoogle    = "google"
	AuthProviderMicrosoft = "microsoft"
)

// OnboardingFlags marks onboarding checklist steps pending.
type OnboardingFlags interface {
	SetConnectAccountPending(ctx context.Context, userID, workspaceID uuid.UUID, value bool) error
	SetCreateProfilePending(ctx context.Context, userID, workspaceID uuid.UUID, value bool) error
	SetInviteTeamPending(ctx context.Context, workspaceID uuid.UUID, value bool) error
}

// PictureUploader stores a remote profile picture and returns its path.
type PictureUploader interface {
	UploadPictureFromURL(ctx context.Context, pictureURL string, workspaceID uuid.UUID) (*string, error)
}

// SignInUpService resolves an email (plus optional credential and invite)
// into a user: reuse an existing account, attach it to an invited
// workspace, or create a fresh account with its own pending workspace.
type SignInUpService struct {
	db                    *database.DB
	users                 *UserService
	memberships           *UserWorkspaceService
	onboarding            OnboardingFlags
	pictures              PictureUploader
	multiWorkspaceEnabled bool
}

func NewSignInUpService(
	db *database.DB,
	users *UserService,
	memberships *UserWorkspaceService,
	onboarding OnboardingFlags,
	pictures PictureUploader,
	multiWorkspaceEnabled bool,
) *SignInUpService {
	return &SignInUpService{
		db:                    db,
		users:                 users,
		memberships:           memberships,
		onboarding:            onboarding,
		pictures:              pictures,
		multiWorkspaceEnabled: multiWorkspaceEnabled,
	}
}

type SignInUpInput struct {
	Email                        string
	Password                     string
	FirstName                    string
	LastName                     string
	WorkspaceInviteHash          string
	WorkspacePersonalInviteToken string
	Picture                      string
	FromSSO                      bool
	// AuthProvider, when set, must be enabled on the target workspace.
	AuthProvider string
}

func (s *SignInUpService) SignInUp(ctx context.Context, input SignInUpInput) (*models.User, error) {
	if input.Email == "" {
		return nil, apperror.InvalidInput("email is required")
	}

	var passwordHash *string
	if input.Password != "" {
		if !IsStrongPassword(input.Password) {
			return nil, apperror.InvalidInput("password too weak")
		}
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = &hash
	}

	existingUser, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if existingUser != nil && !input.FromSSO {
		storedHash := ""
		if existingUser.PasswordHash != nil {
			storedHash = *existingUser.PasswordHash
		}
		if !CompareHash(input.Password, storedHash) {
			return nil, apperror.Forbidden("wrong password")
		}
	}

	if input.WorkspaceInviteHash != "" {
		return s.signInUpOnExistingWorkspace(ctx, input, passwordHash, existingUser)
	}

	if existingUser == nil {
		return s.signUpOnNewWorkspace(ctx, input, passwordHash)
	}

	return existingUser, nil
}

func (s *SignInUpService) signInUpOnExistingWorkspace(ctx context.Context, input SignInUpInput, passwordHash *string, existingUser *models.User) (*models.User, error) {
	workspace, err := s.findWorkspaceAndValidateInvitation(ctx, input.WorkspaceInviteHash, input.WorkspacePersonalInviteToken, input.Email)
	if err != nil {
		return nil, err
	}

	if !workspace.IsActive() {
		return nil, apperror.Forbidden("workspace is not ready to welcome new members")
	}

	if input.AuthProvider != "" {
		if err := validateAuthProvider(workspace, input.AuthProvider); err != nil {
			return nil, err
		}
	}

	user := existingUser
	if user == nil {
		avatarPath, err := s.uploadPicture(ctx, input.Picture, workspace.ID)
		if err != nil {
			return nil, err
		}

		user, err = s.users.Create(ctx, CreateUserInput{
			Email:              input.Email,
			FirstName:          input.FirstName,
			LastName:           input.LastName,
			PasswordHash:       passwordHash,
			DefaultAvatarURL:   avatarPath,
			DefaultWorkspaceID: workspace.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	if input.WorkspacePersonalInviteToken != "" {
		err = s.memberships.AddUserToWorkspaceByInviteToken(ctx, input.WorkspacePersonalInviteToken, user)
	} else {
		err = s.memberships.AddUserToWorkspace(ctx, user, workspace)
	}
	if err != nil {
		return nil, err
	}

	if err := s.activateOnboarding(ctx, user, workspace.ID, input.FirstName, input.LastName); err != nil {
		return nil, err
	}

	return user, nil
}

// findWorkspaceAndValidateInvitation resolves which workspace an invite
// points at. Read-only: personal tokens are consumed later, atomically with
// membership creation.
func (s *SignInUpService) findWorkspaceAndValidateInvitation(ctx context.Context, inviteHash, personalInviteToken, email string) (*models.Workspace, error) {
	if personalInviteToken == "" && inviteHash == "" {
		return nil, apperror.Forbidden("no invite token or hash provided")
	}

	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE invite_hash = $1`, inviteHash))
	if err == pgx.ErrNoRows {
		return nil, apperror.NotFound("workspace not found")
	}
	if err != nil {
		return nil, err
	}

	if personalInviteToken == "" && !workspace.IsPublicInviteLinkEnabled {
		return nil, apperror.Forbidden("workspace does not allow public invites")
	}

	if personalInviteToken != "" && workspace.IsPublicInviteLinkEnabled {
		if _, err := s.memberships.ValidateInvitation(ctx, personalInviteToken, email); err != nil {
			return nil, apperror.Forbidden(err.Error())
		}
	}

	return workspace, nil
}

func validateAuthProvider(workspace *models.Workspace, provider string) error {
	enabled := false
	switch provider {
	case AuthProviderPassword:
		enabled = workspace.IsPasswordAuthEnabled
	case AuthProviderGoogle:
		enabled = workspace.IsGoogleAuthEnabled
	case AuthProviderMicrosoft:
		enabled = workspace.IsMicrosoftAuthEnabled
	default:
		return apperror.Forbidden(fmt.Sprintf("unknown auth provider %q", provider))
	}
	if !enabled {
		return apperror.Forbidden(fmt.Sprintf("%s auth is not enabled for this workspace", provider))
	}
	return nil
}

func (s *SignInUpService) signUpOnNewWorkspace(ctx context.Context, input SignInUpInput, passwordHash *string) (*models.User, error) {
	if !s.multiWorkspaceEnabled {
		var workspaceCount int
		if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM workspaces`).Scan(&workspaceCount); err != nil {
			return nil, err
		}
		// The very first workspace in the system may always be created.
		if workspaceCount > 0 {
			return nil, apperror.Forbidden("new workspace setup is disabled")
		}
	}

	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx, `
		INSERT INTO workspaces (display_name, invite_hash, activation_status)
		VALUES ('', $1, $2)
		RETURNING `+workspaceColumns+`
	`, uuid.New().String(), models.ActivationStatusPendingCreation))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	avatarPath, err := s.uploadPicture(ctx, input.Picture, workspace.ID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, CreateUserInput{
		Email:              input.Email,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		PasswordHash:       passwordHash,
		DefaultAvatarURL:   avatarPath,
		DefaultWorkspaceID: workspace.ID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.memberships.Create(ctx, user.ID, workspace.ID); err != nil {
		return nil, err
	}

	if err := s.activateOnboarding(ctx, user, workspace.ID, input.FirstName, input.LastName); err != nil {
		return nil, err
	}

	if err := s.onboarding.SetInviteTeamPending(ctx, workspace.ID, true); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *SignInUpService) activateOnboarding(ctx context.Context, user *models.User, workspaceID uuid.UUID, firstName, lastName string) error {
	if err := s.onboarding.SetConnectAccountPending(ctx, user.ID, workspaceID, true); err != nil {
		return err
	}

	// Nameless sign-ups (SSO first touch) still need a profile.
	if firstName == "" && lastName == "" {
		return s.onboarding.SetCreateProfilePending(ctx, user.ID, workspaceID, true)
	}
	return nil
}

func (s *SignInUpService) uploadPicture(ctx context.Context, pictureURL string, workspaceID uuid.UUID) (*string, error) {
	if pictureURL == "" {
		return nil, nil
	}
	return s.pictures.UploadPictureFromURL(ctx, pictureURL, workspaceID)
}
