package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/edenhall/corecrm/internal/apperror"
	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenantManager struct {
	initialized []uuid.UUID
	deleted     []uuid.UUID
}

func (f *fakeTenantManager) Init(ctx context.Context, workspaceID uuid.UUID) error {
	f.initialized = append(f.initialized, workspaceID)
	return nil
}

func (f *fakeTenantManager) Delete(ctx context.Context, workspaceID uuid.UUID) error {
	f.deleted = append(f.deleted, workspaceID)
	return nil
}

type fakeBilling struct {
	canceled []uuid.UUID
}

func (f *fakeBilling) CancelSubscription(ctx context.Context, workspaceID uuid.UUID) error {
	f.canceled = append(f.canceled, workspaceID)
	return nil
}

func setupWorkspaceService(t *testing.T) (*WorkspaceService, pgxmock.PgxPoolIface, *fakeTenantManager, *fakeBilling) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	jwtSvc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	tenants := &fakeTenantManager{}
	billing := &fakeBilling{}

	svc := NewWorkspaceService(
		db,
		NewUserService(db),
		NewUserWorkspaceService(db, jwtSvc, 720*time.Hour),
		NewFeatureFlagService(db),
		tenants,
		billing,
		[]string{"IS_WORKFLOW_ENABLED"},
	)
	return svc, mock, tenants, billing
}

func pendingWorkspaceRow(id uuid.UUID, status string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(workspaceRowColumns).
		AddRow(id, "", (*string)(nil), "invite-hash", true, status,
			true, true, false, now, now)
}

func activeWorkspaceRow(id uuid.UUID, displayName, subdomain string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(workspaceRowColumns).
		AddRow(id, displayName, &subdomain, "invite-hash", true, models.ActivationStatusActive,
			true, true, false, now, now)
}

func TestWorkspaceService_Activate_EmptyDisplayName(t *testing.T) {
	svc, mock, _, _ := setupWorkspaceService(t)

	_, err := svc.Activate(context.Background(), &models.User{ID: uuid.New()}, "")

	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_Activate_Success(t *testing.T) {
	svc, mock, tenants, _ := setupWorkspaceService(t)
	workspaceID := uuid.New()
	userID := uuid.New()
	user := &models.User{ID: userID, DefaultWorkspaceID: workspaceID}

	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnRows(pendingWorkspaceRow(workspaceID, models.ActivationStatusPendingCreation))

	mock.ExpectExec(`UPDATE workspaces SET activation_status`).
		WithArgs(models.ActivationStatusOngoingCreation, workspaceID, models.ActivationStatusPendingCreation).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(`INSERT INTO feature_flags`).
		WithArgs("IS_WORKFLOW_ENABLED", workspaceID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec(`INSERT INTO user_workspaces`).
		WithArgs(userID, workspaceID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM workspaces WHERE subdomain`).
		WithArgs("acme-inc").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectExec(`UPDATE workspaces SET subdomain`).
		WithArgs("acme-inc", "Acme Inc", models.ActivationStatusActive, workspaceID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnRows(activeWorkspaceRow(workspaceID, "Acme Inc", "acme-inc"))

	workspace, err := svc.Activate(context.Background(), user, "Acme Inc")

	require.NoError(t, err)
	assert.Equal(t, models.ActivationStatusActive, workspace.ActivationStatus)
	require.NotNil(t, workspace.Subdomain)
	assert.Equal(t, "acme-inc", *workspace.Subdomain)
	assert.Equal(t, []uuid.UUID{workspaceID}, tenants.initialized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_Activate_ConcurrentClaimLost(t *testing.T) {
	svc, mock, tenants, _ := setupWorkspaceService(t)
	workspaceID := uuid.New()
	user := &models.User{ID: uuid.New(), DefaultWorkspaceID: workspaceID}

	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnRows(pendingWorkspaceRow(workspaceID, models.ActivationStatusPendingCreation))

	// Another activation won the conditional update.
	mock.ExpectExec(`UPDATE workspaces SET activation_status`).
		WithArgs(models.ActivationStatusOngoingCreation, workspaceID, models.ActivationStatusPendingCreation).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := svc.Activate(context.Background(), user, "Acme Inc")

	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
	assert.Empty(t, tenants.initialized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_Activate_AlreadyActive(t *testing.T) {
	svc, mock, _, _ := setupWorkspaceService(t)
	workspaceID := uuid.New()
	user := &models.User{ID: uuid.New(), DefaultWorkspaceID: workspaceID}

	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnRows(pendingWorkspaceRow(workspaceID, models.ActivationStatusActive))

	mock.ExpectExec(`UPDATE workspaces SET activation_status`).
		WithArgs(models.ActivationStatusOngoingCreation, workspaceID, models.ActivationStatusPendingCreation).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := svc.Activate(context.Background(), user, "Acme Inc")

	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_GenerateSubdomain(t *testing.T) {
	svc, mock, _, _ := setupWorkspaceService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM workspaces WHERE subdomain`).
		WithArgs("acme-inc").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	subdomain, err := svc.generateSubdomain(context.Background(), "Acme Inc")

	require.NoError(t, err)
	assert.Equal(t, "acme-inc", subdomain)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_GenerateSubdomain_Collision(t *testing.T) {
	svc, mock, _, _ := setupWorkspaceService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM workspaces WHERE subdomain`).
		WithArgs("acme-inc").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	subdomain, err := svc.generateSubdomain(context.Background(), "Acme Inc")

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^acme-inc[0-9a-z]{8}$`), subdomain)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_SoftDelete(t *testing.T) {
	svc, mock, tenants, billing := setupWorkspaceService(t)
	workspaceID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnRows(activeWorkspaceRow(workspaceID, "Acme Inc", "acme-inc"))

	mock.ExpectExec(`DELETE FROM user_workspaces WHERE workspace_id`).
		WithArgs(workspaceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	workspace, err := svc.SoftDelete(context.Background(), workspaceID)

	require.NoError(t, err)
	assert.Equal(t, workspaceID, workspace.ID)
	assert.Equal(t, []uuid.UUID{workspaceID}, billing.canceled)
	assert.Equal(t, []uuid.UUID{workspaceID}, tenants.deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_RemoveMember_ReassignsDefaultWorkspace(t *testing.T) {
	svc, mock, _, _ := setupWorkspaceService(t)
	workspaceID := uuid.New()
	otherWorkspaceID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectExec(`DELETE FROM user_workspaces WHERE user_id`).
		WithArgs(userID, workspaceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	mock.ExpectQuery(`SELECT .+ FROM user_workspaces`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "workspace_id", "created_at"}).
			AddRow(uuid.New(), userID, otherWorkspaceID, now))

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(userID).
		WillReturnRows(userRow(userID, workspaceID, "tim@apple.com", "Tim", "Apple"))

	mock.ExpectExec(`UPDATE users SET default_workspace_id`).
		WithArgs(otherWorkspaceID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.RemoveWorkspaceMember(context.Background(), workspaceID, userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_RemoveMember_DeletesOrphanedUser(t *testing.T) {
	svc, mock, _, _ := setupWorkspaceService(t)
	workspaceID := uuid.New()
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM user_workspaces WHERE user_id`).
		WithArgs(userID, workspaceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	mock.ExpectQuery(`SELECT .+ FROM user_workspaces`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "workspace_id", "created_at"}))

	mock.ExpectExec(`DELETE FROM users WHERE id`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.RemoveWorkspaceMember(context.Background(), workspaceID, userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_Delete_FullTeardown(t *testing.T) {
	svc, mock, tenants, billing := setupWorkspaceService(t)
	workspaceID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM user_workspaces`).
		WithArgs(workspaceID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "workspace_id", "created_at"}).
			AddRow(uuid.New(), userID, workspaceID, now))

	// SoftDelete
	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnRows(activeWorkspaceRow(workspaceID, "Acme Inc", "acme-inc"))
	mock.ExpectExec(`DELETE FROM user_workspaces WHERE workspace_id`).
		WithArgs(workspaceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	// Member cleanup: no memberships left, so the user goes too.
	mock.ExpectExec(`DELETE FROM user_workspaces WHERE user_id`).
		WithArgs(userID, workspaceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT .+ FROM user_workspaces`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "workspace_id", "created_at"}))
	mock.ExpectExec(`DELETE FROM users WHERE id`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	mock.ExpectExec(`DELETE FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	workspace, err := svc.Delete(context.Background(), workspaceID)

	require.NoError(t, err)
	assert.Equal(t, workspaceID, workspace.ID)
	assert.Equal(t, []uuid.UUID{workspaceID}, billing.canceled)
	assert.Equal(t, []uuid.UUID{workspaceID}, tenants.deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceService_GetAuthProviders(t *testing.T) {
	svc, mock, _, _ := setupWorkspaceService(t)
	workspaceID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM workspaces WHERE id`).
		WithArgs(workspaceID).
		WillReturnRows(activeWorkspaceRow(workspaceID, "Acme Inc", "acme-inc"))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM workspace_sso_identity_providers`).
		WithArgs(workspaceID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	providers, err := svc.GetAuthProviders(context.Background(), workspaceID)

	require.NoError(t, err)
	assert.True(t, providers.Password)
	assert.True(t, providers.Google)
	assert.False(t, providers.Microsoft)
	assert.True(t, providers.SSO)
	assert.NoError(t, mock.ExpectationsWereMet())
}
