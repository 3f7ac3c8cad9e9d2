package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edenhall/corecrm/internal/middleware"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/edenhall/corecrm/internal/services"
	"github.com/edenhall/corecrm/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInvitationTestApp(memberships *MockMembershipService, workspaces *MockWorkspaceService, users *MockUserService, emails *MockEmailService, jwtSvc *services.JWTService) http.Handler {
	handler := NewInvitationHandler(memberships, workspaces, users, emails, "http://localhost:3000")

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/workspaces/:workspaceId/invitations", handler.List)
	app.Post("/workspaces/:workspaceId/invitations", handler.Create)
	app.Delete("/workspaces/:workspaceId/invitations/:invitationId", handler.Cancel)
	return app
}

func postJSONAuthed(t *testing.T, app http.Handler, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestInvitationHandler_Create_Success(t *testing.T) {
	mockMemberships := new(MockMembershipService)
	mockWorkspaces := new(MockWorkspaceService)
	mockUsers := new(MockUserService)
	mockEmails := new(MockEmailService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	workspaceID := uuid.New()
	inviter := testUser(userID, workspaceID, "tim@apple.com")
	invitation := &models.WorkspaceInvitation{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Email:       "newhire@apple.com",
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
		CreatedAt:   time.Now(),
	}

	mockMemberships.On("IsMember", mock.Anything, workspaceID, userID).Return(true, nil)
	mockWorkspaces.On("GetByID", mock.Anything, workspaceID).Return(activeWorkspace(workspaceID), nil)
	mockMemberships.On("CreateInvitation", mock.Anything, workspaceID, "newhire@apple.com").
		Return(invitation, "signed-invite-token", nil)
	mockUsers.On("GetByID", mock.Anything, userID).Return(inviter, nil)
	mockEmails.On("SendWorkspaceInvite",
		"newhire@apple.com", "Acme Inc", "Tim Apple",
		mock.MatchedBy(func(inviteURL string) bool {
			return strings.Contains(inviteURL, "secret-invite-hash") &&
				strings.Contains(inviteURL, "inviteToken=signed-invite-token")
		})).Return(nil)

	app := newInvitationTestApp(mockMemberships, mockWorkspaces, mockUsers, mockEmails, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, inviter.Email, workspaceID)
	rec := postJSONAuthed(t, app, "/workspaces/"+workspaceID.String()+"/invitations", token,
		dto.CreateInvitationRequest{Email: "newhire@apple.com"})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.InvitationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, invitation.ID, response.ID)
	assert.Equal(t, "newhire@apple.com", response.Email)
	assert.NotContains(t, rec.Body.String(), "signed-invite-token")

	mockMemberships.AssertExpectations(t)
	mockEmails.AssertExpectations(t)
}

func TestInvitationHandler_Create_EmailFailureStillCreates(t *testing.T) {
	mockMemberships := new(MockMembershipService)
	mockWorkspaces := new(MockWorkspaceService)
	mockUsers := new(MockUserService)
	mockEmails := new(MockEmailService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	workspaceID := uuid.New()
	inviter := testUser(userID, workspaceID, "tim@apple.com")
	invitation := &models.WorkspaceInvitation{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Email:       "newhire@apple.com",
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
		CreatedAt:   time.Now(),
	}

	mockMemberships.On("IsMember", mock.Anything, workspaceID, userID).Return(true, nil)
	mockWorkspaces.On("GetByID", mock.Anything, workspaceID).Return(activeWorkspace(workspaceID), nil)
	mockMemberships.On("CreateInvitation", mock.Anything, workspaceID, "newhire@apple.com").
		Return(invitation, "signed-invite-token", nil)
	mockUsers.On("GetByID", mock.Anything, userID).Return(inviter, nil)
	mockEmails.On("SendWorkspaceInvite", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	app := newInvitationTestApp(mockMemberships, mockWorkspaces, mockUsers, mockEmails, jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, inviter.Email, workspaceID)
	rec := postJSONAuthed(t, app, "/workspaces/"+workspaceID.String()+"/invitations", token,
		dto.CreateInvitationRequest{Email: "newhire@apple.com"})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestInvitationHandler_Create_NotMember(t *testing.T) {
	mockMemberships := new(MockMembershipService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	workspaceID := uuid.New()

	mockMemberships.On("IsMember", mock.Anything, workspaceID, userID).Return(false, nil)

	app := newInvitationTestApp(mockMemberships, new(MockWorkspaceService), new(MockUserService), new(MockEmailService), jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "tim@apple.com", workspaceID)
	rec := postJSONAuthed(t, app, "/workspaces/"+workspaceID.String()+"/invitations", token,
		dto.CreateInvitationRequest{Email: "newhire@apple.com"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockMemberships.AssertNotCalled(t, "CreateInvitation", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvitationHandler_List(t *testing.T) {
	mockMemberships := new(MockMembershipService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	workspaceID := uuid.New()
	invitations := []models.WorkspaceInvitation{
		{
			ID:          uuid.New(),
			WorkspaceID: workspaceID,
			Email:       "a@apple.com",
			ExpiresAt:   time.Now().Add(24 * time.Hour),
			CreatedAt:   time.Now(),
		},
		{
			ID:          uuid.New(),
			WorkspaceID: workspaceID,
			Email:       "b@apple.com",
			ExpiresAt:   time.Now().Add(24 * time.Hour),
			CreatedAt:   time.Now(),
		},
	}

	mockMemberships.On("IsMember", mock.Anything, workspaceID, userID).Return(true, nil)
	mockMemberships.On("GetWorkspaceInvitations", mock.Anything, workspaceID).Return(invitations, nil)

	app := newInvitationTestApp(mockMemberships, new(MockWorkspaceService), new(MockUserService), new(MockEmailService), jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "tim@apple.com", workspaceID)
	req := httptest.NewRequest(http.MethodGet, "/workspaces/"+workspaceID.String()+"/invitations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.InvitationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 2)
	assert.Equal(t, "a@apple.com", response[0].Email)
}

func TestInvitationHandler_Cancel_NotFound(t *testing.T) {
	mockMemberships := new(MockMembershipService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	workspaceID := uuid.New()
	invitationID := uuid.New()

	mockMemberships.On("IsMember", mock.Anything, workspaceID, userID).Return(true, nil)
	mockMemberships.On("CancelInvitation", mock.Anything, invitationID, workspaceID).
		Return(assert.AnError)

	app := newInvitationTestApp(mockMemberships, new(MockWorkspaceService), new(MockUserService), new(MockEmailService), jwtSvc)

	token := generateTestToken(t, jwtSvc, userID, "tim@apple.com", workspaceID)
	req := httptest.NewRequest(http.MethodDelete, "/workspaces/"+workspaceID.String()+"/invitations/"+invitationID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
