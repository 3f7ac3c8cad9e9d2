package models

import (
	"time"

	"github.com/google/uuid"
)

// Workspace activation lifecycle. The only legal transitions are
// PENDING_CREATION -> ONGOING_CREATION -> ACTIVE.
const (
	ActivationStatusPendingCreation = "PENDING_CREATION"
	ActivationStatusOngoingCreation = "ONGOING_CREATION"
	ActivationStatusActive          = "ACTIVE"
)

type Workspace struct {
	ID                        uuid.UUID `json:"id"`
	DisplayName               string    `json:"display_name"`
	Subdomain                 *string   `json:"subdomain,omitempty"`
	InviteHash                string    `json:"-"`
	IsPublicInviteLinkEnabled bool      `json:"is_public_invite_link_enabled"`
	ActivationStatus          string    `json:"activation_status"`
	IsPasswordAuthEnabled     bool      `json:"is_password_auth_enabled"`
	IsGoogleAuthEnabled       bool      `json:"is_google_auth_enabled"`
	IsMicrosoftAuthEnabled    bool      `json:"is_microsoft_auth_enabled"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

func (w *Workspace) IsActive() bool {
	return w.ActivationStatus == ActivationStatusActive
}

// AuthProviders is the per-workspace view of enabled sign-in methods.
type AuthProviders struct {
	Password  bool `json:"password"`
	Google    bool `json:"google"`
	Microsoft bool `json:"microsoft"`
	SSO       bool `json:"sso"`
}

type SSOIdentityProvider struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Name        string    `json:"name"`
	Issuer      string    `json:"issuer"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
