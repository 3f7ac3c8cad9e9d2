package dto

import "github.com/google/uuid"

type CreateInvitationRequest struct {
	Email string `json:"email"`
}

type InvitationResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt string    `json:"expires_at"`
	CreatedAt string    `json:"created_at"`
}
