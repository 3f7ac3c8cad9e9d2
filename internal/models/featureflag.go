package models

import (
	"time"

	"github.com/google/uuid"
)

type FeatureFlag struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Value       bool      `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
}
