package services

import (
	"context"
	"fmt"

	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/google/uuid"
)

type FeatureFlagService struct {
	db *database.DB
}

func NewFeatureFlagService(db *database.DB) *FeatureFlagService {
	return &FeatureFlagService{db: db}
}

// Enable turns on a set of flags for a workspace. Already-enabled flags are
// left untouched.
func (s *FeatureFlagService) Enable(ctx context.Context, flags []string, workspaceID uuid.UUID) error {
	for _, key := range flags {
		_, err := s.db.Pool.Exec(ctx, `
			INSERT INTO feature_flags (key, workspace_id, value)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (key, workspace_id) DO UPDATE SET value = TRUE
		`, key, workspaceID)
		if err != nil {
			return fmt.Errorf("failed to enable feature flag %s: %w", key, err)
		}
	}
	return nil
}

func (s *FeatureFlagService) GetForWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.FeatureFlag, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, key, workspace_id, value, created_at
		FROM feature_flags
		WHERE workspace_id = $1
		ORDER BY key
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []models.FeatureFlag
	for rows.Next() {
		var f models.FeatureFlag
		if err := rows.Scan(&f.ID, &f.Key, &f.WorkspaceID, &f.Value, &f.CreatedAt); err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, nil
}
