package services

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/edenhall/corecrm/internal/database"
	"github.com/google/uuid"
)

// TenantManagerService provisions the workspace-scoped schema that holds a
// tenant's record data. Init is the expensive step of workspace activation.
type TenantManagerService struct {
	db *database.DB
}

func NewTenantManagerService(db *database.DB) *TenantManagerService {
	return &TenantManagerService{db: db}
}

var tenantTables = []string{
	`CREATE TABLE IF NOT EXISTS %s.workspace_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		avatar_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS %s.companies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		domain_name VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS %s.people (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255),
		company_id UUID,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
}

func (s *TenantManagerService) Init(ctx context.Context, workspaceID uuid.UUID) error {
	schema := SchemaName(workspaceID)

	if _, err := s.db.Pool.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}

	for _, table := range tenantTables {
		if _, err := s.db.Pool.Exec(ctx, fmt.Sprintf(table, schema)); err != nil {
			return fmt.Errorf("failed to initialize schema %s: %w", schema, err)
		}
	}
	return nil
}

func (s *TenantManagerService) Delete(ctx context.Context, workspaceID uuid.UUID) error {
	schema := SchemaName(workspaceID)
	if _, err := s.db.Pool.Exec(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, schema)); err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", schema, err)
	}
	return nil
}

// SchemaName derives the tenant schema identifier from a workspace id.
func SchemaName(workspaceID uuid.UUID) string {
	return "workspace_" + hex.EncodeToString(workspaceID[:])
}
