package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/edenhall/corecrm/internal/config"
	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/services"
	"github.com/google/uuid"
)

// Support tooling: tears down a workspace by id, including its tenant
// schema, billing subscription and member cleanup.
func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: delete-workspace <workspace-id>")
		os.Exit(1)
	}

	workspaceID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatalf("Invalid workspace id: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	membershipService := services.NewUserWorkspaceService(db, jwtService, cfg.InviteExpiry)
	featureFlagService := services.NewFeatureFlagService(db)
	billingService := services.NewBillingService(db)
	tenantService := services.NewTenantManagerService(db)

	workspaceService := services.NewWorkspaceService(
		db, userService, membershipService, featureFlagService,
		tenantService, billingService, cfg.DefaultFeatureFlags,
	)

	workspace, err := workspaceService.Delete(ctx, workspaceID)
	if err != nil {
		log.Fatalf("Failed to delete workspace: %v", err)
	}

	fmt.Printf("Deleted workspace %s (%s)\n", workspace.ID, workspace.DisplayName)
}
