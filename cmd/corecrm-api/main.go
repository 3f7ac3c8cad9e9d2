package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edenhall/corecrm/internal/config"
	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/handlers"
	authmw "github.com/edenhall/corecrm/internal/middleware"
	"github.com/edenhall/corecrm/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
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

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer func() { _ = rdb.Close() }()

	fileService, err := services.NewFileService(cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to create file service: %v", err)
	}
	if err := fileService.EnsureBucket(ctx); err != nil {
		log.Printf("Warning: object storage unavailable: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	membershipService := services.NewUserWorkspaceService(db, jwtService, cfg.InviteExpiry)
	featureFlagService := services.NewFeatureFlagService(db)
	billingService := services.NewBillingService(db)
	tenantService := services.NewTenantManagerService(db)
	onboardingService := services.NewOnboardingService(rdb)
	emailService := services.NewEmailService(cfg.SMTP)

	signInUpService := services.NewSignInUpService(
		db, userService, membershipService, onboardingService, fileService,
		cfg.MultiWorkspaceEnabled,
	)
	workspaceService := services.NewWorkspaceService(
		db, userService, membershipService, featureFlagService,
		tenantService, billingService, cfg.DefaultFeatureFlags,
	)

	authHandler := handlers.NewAuthHandler(cfg, signInUpService, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, userService, membershipService)
	invitationHandler := handlers.NewInvitationHandler(membershipService, workspaceService, userService, emailService, cfg.FrontBaseURL)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/sign-in-up", authHandler.SignInUp)
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	// Public workspace lookups for invite landing and login pages.
	api.Get("/workspaces/by-invite-hash/:inviteHash", workspaceHandler.GetByInviteHash)
	api.Get("/workspaces/by-subdomain/:subdomain/auth-providers", workspaceHandler.GetAuthProviders)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)

	protected.Post("/workspaces/activate", workspaceHandler.Activate)
	protected.Get("/workspaces/:workspaceId", workspaceHandler.Get)
	protected.Delete("/workspaces/:workspaceId", workspaceHandler.Delete)
	protected.Get("/workspaces/:workspaceId/members", workspaceHandler.GetMembers)
	protected.Delete("/workspaces/:workspaceId/members/:userId", workspaceHandler.RemoveMember)

	protected.Get("/workspaces/:workspaceId/invitations", invitationHandler.List)
	protected.Post("/workspaces/:workspaceId/invitations", invitationHandler.Create)
	protected.Delete("/workspaces/:workspaceId/invitations/:invitationId", invitationHandler.Cancel)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			_ = tokenService.CleanupExpired(context.Background())
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
