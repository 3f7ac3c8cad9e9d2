package services

import (
	"context"
	"fmt"

	"github.com/edenhall/corecrm/internal/database"
	"github.com/edenhall/corecrm/internal/models"
	"github.com/google/uuid"
)

// BillingService fronts the subscription provider. Cancellation is recorded
// locally; provider-side cleanup is driven off the status change.
type BillingService struct {
	db *database.DB
}

func NewBillingService(db *database.DB) *BillingService {
	return &BillingService{db: db}
}

func (s *BillingService) CancelSubscription(ctx context.Context, workspaceID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE billing_subscriptions
		SET status = $1, updated_at = NOW()
		WHERE workspace_id = $2 AND status = $3
	`, models.SubscriptionStatusCanceled, workspaceID, models.SubscriptionStatusActive)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}
