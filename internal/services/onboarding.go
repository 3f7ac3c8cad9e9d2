package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Onboarding checklist steps tracked per user/workspace pair.
const (
	OnboardingStepConnectAccount = "connect-account"
	OnboardingStepCreateProfile  = "create-profile"
	OnboardingStepInviteTeam     = "invite-team"
)

// OnboardingService keeps onboarding checklist state in Redis. Steps are
// marked pending during sign-up and cleared by the client as the user
// completes them.
type OnboardingService struct {
	rdb redis.Cmdable
}

func NewOnboardingService(rdb redis.Cmdable) *OnboardingService {
	return &OnboardingService{rdb: rdb}
}

func (s *OnboardingService) SetConnectAccountPending(ctx context.Context, userID, workspaceID uuid.UUID, value bool) error {
	return s.set(ctx, onboardingKey(workspaceID, userID.String(), OnboardingStepConnectAccount), value)
}

func (s *OnboardingService) SetCreateProfilePending(ctx context.Context, userID, workspaceID uuid.UUID, value bool) error {
	return s.set(ctx, onboardingKey(workspaceID, userID.String(), OnboardingStepCreateProfile), value)
}

// SetInviteTeamPending is workspace-scoped: the step belongs to the
// workspace, not an individual member.
func (s *OnboardingService) SetInviteTeamPending(ctx context.Context, workspaceID uuid.UUID, value bool) error {
	return s.set(ctx, onboardingKey(workspaceID, "workspace", OnboardingStepInviteTeam), value)
}

func (s *OnboardingService) IsPending(ctx context.Context, workspaceID uuid.UUID, scope, step string) (bool, error) {
	value, err := s.rdb.Get(ctx, onboardingKey(workspaceID, scope, step)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

func (s *OnboardingService) set(ctx context.Context, key string, value bool) error {
	payload := "0"
	if value {
		payload = "1"
	}
	if err := s.rdb.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to set onboarding flag %s: %w", key, err)
	}
	return nil
}

func onboardingKey(workspaceID uuid.UUID, scope, step string) string {
	return fmt.Sprintf("onboarding:%s:%s:%s", workspaceID, scope, step)
}
