package usecase

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/promptdeck/syncengine/gate"
	"github.com/promptdeck/syncengine/internal/domain"
)

// DefaultUpgradeCooldown is how long an upgrade prompt stays suppressed after
// being shown for a given (user, action).
const DefaultUpgradeCooldown = 24 * time.Hour

// LimitsUsecase answers whether a gated action is blocked and whether an
// upgrade prompt should be shown. Usage is always read from the backend, not
// from the entity store; the cooldown is scoped per user and per action.
type LimitsUsecase struct {
	counter  UsageCounter
	sink     EngagementSink
	clock    Clock
	cooldown time.Duration

	mu        sync.Mutex
	lastShown map[cooldownKey]time.Time
}

type cooldownKey struct {
	userID string
	action domain.GatedAction
}

func NewLimitsUsecase(counter UsageCounter, sink EngagementSink, clock Clock) *LimitsUsecase {
	return &LimitsUsecase{
		counter:   counter,
		sink:      sink,
		clock:     clock,
		cooldown:  DefaultUpgradeCooldown,
		lastShown: make(map[cooldownKey]time.Time),
	}
}

// IsActionBlocked reports whether the user has exhausted the free-tier quota
// for the action. Pro and admin users are never blocked; unknown actions
// carry no quota.
func (uc *LimitsUsecase) IsActionBlocked(ctx context.Context, user *domain.User, action domain.GatedAction) (bool, error) {
	ctx, span := tracer.Start(ctx, "Limits.Usecase.IsActionBlocked")
	defer span.End()

	if user == nil {
		return true, nil
	}
	if gate.HasProFeatures(user) {
		return false, nil
	}
	quota, ok := domain.QuotaFor(action)
	if !ok {
		return false, nil
	}

	count, err := uc.counter.Count(ctx, user.ID, action)
	if err != nil {
		wrapped := pkgerrors.Wrap(err, "LimitsUsecase.IsActionBlocked: usage count failed")
		span.RecordError(wrapped)
		return false, wrapped
	}
	return count >= quota, nil
}

// ShouldShowUpgrade reports whether an upgrade prompt is due: usage at or
// past 80% of quota and no prompt shown for this (user, action) within the
// cooldown window. A true result counts as an impression and arms the
// cooldown.
func (uc *LimitsUsecase) ShouldShowUpgrade(ctx context.Context, user *domain.User, action domain.GatedAction) (bool, error) {
	ctx, span := tracer.Start(ctx, "Limits.Usecase.ShouldShowUpgrade")
	defer span.End()

	if user == nil || gate.HasProFeatures(user) {
		return false, nil
	}
	quota, ok := domain.QuotaFor(action)
	if !ok || quota == 0 {
		return false, nil
	}

	count, err := uc.counter.Count(ctx, user.ID, action)
	if err != nil {
		wrapped := pkgerrors.Wrap(err, "LimitsUsecase.ShouldShowUpgrade: usage count failed")
		span.RecordError(wrapped)
		return false, wrapped
	}
	if !domain.NearQuota(count, quota) {
		return false, nil
	}

	now := uc.clock.Now()
	key := cooldownKey{userID: user.ID, action: action}

	uc.mu.Lock()
	last, seen := uc.lastShown[key]
	if seen && now.Sub(last) < uc.cooldown {
		uc.mu.Unlock()
		return false, nil
	}
	uc.lastShown[key] = now
	uc.mu.Unlock()

	uc.sink.Record(domain.EngagementEvent{
		UserID: user.ID,
		Action: action,
		Kind:   domain.EngagementImpression,
		At:     now,
	})
	return true, nil
}

// RecordEngagement appends a click or dismissal to the engagement log.
func (uc *LimitsUsecase) RecordEngagement(userID string, action domain.GatedAction, kind domain.EngagementKind) {
	uc.sink.Record(domain.EngagementEvent{
		UserID: userID,
		Action: action,
		Kind:   kind,
		At:     uc.clock.Now(),
	})
}
