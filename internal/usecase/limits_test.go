package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/promptdeck/syncengine/internal/domain"
)

type mockCounter struct {
	counts map[domain.GatedAction]int
}

func (m *mockCounter) Count(ctx context.Context, userID string, action domain.GatedAction) (int, error) {
	return m.counts[action], nil
}

type mockSink struct {
	events []domain.EngagementEvent
}

func (m *mockSink) Record(ev domain.EngagementEvent) {
	m.events = append(m.events, ev)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func generalUser() *domain.User {
	return &domain.User{ID: "u1", Role: domain.RoleGeneral}
}

func TestIsActionBlocked(t *testing.T) {
	counter := &mockCounter{counts: map[domain.GatedAction]int{
		domain.ActionHearts: 5,
		domain.ActionSaves:  3,
	}}
	uc := NewLimitsUsecase(counter, &mockSink{}, &fakeClock{})

	blocked, err := uc.IsActionBlocked(context.Background(), generalUser(), domain.ActionHearts)
	if err != nil || !blocked {
		t.Fatalf("expected hearts blocked at quota, got %v %v", blocked, err)
	}

	blocked, err = uc.IsActionBlocked(context.Background(), generalUser(), domain.ActionSaves)
	if err != nil || blocked {
		t.Fatalf("expected saves unblocked below quota")
	}

	// The free tier's private-prompt quota is zero: always blocked.
	blocked, _ = uc.IsActionBlocked(context.Background(), generalUser(), domain.ActionPrivatePrompts)
	if !blocked {
		t.Fatalf("expected private prompts blocked on free tier")
	}
}

func TestIsActionBlockedTiers(t *testing.T) {
	counter := &mockCounter{counts: map[domain.GatedAction]int{domain.ActionHearts: 100}}
	uc := NewLimitsUsecase(counter, &mockSink{}, &fakeClock{})

	blocked, _ := uc.IsActionBlocked(context.Background(), &domain.User{ID: "p", Role: domain.RolePro}, domain.ActionHearts)
	if blocked {
		t.Fatalf("pro users are never blocked")
	}

	blocked, _ = uc.IsActionBlocked(context.Background(), nil, domain.ActionHearts)
	if !blocked {
		t.Fatalf("signed-out users are always blocked")
	}

	blocked, _ = uc.IsActionBlocked(context.Background(), generalUser(), domain.GatedAction("unknown"))
	if blocked {
		t.Fatalf("actions without a quota are never blocked")
	}
}

func TestShouldShowUpgradeCooldown(t *testing.T) {
	// Scenario: a general user at 4/5 hearts. The first check shows the
	// prompt; repeats within 24h stay quiet; after the window it shows again.
	counter := &mockCounter{counts: map[domain.GatedAction]int{domain.ActionHearts: 4}}
	sink := &mockSink{}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := NewLimitsUsecase(counter, sink, clock)

	show, err := uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionHearts)
	if err != nil || !show {
		t.Fatalf("expected upgrade prompt at 80%% usage, got %v %v", show, err)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != domain.EngagementImpression {
		t.Fatalf("expected impression recorded")
	}

	show, _ = uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionHearts)
	if show {
		t.Fatalf("expected cooldown to suppress the second prompt")
	}

	clock.advance(23 * time.Hour)
	show, _ = uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionHearts)
	if show {
		t.Fatalf("expected cooldown still active at 23h")
	}

	clock.advance(2 * time.Hour)
	show, _ = uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionHearts)
	if !show {
		t.Fatalf("expected prompt again after the cooldown window")
	}
}

func TestShouldShowUpgradeCooldownScopedPerAction(t *testing.T) {
	counter := &mockCounter{counts: map[domain.GatedAction]int{
		domain.ActionHearts: 4,
		domain.ActionForks:  3,
	}}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := NewLimitsUsecase(counter, &mockSink{}, clock)

	show, _ := uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionHearts)
	if !show {
		t.Fatalf("expected hearts prompt")
	}

	// The hearts cooldown must not suppress the forks prompt.
	show, _ = uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionForks)
	if !show {
		t.Fatalf("expected forks prompt despite hearts cooldown")
	}

	// A different user is likewise unaffected.
	other := &domain.User{ID: "u2", Role: domain.RoleGeneral}
	show, _ = uc.ShouldShowUpgrade(context.Background(), other, domain.ActionHearts)
	if !show {
		t.Fatalf("expected prompt for a second user")
	}
}

func TestShouldShowUpgradeBelowThreshold(t *testing.T) {
	counter := &mockCounter{counts: map[domain.GatedAction]int{domain.ActionForks: 2}}
	uc := NewLimitsUsecase(counter, &mockSink{}, &fakeClock{})

	// 2 of 3 forks is 66%, below the 80% threshold.
	show, _ := uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionForks)
	if show {
		t.Fatalf("expected no prompt below 80%% usage")
	}

	show, _ = uc.ShouldShowUpgrade(context.Background(), &domain.User{ID: "p", Role: domain.RolePro}, domain.ActionForks)
	if show {
		t.Fatalf("pro users never see upgrade prompts")
	}

	// Zero-quota actions never prompt; there is no meaningful 80% of zero.
	show, _ = uc.ShouldShowUpgrade(context.Background(), generalUser(), domain.ActionPrivatePrompts)
	if show {
		t.Fatalf("zero-quota actions must not prompt")
	}
}

func TestRecordEngagement(t *testing.T) {
	sink := &mockSink{}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := NewLimitsUsecase(&mockCounter{}, sink, clock)

	uc.RecordEngagement("u1", domain.ActionHearts, domain.EngagementClick)
	uc.RecordEngagement("u1", domain.ActionHearts, domain.EngagementDismiss)

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events got %d", len(sink.events))
	}
	if sink.events[0].Kind != domain.EngagementClick || sink.events[1].Kind != domain.EngagementDismiss {
		t.Fatalf("unexpected kinds %+v", sink.events)
	}
	if !sink.events[0].At.Equal(clock.now) {
		t.Fatalf("expected clock timestamp")
	}
}
