package usecase

import (
	"context"
	"errors"
	"log/slog"

	pkgerrors "github.com/pkg/errors"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/store"
)

// SessionUsecase turns an authenticated identity into the canonical in-memory
// user and keeps the derived role fields current.
type SessionUsecase struct {
	config   domain.Config
	store    *store.Store
	profiles ProfileRepository
	prompts  PromptRepository
}

func NewSessionUsecase(
	config domain.Config,
	st *store.Store,
	profiles ProfileRepository,
	prompts PromptRepository,
) *SessionUsecase {
	return &SessionUsecase{
		config:   config,
		store:    st,
		profiles: profiles,
		prompts:  prompts,
	}
}

// Load resolves the user for an authenticated identity and publishes it into
// the store as a single transition, then triggers a full public-prompt
// reload. On any lookup failure nothing is published: the store keeps its
// prior state and the caller sees the error.
func (uc *SessionUsecase) Load(ctx context.Context, identity domain.Identity) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Session.Usecase.Load")
	defer span.End()

	if domain.InAllowList(identity.Email, uc.config.AdminEmails) {
		// Bootstrap administrators skip profile lookup entirely. This is the
		// only path that bypasses standard role derivation.
		slog.Warn("admin allow-list short-circuit",
			slog.String("email", identity.Email),
			slog.String("module", "session"),
		)
		user := domain.User{
			ID:                 identity.ID,
			Email:              identity.Email,
			Username:           identity.Email,
			DisplayName:        "Administrator",
			Role:               domain.RoleAdmin,
			SubscriptionStatus: domain.SubscriptionActive,
			InvitesRemaining:   domain.InviteLimit(domain.RoleAdmin),
		}
		uc.publish(ctx, user)
		return user, nil
	}

	// feedStatus is what the subscription feed reports right now. A brand-new
	// profile has no subscription row; its stored status defaults to active
	// without granting pro.
	var feedStatus domain.SubscriptionStatus

	user, err := uc.profiles.Get(ctx, identity.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		user = defaultProfile(identity)
		if err := uc.profiles.Create(ctx, user); err != nil {
			wrapped := pkgerrors.Wrap(err, "SessionUsecase.Load: create default profile failed")
			span.RecordError(wrapped)
			return domain.User{}, wrapped
		}
	case err != nil:
		wrapped := pkgerrors.Wrap(err, "SessionUsecase.Load: profile lookup failed")
		span.RecordError(wrapped)
		return domain.User{}, wrapped
	default:
		status, err := uc.profiles.SubscriptionStatus(ctx, identity.ID)
		if err != nil {
			wrapped := pkgerrors.Wrap(err, "SessionUsecase.Load: subscription lookup failed")
			span.RecordError(wrapped)
			return domain.User{}, wrapped
		}
		feedStatus = status
		user.SubscriptionStatus = status
	}

	// Role is a projection of (identity, subscription status), never trusted
	// as stored truth.
	user.Email = identity.Email
	user.Role = domain.DeriveRole(identity, feedStatus, uc.config.AdminEmails)
	user.InvitesRemaining = domain.InviteLimit(user.Role)

	uc.publish(ctx, user)
	return user, nil
}

func (uc *SessionUsecase) publish(ctx context.Context, user domain.User) {
	uc.store.Dispatch(store.SetUser{User: user})

	prompts, err := uc.prompts.ListPublic(ctx)
	if err != nil {
		// The user is already published; a failed refresh leaves the prompt
		// collection as it was.
		slog.Error("public prompt reload failed",
			slog.String("error", err.Error()),
			slog.String("module", "session"),
		)
		return
	}
	uc.store.Dispatch(store.SetPrompts{Prompts: prompts})
}

// RefreshSubscription re-derives the role fields when the subscription feed
// emits for the current user. Only the derived fields are republished.
func (uc *SessionUsecase) RefreshSubscription(ctx context.Context, status domain.SubscriptionStatus) {
	_, span := tracer.Start(ctx, "Session.Usecase.RefreshSubscription")
	defer span.End()

	snapshot := uc.store.Snapshot()
	if snapshot.CurrentUser == nil {
		return
	}
	identity := domain.Identity{ID: snapshot.CurrentUser.ID, Email: snapshot.CurrentUser.Email}
	role := domain.DeriveRole(identity, status, uc.config.AdminEmails)
	uc.store.Dispatch(store.PatchUserRole{
		Role:               role,
		SubscriptionStatus: status,
		InvitesRemaining:   domain.InviteLimit(role),
	})
}

// SignOut clears the user and all per-user rows from the store.
func (uc *SessionUsecase) SignOut() {
	uc.store.Dispatch(store.ClearUser{})
}

func defaultProfile(identity domain.Identity) domain.User {
	return domain.User{
		ID:                 identity.ID,
		Email:              identity.Email,
		Username:           identity.Email,
		Role:               domain.RoleGeneral,
		SubscriptionStatus: domain.SubscriptionActive,
		InvitesRemaining:   domain.InviteLimit(domain.RoleGeneral),
	}
}
