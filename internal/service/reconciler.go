package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/promptdeck/syncengine"
	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/store"
	"github.com/promptdeck/syncengine/internal/usecase"
)

// ChangeStream delivers backend change events for one channel. Events arrive
// in publish order per channel; nothing is guaranteed across channels.
type ChangeStream interface {
	Subscribe(ctx context.Context, channel string) (<-chan syncengine.ChangeEvent, error)
}

// Reconciler keeps the store eventually consistent with the backend. Each
// monitored table gets its own subscription; events carrying only a key are
// resolved with a detail fetch so the store only ever sees whole entities.
// All reconciled writes reuse the same idempotent transitions the optimistic
// path uses, so a locally applied change converging with its own echo does
// not double-count.
type Reconciler struct {
	store    *store.Store
	stream   ChangeStream
	prompts  usecase.PromptRepository
	comments usecase.CommentRepository
	session  *usecase.SessionUsecase

	mu     sync.Mutex
	cancel context.CancelFunc
	userID string
	wg     sync.WaitGroup
}

func NewReconciler(
	st *store.Store,
	stream ChangeStream,
	prompts usecase.PromptRepository,
	comments usecase.CommentRepository,
	session *usecase.SessionUsecase,
) *Reconciler {
	return &Reconciler{
		store:    st,
		stream:   stream,
		prompts:  prompts,
		comments: comments,
		session:  session,
	}
}

// Start establishes the per-table subscriptions for a signed-in user. A
// previous user's subscriptions are torn down first so channels never leak
// across identities.
func (r *Reconciler) Start(ctx context.Context, userID string) error {
	r.Stop()

	ctx, cancel := context.WithCancel(ctx)

	channels := []string{
		syncengine.ChannelFor(syncengine.TablePrompts),
		syncengine.ChannelFor(syncengine.TableComments),
		syncengine.ChannelFor(syncengine.TableReactions),
		syncengine.ChannelFor(syncengine.TableSaves),
		syncengine.SubscriptionChannelFor(userID),
	}

	r.mu.Lock()
	r.cancel = cancel
	r.userID = userID
	r.mu.Unlock()

	for _, channel := range channels {
		events, err := r.stream.Subscribe(ctx, channel)
		if err != nil {
			cancel()
			return err
		}
		r.wg.Add(1)
		go r.consume(ctx, channel, events)
	}
	slog.Info("realtime subscriptions established",
		slog.String("user", userID),
		slog.Int("channels", len(channels)),
		slog.String("module", "reconciler"),
	)
	return nil
}

// Stop cancels all subscriptions. In-flight detail fetches may still
// complete and dispatch afterwards; the store treats transitions without a
// current user as no-ops.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.userID = ""
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
}

func (r *Reconciler) consume(ctx context.Context, channel string, events <-chan syncengine.ChangeEvent) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.handle(ctx, ev)
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, ev syncengine.ChangeEvent) {
	ctx, span := tracer.Start(ctx, "Reconciler.Service.Handle")
	defer span.End()

	switch ev.Table {
	case syncengine.TablePrompts:
		if ev.Op == syncengine.OpDelete {
			r.store.Dispatch(store.RemovePrompt{ID: ev.ID})
			return
		}
		prompt, err := r.prompts.Get(ctx, ev.ID)
		if err != nil {
			span.RecordError(err)
			r.dropEvent(ev, err)
			return
		}
		r.store.Dispatch(store.UpsertPrompt{Prompt: prompt})

	case syncengine.TableComments:
		if ev.Op == syncengine.OpDelete {
			r.store.Dispatch(store.RemoveComment{ID: ev.ID})
			return
		}
		comment, err := r.comments.Get(ctx, ev.ID)
		if err != nil {
			span.RecordError(err)
			r.dropEvent(ev, err)
			return
		}
		r.store.Dispatch(store.UpsertComment{Comment: comment})

	case syncengine.TableReactions:
		if ev.Op == syncengine.OpDelete {
			r.store.Dispatch(store.RemoveReaction{UserID: ev.ActorID, PromptID: ev.TargetID})
			return
		}
		r.store.Dispatch(store.AddReaction{Reaction: domain.Reaction{
			UserID:    ev.ActorID,
			PromptID:  ev.TargetID,
			CreatedAt: time.Now(),
		}})

	case syncengine.TableSaves:
		if ev.Op == syncengine.OpDelete {
			r.store.Dispatch(store.RemoveSave{UserID: ev.ActorID, PromptID: ev.TargetID})
			return
		}
		r.store.Dispatch(store.AddSave{Save: domain.Save{
			UserID:    ev.ActorID,
			PromptID:  ev.TargetID,
			CreatedAt: time.Now(),
		}})

	case syncengine.TableSubscriptions:
		r.session.RefreshSubscription(ctx, domain.SubscriptionStatus(ev.Status))

	default:
		slog.Debug("unknown change event table",
			slog.String("table", string(ev.Table)),
			slog.String("module", "reconciler"),
		)
	}
}

// dropEvent logs a failed detail fetch. There is no retry and no dead-letter
// queue; a later event for the same entity self-corrects.
func (r *Reconciler) dropEvent(ev syncengine.ChangeEvent, err error) {
	slog.Error("change event dropped",
		slog.String("table", string(ev.Table)),
		slog.String("op", string(ev.Op)),
		slog.String("id", ev.ID),
		slog.String("error", err.Error()),
		slog.String("module", "reconciler"),
	)
}
