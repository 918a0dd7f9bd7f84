package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/promptdeck/syncengine/gate"
	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/localstate"
	"github.com/promptdeck/syncengine/internal/present/rest/middleware"
	"github.com/promptdeck/syncengine/internal/present/rest/presenter"
	"github.com/promptdeck/syncengine/internal/service"
	"github.com/promptdeck/syncengine/internal/store"
	"github.com/promptdeck/syncengine/internal/usecase"
)

type Handler struct {
	config     domain.Config
	store      *store.Store
	session    *usecase.SessionUsecase
	engage     *usecase.EngageUsecase
	limits     *usecase.LimitsUsecase
	reconciler *service.Reconciler
	local      *localstate.LocalState
}

func NewHandler(
	config domain.Config,
	st *store.Store,
	session *usecase.SessionUsecase,
	engage *usecase.EngageUsecase,
	limits *usecase.LimitsUsecase,
	reconciler *service.Reconciler,
	local *localstate.LocalState,
) *Handler {
	return &Handler{
		config:     config,
		store:      st,
		session:    session,
		engage:     engage,
		limits:     limits,
		reconciler: reconciler,
		local:      local,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/session/signin", h.handleSignIn)
	e.POST("/session/signout", h.handleSignOut)

	e.GET("/state", h.handleState)
	e.GET("/gates", h.handleGates)
	e.GET("/limits/:action/check", h.handleLimitCheck)
	e.GET("/notifications", h.handleNotifications)

	e.POST("/actions/view/:id", h.handleView)
	e.POST("/actions/heart/:id", h.handleHeart)
	e.POST("/actions/save/:id", h.handleSave)
	e.POST("/actions/fork/:id", h.handleFork)
	e.POST("/actions/publish", h.handlePublish)
	e.POST("/actions/draft", h.handleDraft)
	e.POST("/actions/follow/:id", h.handleFollow)
	e.DELETE("/actions/follow/:id", h.handleUnfollow)
	e.POST("/actions/comment/:id", h.handleComment)
	e.POST("/actions/notifications/:id/read", h.handleNotificationRead)
	e.POST("/actions/notifications/read-all", h.handleNotificationsReadAll)
	e.POST("/actions/filters", h.handleFilters)

	e.GET("/theme", h.handleGetTheme)
	e.PUT("/theme", h.handlePutTheme)

	e.GET("/realtime", h.handleRealtime)
}

// requireIdentity extracts the verified identity for a request. The
// middleware itself is permissive; mutating endpoints are not.
func requireIdentity(c echo.Context) (domain.Identity, bool) {
	return middleware.RequesterIdentity(c.Request().Context())
}

func (h *Handler) handleSignIn(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := requireIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	user, err := h.session.Load(ctx, identity)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	// The reconciler outlives the request; its lifetime is the session.
	if err := h.reconciler.Start(context.WithoutCancel(ctx), user.ID); err != nil {
		slog.Error("failed to start reconciler",
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
	}

	return presenter.OK(c, user)
}

func (h *Handler) handleSignOut(c echo.Context) error {
	h.reconciler.Stop()
	h.session.SignOut()
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleState(c echo.Context) error {
	return presenter.OK(c, h.store.Snapshot())
}

func (h *Handler) handleGates(c echo.Context) error {
	user := h.store.Snapshot().CurrentUser
	return presenter.OK(c, echo.Map{
		"isAdmin":             gate.IsAdmin(user),
		"hasProFeatures":      gate.HasProFeatures(user),
		"hidePaymentFeatures": gate.ShouldHidePaymentFeatures(user),
		"hasAffiliateAccess":  gate.HasAffiliateAccess(user),
		"inviteLimit":         gate.GetInviteLimit(user),
		"canCreatePrivate":    gate.CanCreatePrivate(user),
	})
}

func (h *Handler) handleLimitCheck(c echo.Context) error {
	ctx := c.Request().Context()

	action := domain.GatedAction(c.Param("action"))
	user := h.store.Snapshot().CurrentUser

	blocked, err := h.limits.IsActionBlocked(ctx, user, action)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	showUpgrade, err := h.limits.ShouldShowUpgrade(ctx, user, action)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"action":      action,
		"blocked":     blocked,
		"showUpgrade": showUpgrade,
	})
}

func (h *Handler) handleNotifications(c echo.Context) error {
	return presenter.OK(c, h.store.Snapshot().Notifications)
}

func (h *Handler) handleView(c echo.Context) error {
	h.store.Dispatch(store.RecordView{ID: c.Param("id")})
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleHeart(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}
	if err := h.engage.ToggleHeart(ctx, c.Param("id")); err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type saveRequest struct {
	CollectionID *string `json:"collectionId"`
}

func (h *Handler) handleSave(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.engage.ToggleSave(ctx, c.Param("id"), req.CollectionID); err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleFork(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	fork, err := h.engage.Fork(ctx, c.Param("id"))
	if err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, fork)
}

func (h *Handler) handlePublish(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var draft domain.Draft
	if err := c.Bind(&draft); err != nil {
		return presenter.BadRequest(c, err)
	}

	prompt, err := h.engage.Publish(ctx, draft)
	if err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, prompt)
}

func (h *Handler) handleDraft(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var draft domain.Draft
	if err := c.Bind(&draft); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.engage.SaveDraft(ctx, draft); err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleFollow(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}
	if err := h.engage.Follow(ctx, c.Param("id")); err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleUnfollow(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}
	if err := h.engage.Unfollow(ctx, c.Param("id")); err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleComment(c echo.Context) error {
	ctx := c.Request().Context()
	if _, ok := requireIdentity(c); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Body == "" {
		return presenter.BadRequestMessage(c, "body is required")
	}

	comment, err := h.engage.AddComment(ctx, c.Param("id"), req.Body)
	if err != nil {
		return h.engageError(c, err)
	}
	return presenter.OK(c, comment)
}

func (h *Handler) handleNotificationRead(c echo.Context) error {
	h.store.Dispatch(store.MarkNotificationRead{ID: c.Param("id")})
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleNotificationsReadAll(c echo.Context) error {
	h.store.Dispatch(store.MarkAllNotificationsRead{})
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleFilters(c echo.Context) error {
	var patch domain.FiltersPatch
	if err := c.Bind(&patch); err != nil {
		return presenter.BadRequest(c, err)
	}
	state := h.store.Dispatch(store.PatchFilters{Patch: patch})
	return presenter.OK(c, state.Filters)
}

func (h *Handler) handleGetTheme(c echo.Context) error {
	return presenter.OK(c, echo.Map{"theme": h.local.Theme()})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (h *Handler) handlePutTheme(c echo.Context) error {
	var req themeRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	switch req.Theme {
	case "light", "dark", "system":
	default:
		return presenter.BadRequestMessage(c, "invalid theme")
	}
	h.local.SetTheme(req.Theme)
	return presenter.OK(c, echo.Map{"theme": req.Theme})
}

func (h *Handler) engageError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrActionBlocked) {
		return presenter.Forbidden(c, err.Error())
	}
	if errors.Is(err, domain.ErrNotFound) {
		return presenter.NotFound(c, err.Error())
	}
	return presenter.InternalError(c, err)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	notices, cancel := h.store.Watch()
	defer cancel()

	// Buffered so the reader never blocks on quit after the writer loop has
	// already returned.
	quit := make(chan struct{}, 1)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case notice, ok := <-notices:
			if !ok {
				return nil
			}
			err := ws.WriteJSON(notice)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
