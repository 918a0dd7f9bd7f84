package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/promptdeck/syncengine"
	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/localstate"
	"github.com/promptdeck/syncengine/internal/present/rest/middleware"
	"github.com/promptdeck/syncengine/internal/service"
	"github.com/promptdeck/syncengine/internal/store"
	"github.com/promptdeck/syncengine/internal/usecase"
)

// --- mocks ---

type mockProfileRepo struct{}

func (mockProfileRepo) Get(ctx context.Context, id string) (domain.User, error) {
	return domain.User{}, domain.NotFoundError{Resource: "profile"}
}
func (mockProfileRepo) Create(ctx context.Context, user domain.User) error { return nil }
func (mockProfileRepo) SubscriptionStatus(ctx context.Context, userID string) (domain.SubscriptionStatus, error) {
	return "", nil
}

type mockPromptRepo struct {
	public []domain.Prompt
}

func (m *mockPromptRepo) ListPublic(ctx context.Context) ([]domain.Prompt, error) {
	return m.public, nil
}
func (m *mockPromptRepo) Get(ctx context.Context, id string) (domain.Prompt, error) {
	for _, p := range m.public {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Prompt{}, domain.NotFoundError{Resource: "prompt"}
}
func (m *mockPromptRepo) Create(ctx context.Context, p domain.Prompt) error { return nil }
func (m *mockPromptRepo) Update(ctx context.Context, p domain.Prompt) error { return nil }
func (m *mockPromptRepo) Delete(ctx context.Context, id string) error       { return nil }

type mockCommentRepo struct{}

func (mockCommentRepo) Get(ctx context.Context, id string) (domain.Comment, error) {
	return domain.Comment{}, domain.NotFoundError{Resource: "comment"}
}
func (mockCommentRepo) Create(ctx context.Context, c domain.Comment) error { return nil }

type mockEngagementRepo struct{}

func (mockEngagementRepo) InsertReaction(ctx context.Context, r domain.Reaction) error      { return nil }
func (mockEngagementRepo) DeleteReaction(ctx context.Context, userID, promptID string) error { return nil }
func (mockEngagementRepo) InsertSave(ctx context.Context, s domain.Save) error               { return nil }
func (mockEngagementRepo) DeleteSave(ctx context.Context, userID, promptID string) error     { return nil }
func (mockEngagementRepo) InsertFollow(ctx context.Context, f domain.Follow) error           { return nil }
func (mockEngagementRepo) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	return nil
}

type mockDraftRepo struct{}

func (mockDraftRepo) Upsert(ctx context.Context, d domain.Draft) error { return nil }
func (mockDraftRepo) Delete(ctx context.Context, id string) error      { return nil }
func (mockDraftRepo) ListByAuthor(ctx context.Context, authorID string) ([]domain.Draft, error) {
	return nil, nil
}

type mockCounter struct {
	counts map[domain.GatedAction]int
}

func (m *mockCounter) Count(ctx context.Context, userID string, action domain.GatedAction) (int, error) {
	return m.counts[action], nil
}

type nullStream struct{}

func (nullStream) Subscribe(ctx context.Context, channel string) (<-chan syncengine.ChangeEvent, error) {
	return make(chan syncengine.ChangeEvent), nil
}

// --- fixture ---

type fixture struct {
	e       *echo.Echo
	store   *store.Store
	counter *mockCounter
	config  domain.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conf := domain.Config{
		JWTSecret:   "test-secret",
		AdminEmails: []string{"root@example.com"},
		StateFile:   filepath.Join(t.TempDir(), "state.json"),
	}

	st := store.New()
	prompts := &mockPromptRepo{public: []domain.Prompt{
		{ID: "p1", AuthorID: "owner", Title: "Hello World", Visibility: domain.VisibilityPublic},
	}}
	counter := &mockCounter{counts: make(map[domain.GatedAction]int)}
	local := localstate.Open(conf.StateFile)

	session := usecase.NewSessionUsecase(conf, st, mockProfileRepo{}, prompts)
	limits := usecase.NewLimitsUsecase(counter, local, usecase.SystemClock{})
	engage := usecase.NewEngageUsecase(st, prompts, mockCommentRepo{}, mockEngagementRepo{}, mockDraftRepo{}, limits)
	auth := service.NewAuthService(conf)
	reconciler := service.NewReconciler(st, nullStream{}, prompts, mockCommentRepo{}, session)
	t.Cleanup(reconciler.Stop)

	e := echo.New()
	e.Use(middleware.NewAuthMiddleware(auth, conf).IdentifyIdentity)
	NewHandler(conf, st, session, engage, limits, reconciler, local).RegisterRoutes(e)

	return &fixture{e: e, store: st, counter: counter, config: conf}
}

func (f *fixture) token(t *testing.T, id, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id,
		"email": email,
	})
	signed, err := token.SignedString([]byte(f.config.JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)
	return res
}

func (f *fixture) signIn(t *testing.T) string {
	t.Helper()
	token := f.token(t, "u1", "u@example.com")
	res := f.do(t, http.MethodPost, "/session/signin", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("signin failed: %d %s", res.Code, res.Body.String())
	}
	return token
}

// --- tests ---

func TestSignInPublishesUserAndPrompts(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	snap := f.store.Snapshot()
	if snap.CurrentUser == nil || snap.CurrentUser.ID != "u1" {
		t.Fatalf("expected user in store")
	}
	if len(snap.Prompts) != 1 {
		t.Fatalf("expected prompt collection loaded")
	}
}

func TestSignInRequiresToken(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/session/signin", "", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}

	// A token signed with the wrong key is treated as anonymous.
	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "email": "u@example.com"})
	signed, _ := bad.SignedString([]byte("other-secret"))
	res = f.do(t, http.MethodPost, "/session/signin", signed, nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature got %d", res.Code)
	}
}

func TestSignOutClearsState(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t)

	res := f.do(t, http.MethodPost, "/session/signout", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("signout failed: %d", res.Code)
	}
	if f.store.Snapshot().CurrentUser != nil {
		t.Fatalf("expected user cleared")
	}
}

func TestHeartEndpoint(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t)

	res := f.do(t, http.MethodPost, "/actions/heart/p1", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("heart failed: %d %s", res.Code, res.Body.String())
	}
	if !f.store.Snapshot().Prompts[0].IsHearted {
		t.Fatalf("expected heart applied")
	}

	res = f.do(t, http.MethodPost, "/actions/heart/p1", "", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", res.Code)
	}
}

func TestHeartQuotaReturns403(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t)
	f.counter.counts[domain.ActionHearts] = 5

	res := f.do(t, http.MethodPost, "/actions/heart/p1", token, nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", res.Code)
	}
}

func TestGatesEndpoint(t *testing.T) {
	f := newFixture(t)

	// Signed out: everything off.
	res := f.do(t, http.MethodGet, "/gates", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("gates failed: %d", res.Code)
	}
	var gates map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &gates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gates["hasProFeatures"] != false || gates["inviteLimit"] != float64(0) {
		t.Fatalf("unexpected signed-out gates %+v", gates)
	}

	// Admin via the allow-list.
	adminToken := f.token(t, "a1", "root@example.com")
	if res := f.do(t, http.MethodPost, "/session/signin", adminToken, nil); res.Code != http.StatusOK {
		t.Fatalf("admin signin failed: %d", res.Code)
	}
	res = f.do(t, http.MethodGet, "/gates", adminToken, nil)
	if err := json.Unmarshal(res.Body.Bytes(), &gates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gates["isAdmin"] != true || gates["inviteLimit"] != float64(domain.InvitesAdmin) {
		t.Fatalf("unexpected admin gates %+v", gates)
	}
}

func TestLimitCheckEndpoint(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t)
	f.counter.counts[domain.ActionForks] = 3

	res := f.do(t, http.MethodGet, "/limits/forks/check", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("limit check failed: %d", res.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["blocked"] != true {
		t.Fatalf("expected forks blocked, got %+v", body)
	}
}

func TestThemeEndpoints(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/theme", "", nil)
	var body map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["theme"] != "system" {
		t.Fatalf("expected default theme system, got %q", body["theme"])
	}

	res = f.do(t, http.MethodPut, "/theme", "", map[string]string{"theme": "dark"})
	if res.Code != http.StatusOK {
		t.Fatalf("put theme failed: %d", res.Code)
	}

	res = f.do(t, http.MethodPut, "/theme", "", map[string]string{"theme": "neon"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid theme got %d", res.Code)
	}

	res = f.do(t, http.MethodGet, "/theme", "", nil)
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["theme"] != "dark" {
		t.Fatalf("expected theme dark, got %q", body["theme"])
	}
}

func TestFiltersEndpointCoercesQuery(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	res := f.do(t, http.MethodPost, "/actions/filters", "", map[string]any{
		"query": map[string]any{"target": "input"},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("filters failed: %d", res.Code)
	}
	var filters domain.SearchFilters
	if err := json.Unmarshal(res.Body.Bytes(), &filters); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if filters.Query != "" {
		t.Fatalf("expected coerced empty query, got %q", filters.Query)
	}
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	res := f.do(t, http.MethodGet, "/state", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("state failed: %d", res.Code)
	}
	var snap struct {
		CurrentUser *domain.User    `json:"currentUser"`
		Prompts     []domain.Prompt `json:"prompts"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.CurrentUser == nil || len(snap.Prompts) != 1 {
		t.Fatalf("unexpected state %+v", snap)
	}
}

func TestRealtimePushesNotices(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ws.Close()

	f.store.Dispatch(store.RecordView{ID: "p1"})

	var notice store.Notice
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := ws.ReadJSON(&notice); err != nil {
		t.Fatalf("read notice: %v", err)
	}
	if notice.Action != "recordView" {
		t.Fatalf("unexpected notice %q", notice.Action)
	}
}

func TestRealtimeAbruptCloseReleasesGoroutines(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	base := runtime.NumGoroutine()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	// Drop the TCP connection without a close handshake and keep dispatching
	// so the writer side hits a write error. Both connection goroutines must
	// still wind down regardless of which one notices first.
	ws.UnderlyingConn().Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.store.Dispatch(store.RecordView{ID: "p1"})
		if runtime.NumGoroutine() <= base {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("connection goroutines still alive: %d > %d", runtime.NumGoroutine(), base)
}
