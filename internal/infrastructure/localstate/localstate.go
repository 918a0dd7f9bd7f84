package localstate

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/promptdeck/syncengine/internal/domain"
)

// maxEngagements caps the retained engagement log per user; the oldest
// entries are evicted first.
const maxEngagements = 100

const defaultTheme = "system"

type fileState struct {
	Theme       string                              `json:"theme"`
	Engagements map[string][]domain.EngagementEvent `json:"engagements"`
}

// LocalState persists client-local preferences and the upgrade-prompt
// engagement log to a JSON file. Load failures fall back to defaults; write
// failures are logged and dropped. Nothing here is authoritative.
type LocalState struct {
	mu    sync.Mutex
	path  string
	state fileState
}

func Open(path string) *LocalState {
	ls := &LocalState{
		path: path,
		state: fileState{
			Theme:       defaultTheme,
			Engagements: make(map[string][]domain.EngagementEvent),
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read local state file",
				slog.String("error", err.Error()),
				slog.String("module", "localstate"),
			)
		}
		return ls
	}

	var loaded fileState
	if err := json.Unmarshal(raw, &loaded); err != nil {
		slog.Error("failed to parse local state file, using defaults",
			slog.String("error", err.Error()),
			slog.String("module", "localstate"),
		)
		return ls
	}
	if loaded.Theme == "" {
		loaded.Theme = defaultTheme
	}
	if loaded.Engagements == nil {
		loaded.Engagements = make(map[string][]domain.EngagementEvent)
	}
	ls.state = loaded
	return ls
}

func (ls *LocalState) Theme() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.state.Theme
}

func (ls *LocalState) SetTheme(theme string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.state.Theme = theme
	ls.flush()
}

// Record implements the usecase EngagementSink.
func (ls *LocalState) Record(ev domain.EngagementEvent) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	log := append(ls.state.Engagements[ev.UserID], ev)
	if len(log) > maxEngagements {
		log = log[len(log)-maxEngagements:]
	}
	ls.state.Engagements[ev.UserID] = log
	ls.flush()
}

func (ls *LocalState) Engagements(userID string) []domain.EngagementEvent {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	log := ls.state.Engagements[userID]
	out := make([]domain.EngagementEvent, len(log))
	copy(out, log)
	return out
}

// flush writes the state via a temp-file rename. Caller holds the lock.
func (ls *LocalState) flush() {
	raw, err := json.MarshalIndent(ls.state, "", "  ")
	if err != nil {
		slog.Error("failed to encode local state",
			slog.String("error", err.Error()),
			slog.String("module", "localstate"),
		)
		return
	}

	tmp := ls.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(ls.path), 0755); err != nil {
		slog.Error("failed to create local state directory",
			slog.String("error", err.Error()),
			slog.String("module", "localstate"),
		)
		return
	}
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		slog.Error("failed to write local state file",
			slog.String("error", err.Error()),
			slog.String("module", "localstate"),
		)
		return
	}
	if err := os.Rename(tmp, ls.path); err != nil {
		slog.Error("failed to replace local state file",
			slog.String("error", err.Error()),
			slog.String("module", "localstate"),
		)
	}
}
