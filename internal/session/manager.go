package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/pathsafe"
)

// DebuggerCloser is the subset of internal/debugger.Driver the session
// manager needs: the ability to tear down a subprocess on close or idle
// eviction, without importing the debugger package (which would create an
// import cycle, since the debugger driver is keyed by session id).
type DebuggerCloser interface {
	Close() error
}

type entry struct {
	mu      sync.Mutex
	session Session
	driver  DebuggerCloser
}

// Manager owns the lifecycle of sessions across all users: creation,
// lookup with authorization, listing, closing, restore, and idle eviction,
// per spec.md §4.4.
type Manager struct {
	root               string
	maxSessionsPerUser int
	idleTTL            time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	logger obs.Logger
}

// NewManager constructs a Manager rooted at root/sessions, enumerating any
// sessions surviving from a previous run. No debugger processes are
// spawned during this scan; surviving sessions are listed but idle until
// their next use, matching spec.md §4.4's restart semantics.
func NewManager(root string, maxSessionsPerUser int, idleTTL time.Duration) (*Manager, error) {
	dir := filepath.Join(root, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions root: %w", err)
	}

	m := &Manager{
		root:               root,
		maxSessionsPerUser: maxSessionsPerUser,
		idleTTL:            idleTTL,
		entries:            make(map[string]*entry),
		logger:             obs.NewComponentLogger("SessionManager"),
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			m.logger.Warn("skipping unreadable session file %s: %v", f.Name(), err)
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			m.logger.Warn("skipping corrupt session file %s: %v", f.Name(), err)
			continue
		}
		m.entries[sess.ID] = &entry{session: sess}
	}
	m.logger.Info("restored %d sessions from disk", len(m.entries))
	return m, nil
}

func (m *Manager) sessionPath(id string) string {
	return filepath.Join(m.root, "sessions", id+".json")
}

func (m *Manager) countForUser(userID string) int {
	n := 0
	for _, e := range m.entries {
		e.mu.Lock()
		if e.session.UserID == userID {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Create mints a new session for userID, rejecting once the user already
// holds the configured maximum number of sessions.
func (m *Manager) Create(userID string) (Session, error) {
	if err := pathsafe.ValidateComponent(userID); err != nil {
		return Session{}, apperr.Wrap(apperr.KindValidation, "invalid user id", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countForUser(userID) >= m.maxSessionsPerUser {
		return Session{}, apperr.New(apperr.KindConflict, fmt.Sprintf("user has reached the maximum number of sessions (%d)", m.maxSessionsPerUser))
	}

	now := time.Now().UTC()
	id := pathsafe.NewRandomID()
	sess := Session{
		ID:           id,
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
		ScratchDir:   filepath.Join(m.root, "sessions", id, "scratch"),
	}
	if err := os.MkdirAll(sess.ScratchDir, 0o755); err != nil {
		return Session{}, apperr.Wrap(apperr.KindTransient, "create scratch directory", err)
	}

	e := &entry{session: sess}
	if err := m.persist(e); err != nil {
		return Session{}, err
	}
	m.entries[id] = e
	return sess, nil
}

func (m *Manager) persist(e *entry) error {
	data, err := json.MarshalIndent(e.session, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "marshal session", err)
	}
	path := m.sessionPath(e.session.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.KindTransient, "write session file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperr.Wrap(apperr.KindTransient, "rename session file", err)
	}
	return nil
}

func (m *Manager) lookup(sessionID string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "session not found")
	}
	return e, nil
}

// Get returns a session, enforcing that userID matches its owner. Every
// tool call MUST funnel through this check (spec.md §4.4).
func (m *Manager) Get(sessionID, userID string) (Session, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.UserID != userID {
		return Session{}, apperr.New(apperr.KindForbidden, "user does not own this session")
	}
	return e.session, nil
}

// List returns summaries for every session owned by userID.
func (m *Manager) List(userID string) []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Summary, 0)
	for _, e := range m.entries {
		e.mu.Lock()
		if e.session.UserID == userID {
			out = append(out, e.session.summary())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Restore touches lastActivity and returns the session's current
// persisted state. It does not spawn a debugger; the caller must re-open
// its dump, per spec.md §3.
func (m *Manager) Restore(sessionID, userID string) (Session, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.UserID != userID {
		return Session{}, apperr.New(apperr.KindForbidden, "user does not own this session")
	}
	e.session.LastActivity = time.Now().UTC()
	if err := m.persist(e); err != nil {
		return Session{}, err
	}
	return e.session, nil
}

// Close terminates the session's driver, if attached, removes its
// persisted metadata, and evicts it from memory.
func (m *Manager) Close(sessionID, userID string) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.session.UserID != userID {
		e.mu.Unlock()
		return apperr.New(apperr.KindForbidden, "user does not own this session")
	}
	driver := e.driver
	scratchDir := e.session.ScratchDir
	e.mu.Unlock()

	if driver != nil {
		if err := driver.Close(); err != nil {
			m.logger.Warn("error closing debugger driver for session %s: %v", sessionID, err)
		}
	}

	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()

	if err := os.Remove(m.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.KindTransient, "remove session file", err)
	}
	if scratchDir != "" {
		os.RemoveAll(filepath.Dir(scratchDir))
	}
	return nil
}

// AttachDriver registers the debugger driver owning sessionID's
// subprocess, so a later Close or idle eviction tears it down.
func (m *Manager) AttachDriver(sessionID string, d DebuggerCloser) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.driver = d
	return nil
}

// Driver returns the debugger driver currently attached to sessionID, or
// nil if none has been attached (e.g. no dump has been opened yet).
func (m *Manager) Driver(sessionID string) (DebuggerCloser, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.driver, nil
}

// SetCurrentDump records the dump currently open in sessionID and
// advances lastActivity.
func (m *Manager) SetCurrentDump(sessionID, dumpID string) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.CurrentDumpID = dumpID
	e.session.LastActivity = time.Now().UTC()
	return m.persist(e)
}

// AddSymbolPath appends a user-added local symbol directory to the
// session, for the debugger driver's symbol path application (spec.md
// §4.3).
func (m *Manager) AddSymbolPath(sessionID, path string) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.SymbolPaths = append(e.session.SymbolPaths, path)
	e.session.LastActivity = time.Now().UTC()
	return m.persist(e)
}

// AddSymbolServer appends a user-added symbol-server URL to the session.
func (m *Manager) AddSymbolServer(sessionID, url string) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.SymbolServers = append(e.session.SymbolServers, url)
	e.session.LastActivity = time.Now().UTC()
	return m.persist(e)
}

// AddWatch appends a new watch expression to sessionID's ordered list,
// assigning it the next monotonic watchId within that session.
func (m *Manager) AddWatch(sessionID, displayName, expression string) (Watch, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return Watch{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.NextWatchID++
	w := Watch{ID: e.session.NextWatchID, DisplayName: displayName, Expression: expression}
	e.session.Watches = append(e.session.Watches, w)
	e.session.LastActivity = time.Now().UTC()
	if err := m.persist(e); err != nil {
		return Watch{}, err
	}
	return w, nil
}

// ListWatches returns sessionID's ordered watch list.
func (m *Manager) ListWatches(sessionID string) ([]Watch, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Watch, len(e.session.Watches))
	copy(out, e.session.Watches)
	return out, nil
}

// RemoveWatch deletes a single watch by id, failing with KindNotFound if no
// such watch exists in the session.
func (m *Manager) RemoveWatch(sessionID string, watchID int) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := -1
	for i, w := range e.session.Watches {
		if w.ID == watchID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.New(apperr.KindNotFound, "watch not found")
	}
	e.session.Watches = append(e.session.Watches[:idx], e.session.Watches[idx+1:]...)
	e.session.LastActivity = time.Now().UTC()
	return m.persist(e)
}

// ClearWatches empties sessionID's watch list.
func (m *Manager) ClearWatches(sessionID string) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Watches = nil
	e.session.LastActivity = time.Now().UTC()
	return m.persist(e)
}

// Touch advances lastActivity without changing any other field, called on
// every Execute/structured-helper invocation.
func (m *Manager) Touch(sessionID string) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return
	}
	e.mu.Lock()
	e.session.LastActivity = time.Now().UTC()
	e.mu.Unlock()
}

// IsDumpOpen reports whether any live session currently has dumpID open,
// implementing dumpstore.OpenSessions.
func (m *Manager) IsDumpOpen(dumpID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.mu.Lock()
		open := e.session.CurrentDumpID == dumpID
		e.mu.Unlock()
		if open {
			return true
		}
	}
	return false
}

type idleSession struct {
	id     string
	userID string
}

// Tick closes every session whose lastActivity exceeds idleTTL. Intended
// to run periodically from a background ticker goroutine.
func (m *Manager) Tick() {
	now := time.Now().UTC()

	m.mu.Lock()
	var expired []idleSession
	for id, e := range m.entries {
		e.mu.Lock()
		idle := now.Sub(e.session.LastActivity) > m.idleTTL
		userID := e.session.UserID
		e.mu.Unlock()
		if idle {
			expired = append(expired, idleSession{id: id, userID: userID})
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		if err := m.Close(s.id, s.userID); err != nil {
			m.logger.Warn("idle eviction failed for session %s: %v", s.id, err)
		} else {
			m.logger.Info("evicted idle session %s", s.id)
		}
	}
}
