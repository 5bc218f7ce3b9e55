package mcp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/dumpstore"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/session"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/symbolstore"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	root := t.TempDir()

	sessions, err := session.NewManager(root, 5, time.Hour)
	if err != nil {
		t.Fatalf("new session manager: %v", err)
	}
	dumps, err := dumpstore.New(root, sessions)
	if err != nil {
		t.Fatalf("new dump store: %v", err)
	}
	symbols, err := symbolstore.New(root)
	if err != nil {
		t.Fatalf("new symbol store: %v", err)
	}
	return New(sessions, dumps, symbols)
}

func TestDispatchUnknownTool(t *testing.T) {
	d := newTestDispatcher(t)
	env := d.Dispatch(context.Background(), "does_not_exist", nil)
	if env.Error == nil {
		t.Fatal("expected an error envelope for an unknown tool")
	}
	if env.Error.Code != string(apperr.KindValidation) {
		t.Fatalf("expected validation error, got %q", env.Error.Code)
	}
}

func TestDispatchMissingArgument(t *testing.T) {
	d := newTestDispatcher(t)
	env := d.Dispatch(context.Background(), "create_session", map[string]any{})
	if env.Error == nil {
		t.Fatal("expected an error envelope for a missing userId")
	}
}

func TestCreateListCloseSessionRoundTrip(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	if createEnv.Error != nil {
		t.Fatalf("create_session failed: %+v", createEnv.Error)
	}
	sess, ok := createEnv.Result.(session.Session)
	if !ok {
		t.Fatalf("expected a session.Session result, got %T", createEnv.Result)
	}

	listEnv := d.Dispatch(ctx, "list_sessions", map[string]any{"userId": "alice"})
	if listEnv.Error != nil {
		t.Fatalf("list_sessions failed: %+v", listEnv.Error)
	}
	summaries, ok := listEnv.Result.([]session.Summary)
	if !ok || len(summaries) != 1 {
		t.Fatalf("expected one session summary, got %#v", listEnv.Result)
	}

	closeEnv := d.Dispatch(ctx, "close_session", map[string]any{"sessionId": sess.ID, "userId": "alice"})
	if closeEnv.Error != nil {
		t.Fatalf("close_session failed: %+v", closeEnv.Error)
	}
}

func TestDispatchRejectsWrongOwner(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	sess := createEnv.Result.(session.Session)

	env := d.Dispatch(ctx, "get_debugger_info", map[string]any{"sessionId": sess.ID, "userId": "mallory"})
	if env.Error == nil {
		t.Fatal("expected an authorization error for a mismatched owner")
	}
	if env.Error.Code != string(apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %q", env.Error.Code)
	}
}

func TestGetDebuggerInfoIdleBeforeOpenDump(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	sess := createEnv.Result.(session.Session)

	env := d.Dispatch(ctx, "get_debugger_info", map[string]any{"sessionId": sess.ID, "userId": "alice"})
	if env.Error != nil {
		t.Fatalf("expected idle info, not an error: %+v", env.Error)
	}
}

func TestWatchToolsLifecycle(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	sess := createEnv.Result.(session.Session)
	args := map[string]any{"sessionId": sess.ID, "userId": "alice"}

	addArgs := map[string]any{"sessionId": sess.ID, "userId": "alice", "expression": "0x1000:16"}
	addEnv := d.Dispatch(ctx, "add_watch", addArgs)
	if addEnv.Error != nil {
		t.Fatalf("add_watch failed: %+v", addEnv.Error)
	}

	listEnv := d.Dispatch(ctx, "list_watches", args)
	if listEnv.Error != nil {
		t.Fatalf("list_watches failed: %+v", listEnv.Error)
	}
	watches, ok := listEnv.Result.([]session.Watch)
	if !ok || len(watches) != 1 {
		t.Fatalf("expected one watch, got %#v", listEnv.Result)
	}

	clearEnv := d.Dispatch(ctx, "clear_watches", args)
	if clearEnv.Error != nil {
		t.Fatalf("clear_watches failed: %+v", clearEnv.Error)
	}
}

func TestLockTwoSessionsOrdersConsistentlyAndUnlocks(t *testing.T) {
	d := newTestDispatcher(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := d.lockTwoSessions("session-b", "session-a")
			unlock()
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := d.lockTwoSessions("session-a", "session-b")
			unlock()
		}()
	}
	wg.Wait()
}

func TestLockTwoSessionsSameIDDoesNotDeadlock(t *testing.T) {
	d := newTestDispatcher(t)
	unlock := d.lockTwoSessions("same", "same")
	unlock()
}

func TestExecuteCommandRequiresOpenDump(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	sess := createEnv.Result.(session.Session)

	env := d.Dispatch(ctx, "execute_command", map[string]any{
		"sessionId": sess.ID, "userId": "alice", "command": "threads",
	})
	if env.Error == nil {
		t.Fatal("expected an error executing a command with no dump open")
	}
	if env.Error.Code != string(apperr.KindConflict) {
		t.Fatalf("expected conflict, got %q", env.Error.Code)
	}
}
