package mcp

import (
	"context"
	"testing"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/session"
)

func TestOpenDumpRejectsSecondOpenOnSameSession(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	sess := createEnv.Result.(session.Session)

	if err := d.Sessions.SetCurrentDump(sess.ID, "already-open-dump"); err != nil {
		t.Fatalf("seed current dump: %v", err)
	}

	env := d.Dispatch(ctx, "open_dump", map[string]any{
		"sessionId": sess.ID, "userId": "alice", "dumpId": "a-second-dump",
	})
	if env.Error == nil {
		t.Fatal("expected a conflict opening a second dump on the same session")
	}
	if env.Error.Code != string(apperr.KindConflict) {
		t.Fatalf("expected conflict, got %q", env.Error.Code)
	}
}

func TestClearDeadDriverDumpClearsCurrentDumpID(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	sess := createEnv.Result.(session.Session)

	if err := d.Sessions.SetCurrentDump(sess.ID, "some-dump"); err != nil {
		t.Fatalf("seed current dump: %v", err)
	}

	d.clearDeadDriverDump(map[string]any{"sessionId": sess.ID})

	got, err := d.Sessions.Get(sess.ID, "alice")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.CurrentDumpID != "" {
		t.Fatalf("expected currentDumpId cleared, got %q", got.CurrentDumpID)
	}
}

func TestDispatchClearsCurrentDumpOnDebuggerDied(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	sess := createEnv.Result.(session.Session)

	if err := d.Sessions.SetCurrentDump(sess.ID, "some-dump"); err != nil {
		t.Fatalf("seed current dump: %v", err)
	}

	d.handlers["fake_died_tool"] = func(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
		return nil, apperr.New(apperr.KindDebuggerDied, "debugger process has died")
	}

	env := d.Dispatch(ctx, "fake_died_tool", map[string]any{"sessionId": sess.ID})
	if env.Error == nil || env.Error.Code != string(apperr.KindDebuggerDied) {
		t.Fatalf("expected a debugger-died error envelope, got %+v", env)
	}

	got, err := d.Sessions.Get(sess.ID, "alice")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.CurrentDumpID != "" {
		t.Fatalf("expected currentDumpId cleared after a debugger-died error, got %q", got.CurrentDumpID)
	}
}
