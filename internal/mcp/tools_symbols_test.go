package mcp

import (
	"context"
	"testing"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/session"
)

func TestConfigureAdditionalSymbolsWithoutOpenDump(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	createEnv := d.Dispatch(ctx, "create_session", map[string]any{"userId": "alice"})
	if createEnv.Error != nil {
		t.Fatalf("create_session failed: %+v", createEnv.Error)
	}
	sess := createEnv.Result.(session.Session)

	env := d.Dispatch(ctx, "configure_additional_symbols", map[string]any{
		"sessionId": sess.ID, "userId": "alice", "path": "/tmp/symbols",
	})
	if env.Error != nil {
		t.Fatalf("configure_additional_symbols failed: %+v", env.Error)
	}

	listed, err := d.Sessions.Get(sess.ID, "alice")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(listed.SymbolPaths) != 1 || listed.SymbolPaths[0] != "/tmp/symbols" {
		t.Fatalf("expected one recorded symbol path, got %#v", listed.SymbolPaths)
	}
}

func TestClearSymbolCacheMissingDumpID(t *testing.T) {
	d := newTestDispatcher(t)
	env := d.Dispatch(context.Background(), "clear_symbol_cache", map[string]any{})
	if env.Error == nil {
		t.Fatal("expected an error for a missing dumpId")
	}
}
