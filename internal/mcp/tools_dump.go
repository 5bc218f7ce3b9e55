package mcp

import (
	"context"
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

// defaultToolTimeout bounds execute_command when the caller does not
// override it. It equals the configuration's default ToolTimeout (300s) but
// is a fixed constant: a ToolTimeout set through the config file or the
// environment does not reach it.
const defaultToolTimeout = 300 * time.Second

// toolOpenDump spawns the session's debugger driver (lazily, only here —
// never at session creation, per DESIGN.md's Open Question decision #2)
// against the given dump, combining the dump's own symbol search path
// with whatever the session has accumulated.
func toolOpenDump(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	dumpID, err := argString(args, "dumpId")
	if err != nil {
		return nil, err
	}

	sess, err := d.Sessions.Get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if sess.CurrentDumpID != "" {
		return nil, apperr.New(apperr.KindConflict, "a dump is already open on this session")
	}
	path, err := d.Dumps.Path(userID, dumpID)
	if err != nil {
		return nil, err
	}

	searchPath, err := d.Symbols.SearchPath(dumpID)
	if err != nil {
		return nil, err
	}
	searchPath = append(searchPath, sess.SymbolPaths...)
	searchPath = append(searchPath, sess.SymbolServers...)

	drv := debugger.New(sessionID)
	if err := drv.Open(ctx, path, searchPath); err != nil {
		return nil, err
	}
	if err := d.Sessions.AttachDriver(sessionID, drv); err != nil {
		drv.Close()
		return nil, err
	}
	if err := d.Sessions.SetCurrentDump(sessionID, dumpID); err != nil {
		return nil, err
	}
	return drv.Info(), nil
}

func toolCloseDump(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return "no dump was open", nil
		}
		return nil, err
	}
	if err := drv.Close(); err != nil {
		return nil, err
	}
	if err := d.Sessions.SetCurrentDump(sessionID, ""); err != nil {
		return nil, err
	}
	return "closed", nil
}

func toolExecuteCommand(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	command, err := argString(args, "command")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return nil, err
	}
	d.Sessions.Touch(sessionID)
	timeout := defaultToolTimeout
	if overrideSeconds := argIntOpt(args, "timeoutSeconds", 0); overrideSeconds > 0 {
		timeout = time.Duration(overrideSeconds) * time.Second
	}
	return drv.Execute(ctx, command, timeout)
}
