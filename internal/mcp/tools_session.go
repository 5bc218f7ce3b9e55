package mcp

import (
	"context"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

func toolCreateSession(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	return d.Sessions.Create(userID)
}

func toolListSessions(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	return d.Sessions.List(userID), nil
}

func toolCloseSession(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	if err := d.Sessions.Close(sessionID, userID); err != nil {
		return nil, err
	}
	return "closed", nil
}

func toolRestoreSession(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	return d.Sessions.Restore(sessionID, userID)
}

func toolGetDebuggerInfo(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
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
			return debugger.Info{State: debugger.StateIdle}, nil
		}
		return nil, err
	}
	return drv.Info(), nil
}
