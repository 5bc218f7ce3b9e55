package mcp

import (
	"context"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/watch"
)

func toolAddWatch(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	expression, err := argString(args, "expression")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	displayName := argStringOpt(args, "displayName", expression)
	return d.Sessions.AddWatch(sessionID, displayName, expression)
}

func toolListWatches(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
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
	return d.Sessions.ListWatches(sessionID)
}

// toolEvalWatches evaluates every watch (no watchId given) or a single
// watch (watchId given), covering both `eval_watch` and `eval_watches`
// from spec.md §4.5's catalogue — the distinction is just whether watchId
// is present.
func toolEvalWatches(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
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
	watchID := argIntPtrOpt(args, "watchId")
	d.Sessions.Touch(sessionID)
	return watch.Eval(ctx, d.Sessions, sessionID, watchID)
}

func toolRemoveWatch(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	watchID, err := argUint64(args, "watchId")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	if err := d.Sessions.RemoveWatch(sessionID, int(watchID)); err != nil {
		return nil, err
	}
	return "removed", nil
}

func toolClearWatches(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
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
	if err := d.Sessions.ClearWatches(sessionID); err != nil {
		return nil, err
	}
	return "cleared", nil
}
