package mcp

import "context"

// toolConfigureAdditionalSymbols appends a path or server URL to the
// session's symbol configuration and, if a dump is currently open,
// immediately reloads the driver's symbol search path so the change takes
// effect without requiring a reopen.
func toolConfigureAdditionalSymbols(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
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

	if path := argStringOpt(args, "path", ""); path != "" {
		if err := d.Sessions.AddSymbolPath(sessionID, path); err != nil {
			return nil, err
		}
	}
	if serverURL := argStringOpt(args, "serverUrl", ""); serverURL != "" {
		if err := d.Sessions.AddSymbolServer(sessionID, serverURL); err != nil {
			return nil, err
		}
	}

	if err := reloadAttachedSymbols(ctx, d, sessionID, userID); err != nil {
		return nil, err
	}
	return "symbol configuration updated", nil
}

// toolReloadSymbols re-applies the session's full combined symbol search
// path (dump-scoped uploads plus session-level paths/servers) against the
// currently attached driver.
func toolReloadSymbols(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
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
	if err := reloadAttachedSymbols(ctx, d, sessionID, userID); err != nil {
		return nil, err
	}
	return "symbols reloaded", nil
}

func reloadAttachedSymbols(ctx context.Context, d *Dispatcher, sessionID, userID string) error {
	sess, err := d.Sessions.Get(sessionID, userID)
	if err != nil {
		return err
	}
	drv, derr := d.driverFor(sessionID)
	if derr != nil {
		// No dump open yet; nothing to reload against.
		return nil
	}
	searchPath, serr := d.Symbols.SearchPath(sess.CurrentDumpID)
	if serr != nil {
		return serr
	}
	searchPath = append(searchPath, sess.SymbolPaths...)
	searchPath = append(searchPath, sess.SymbolServers...)
	return drv.ReloadSymbols(ctx, searchPath)
}

// toolClearSymbolCache removes every uploaded symbol file for a dump.
func toolClearSymbolCache(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	dumpID, err := argString(args, "dumpId")
	if err != nil {
		return nil, err
	}
	if err := d.Symbols.Clear(dumpID); err != nil {
		return nil, err
	}
	return "symbol cache cleared", nil
}
