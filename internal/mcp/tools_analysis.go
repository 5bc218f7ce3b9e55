package mcp

import (
	"context"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/analysis"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

// sessionAndDriver resolves and authorizes sessionId/userId and returns the
// attached driver, touching the session's last-activity timestamp. Every
// analyze_* handler shares this preamble.
func sessionAndDriver(d *Dispatcher, args map[string]any) (string, *debugger.Driver, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return "", nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return "", nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return "", nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return "", nil, err
	}
	d.Sessions.Touch(sessionID)
	return sessionID, drv, nil
}

func toolAnalyzeCrash(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeCrash(ctx, drv, drv.Info().Backend), nil
}

func toolAnalyzeDotnet(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeDotnet(ctx, drv), nil
}

func toolAnalyzePerf(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzePerf(ctx, drv), nil
}

func toolAnalyzeCPU(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeCPU(ctx, drv), nil
}

func toolAnalyzeAllocations(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeAllocations(ctx, drv), nil
}

func toolAnalyzeGC(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeGC(ctx, drv), nil
}

// toolAnalyzeContention expects the caller to supply already-extracted
// contention events; parsing raw debugger lock-inspection output into that
// structured form is a debugger-specific concern left to the client.
func toolAnalyzeContention(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	events, err := argContentionEvents(args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeContention(ctx, drv, events), nil
}

// toolAnalyzeSecurity matches the session's known loaded modules against a
// caller-supplied CVE dataset; no built-in CVE feed is maintained server
// side.
func toolAnalyzeSecurity(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	_, drv, err := sessionAndDriver(d, args)
	if err != nil {
		return nil, err
	}
	modules, err := drv.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	cveDB, err := argCVEEntries(args)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeSecurity(modules, cveDB), nil
}

func argContentionEvents(args map[string]any) ([]analysis.ContentionEvent, error) {
	raw, ok := args["events"]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "events must be an array")
	}
	out := make([]analysis.ContentionEvent, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, apperr.New(apperr.KindValidation, "each event must be an object")
		}
		waiter, err := argUint64(m, "waiterThreadId")
		if err != nil {
			return nil, err
		}
		resourceAddr, err := argUint64(m, "resourceAddr")
		if err != nil {
			return nil, err
		}
		ev := analysis.ContentionEvent{
			WaiterThreadID: uint32(waiter),
			ResourceAddr:   resourceAddr,
			ResourceKind:   argStringOpt(m, "resourceKind", "lock"),
		}
		if ownerRaw, ok := m["ownerThreadId"]; ok {
			owner, err := argUint64(map[string]any{"ownerThreadId": ownerRaw}, "ownerThreadId")
			if err != nil {
				return nil, err
			}
			ev.OwnerThreadID = uint32(owner)
			ev.HasOwner = true
		}
		out = append(out, ev)
	}
	return out, nil
}

func argCVEEntries(args map[string]any) ([]analysis.CVEEntry, error) {
	raw, ok := args["cveDatabase"]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "cveDatabase must be an array")
	}
	out := make([]analysis.CVEEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, apperr.New(apperr.KindValidation, "each cve entry must be an object")
		}
		moduleName, err := argString(m, "moduleName")
		if err != nil {
			return nil, err
		}
		cveID, err := argString(m, "cveId")
		if err != nil {
			return nil, err
		}
		out = append(out, analysis.CVEEntry{
			ModuleName:  moduleName,
			CVEID:       cveID,
			Description: argStringOpt(m, "description", ""),
		})
	}
	return out, nil
}
