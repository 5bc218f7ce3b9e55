package mcp

import (
	"context"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/analysis"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

// compareTarget names one side of a two-dump comparison: a session already
// holding an open dump to pull fresh data from.
type compareTarget struct {
	sessionID string
	userID    string
}

func argCompareTarget(args map[string]any, prefix string) (compareTarget, error) {
	sessionID, err := argString(args, prefix+"SessionId")
	if err != nil {
		return compareTarget{}, err
	}
	userID, err := argString(args, prefix+"UserId")
	if err != nil {
		return compareTarget{}, err
	}
	return compareTarget{sessionID: sessionID, userID: userID}, nil
}

// resolveCompareDrivers authorizes and locks both sides of a comparison in
// a total id ordering (spec.md §5), returning both drivers and an unlock
// function the caller must defer.
func resolveCompareDrivers(d *Dispatcher, baseline, target compareTarget) (*debugger.Driver, *debugger.Driver, func(), error) {
	if _, err := d.Sessions.Get(baseline.sessionID, baseline.userID); err != nil {
		return nil, nil, nil, err
	}
	if _, err := d.Sessions.Get(target.sessionID, target.userID); err != nil {
		return nil, nil, nil, err
	}
	unlock := d.lockTwoSessions(baseline.sessionID, target.sessionID)

	baseDrv, err := d.driverFor(baseline.sessionID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	targetDrv, err := d.driverFor(target.sessionID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	return baseDrv, targetDrv, unlock, nil
}

func toolCompareThreads(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	baseline, err := argCompareTarget(args, "baseline")
	if err != nil {
		return nil, err
	}
	target, err := argCompareTarget(args, "target")
	if err != nil {
		return nil, err
	}
	baseDrv, targetDrv, unlock, err := resolveCompareDrivers(d, baseline, target)
	if err != nil {
		return nil, err
	}
	defer unlock()

	before, err := baseDrv.WalkManagedStacks(ctx, nil)
	if err != nil {
		return nil, err
	}
	after, err := targetDrv.WalkManagedStacks(ctx, nil)
	if err != nil {
		return nil, err
	}
	return analysis.CompareThreadCounts(before, after), nil
}

func toolCompareModules(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	baseline, err := argCompareTarget(args, "baseline")
	if err != nil {
		return nil, err
	}
	target, err := argCompareTarget(args, "target")
	if err != nil {
		return nil, err
	}
	baseDrv, targetDrv, unlock, err := resolveCompareDrivers(d, baseline, target)
	if err != nil {
		return nil, err
	}
	defer unlock()

	before, err := baseDrv.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	after, err := targetDrv.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.CompareModules(before, after), nil
}

// toolCompareHeaps expects caller-supplied `dumpheap -stat`-shaped
// snapshots for both sides; the server extracts modules/threads itself but
// has no managed-heap statistics parser (spec.md §4.6 scopes heap
// comparison as "a pure function over data extracted by the same helpers
// used for single-dump analyses", and no such helper exists for heap
// stats here).
func toolCompareHeaps(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	baseline, err := argCompareTarget(args, "baseline")
	if err != nil {
		return nil, err
	}
	target, err := argCompareTarget(args, "target")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(baseline.sessionID, baseline.userID); err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(target.sessionID, target.userID); err != nil {
		return nil, err
	}
	unlock := d.lockTwoSessions(baseline.sessionID, target.sessionID)
	defer unlock()

	before, err := argHeapStats(args, "baselineHeap")
	if err != nil {
		return nil, err
	}
	after, err := argHeapStats(args, "targetHeap")
	if err != nil {
		return nil, err
	}
	return analysis.CompareHeap(before, after), nil
}

// toolCompareDumps runs every comparison that can be computed from driver
// data alone (threads, modules), plus heap if the caller supplied
// snapshots.
func toolCompareDumps(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	baseline, err := argCompareTarget(args, "baseline")
	if err != nil {
		return nil, err
	}
	target, err := argCompareTarget(args, "target")
	if err != nil {
		return nil, err
	}
	baseDrv, targetDrv, unlock, err := resolveCompareDrivers(d, baseline, target)
	if err != nil {
		return nil, err
	}
	defer unlock()

	beforeThreads, err := baseDrv.WalkManagedStacks(ctx, nil)
	if err != nil {
		return nil, err
	}
	afterThreads, err := targetDrv.WalkManagedStacks(ctx, nil)
	if err != nil {
		return nil, err
	}
	beforeModules, err := baseDrv.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	afterModules, err := targetDrv.ListModules(ctx)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"threads": analysis.CompareThreadCounts(beforeThreads, afterThreads),
		"modules": analysis.CompareModules(beforeModules, afterModules),
	}
	if _, hasBaselineHeap := args["baselineHeap"]; hasBaselineHeap {
		beforeHeap, err := argHeapStats(args, "baselineHeap")
		if err != nil {
			return nil, err
		}
		afterHeap, err := argHeapStats(args, "targetHeap")
		if err != nil {
			return nil, err
		}
		result["heap"] = analysis.CompareHeap(beforeHeap, afterHeap)
	}
	return result, nil
}

func argHeapStats(args map[string]any, key string) ([]analysis.HeapTypeStat, error) {
	raw, ok := args[key]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, apperr.New(apperr.KindValidation, key+" must be an array")
	}
	out := make([]analysis.HeapTypeStat, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, apperr.New(apperr.KindValidation, "each "+key+" entry must be an object")
		}
		typeName, err := argString(m, "typeName")
		if err != nil {
			return nil, err
		}
		count := argIntOpt(m, "count", 0)
		bytesVal, err := argUint64(m, "bytes")
		if err != nil {
			return nil, err
		}
		out = append(out, analysis.HeapTypeStat{TypeName: typeName, Count: count, Bytes: bytesVal})
	}
	return out, nil
}
