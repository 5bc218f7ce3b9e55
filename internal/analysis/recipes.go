package analysis

import (
	"context"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

// AnalyzeCrash runs the fixed recipe from spec.md §4.6: exception record,
// faulting thread, short and long stacks, loaded-module summary, last
// error, and (on the cdb/windbg backends) `!analyze -v`.
func AnalyzeCrash(ctx context.Context, ev Evaluator, backend debugger.Backend) Result {
	steps := []step{
		{"exception record", exceptionRecordCommand(backend)},
		{"faulting thread", "thread select -1"},
		{"short stack", "bt 8"},
		{"long stack", "bt"},
		{"loaded modules", "image list"},
		{"last error", lastErrorCommand(backend)},
	}
	if backend == debugger.BackendCDB || backend == debugger.BackendWinDbg {
		steps = append(steps, step{"!analyze -v", "!analyze -v"})
	}
	return Result{Kind: "crash", Sections: runSteps(ctx, ev, steps)}
}

func exceptionRecordCommand(backend debugger.Backend) string {
	if backend == debugger.BackendCDB || backend == debugger.BackendWinDbg {
		return ".exr -1"
	}
	return "process status"
}

func lastErrorCommand(backend debugger.Backend) string {
	if backend == debugger.BackendCDB || backend == debugger.BackendWinDbg {
		return "!gle"
	}
	return "register read"
}

// AnalyzeDotnet requires the managed-runtime helper to already be loaded
// (via its own Execute call upstream); this recipe assumes it is.
func AnalyzeDotnet(ctx context.Context, ev Evaluator) Result {
	steps := []step{
		{"threads", "clrthreads"},
		{"managed stacks (faulting first)", "clrstack -a"},
		{"heap summary", "dumpheap -stat"},
		{"exception graph", "pe -nested"},
		{"async state machines", "dumpasync"},
	}
	return Result{Kind: "dotnet", Sections: runSteps(ctx, ev, steps)}
}

// AnalyzePerf runs a managed-runtime performance-oriented recipe.
func AnalyzePerf(ctx context.Context, ev Evaluator) Result {
	steps := []step{
		{"threadpool", "threadpool"},
		{"runaway threads", "runaway"},
		{"clr threads", "clrthreads"},
	}
	return Result{Kind: "perf", Sections: runSteps(ctx, ev, steps)}
}

// AnalyzeCPU focuses on per-thread native and managed stacks to surface
// which threads are consuming CPU.
func AnalyzeCPU(ctx context.Context, ev Evaluator) Result {
	steps := []step{
		{"runaway threads", "runaway"},
		{"managed stacks", "clrstack -a"},
	}
	return Result{Kind: "cpu", Sections: runSteps(ctx, ev, steps)}
}

// AnalyzeAllocations surfaces managed heap allocation statistics.
func AnalyzeAllocations(ctx context.Context, ev Evaluator) Result {
	steps := []step{
		{"heap allocations", "dumpheap -stat"},
		{"gen0 size", "eeheap -gc"},
	}
	return Result{Kind: "allocations", Sections: runSteps(ctx, ev, steps)}
}

// AnalyzeGC surfaces garbage collector state.
func AnalyzeGC(ctx context.Context, ev Evaluator) Result {
	steps := []step{
		{"gc heap", "eeheap -gc"},
		{"gc state", "dumpheap -stat"},
	}
	return Result{Kind: "gc", Sections: runSteps(ctx, ev, steps)}
}

// AnalyzeContention fetches raw sync-block state and pairs it with the
// wait-graph built from the caller's already-parsed contention events
// (spec.md §4.6).
func AnalyzeContention(ctx context.Context, ev Evaluator, events []ContentionEvent) Result {
	sections := runSteps(ctx, ev, []step{{"sync blocks", "syncblk"}})

	graph := BuildWaitGraph(events)
	hotspots := RankHotspots(events)
	cycles := DetectDeadlocks(graph)

	sections = append(sections, Section{Title: "contended resources", Text: formatHotspots(hotspots)})
	if len(cycles) > 0 {
		sections = append(sections, Section{Title: "deadlock cycles", Text: formatCycles(cycles)})
	}
	return Result{Kind: "contention", Sections: sections}
}

func formatHotspots(hotspots []Hotspot) string {
	if len(hotspots) == 0 {
		return "no contended resources"
	}
	lines := make([]string, 0, len(hotspots))
	for _, h := range hotspots {
		lines = append(lines, string(h.Severity)+" "+h.ResourceKind)
	}
	return joinLines(lines)
}

func formatCycles(cycles []Cycle) string {
	lines := make([]string, 0, len(cycles))
	for _, c := range cycles {
		line := ""
		for i, t := range c.ThreadIDs {
			if i > 0 {
				line += " <-> "
			}
			line += t
		}
		lines = append(lines, line)
	}
	return joinLines(lines)
}

// AnalyzeSecurity walks loaded modules and flags unsigned or outdated
// versions against a caller-supplied CVE dataset, per spec.md §4.6.
func AnalyzeSecurity(modules []ModuleInfo, cveDB []CVEEntry) Result {
	var findings []string
	for _, m := range modules {
		if entry, ok := matchCVE(m.Name, cveDB); ok {
			findings = append(findings, m.Name+": "+entry.Description+" ("+entry.CVEID+")")
		}
	}
	text := "no known vulnerable modules detected"
	if len(findings) > 0 {
		text = joinLines(findings)
	}
	return Result{Kind: "security", Sections: []Section{{Title: "flagged modules", Text: text}}}
}

// CVEEntry is one record from the caller-supplied static CVE dataset used
// by AnalyzeSecurity (spec.md §4.6: "a static dataset supplied by
// caller").
type CVEEntry struct {
	ModuleName  string
	CVEID       string
	Description string
}

func matchCVE(moduleName string, db []CVEEntry) (CVEEntry, bool) {
	for _, e := range db {
		if e.ModuleName == moduleName {
			return e, true
		}
	}
	return CVEEntry{}, false
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
