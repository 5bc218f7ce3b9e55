package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/analysis"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/report"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/watch"
)

const serverName = "debugger-mcp-server-sub007"

// serverVersion is the version written into report headers. It stays a
// plain var (not const) so -ldflags "-X" can set it; cmd/dbgmcpd's own
// version variable is separate and is not copied here.
var serverVersion = "dev"

// toolGenerateReport and toolGenerateSummaryReport both assemble a
// report.Input from the session's current dump, driver, and analyses, then
// render it in the requested format. Summary mode sets report.Options.Summary.
func toolGenerateReport(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	return generateReport(ctx, d, args, false)
}

func toolGenerateSummaryReport(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	return generateReport(ctx, d, args, true)
}

func generateReport(ctx context.Context, d *Dispatcher, args map[string]any, forceSummary bool) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	sess, err := d.Sessions.Get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return nil, err
	}
	d.Sessions.Touch(sessionID)

	opts := report.Options{
		Format:         report.Format(argStringOpt(args, "format", string(report.FormatMarkdown))),
		Summary:        forceSummary || argBoolOpt(args, "summary", false),
		IncludeWatches: argBoolOpt(args, "includeWatches", false),
	}

	in, err := buildReportInput(ctx, d, sessionID, sess.CurrentDumpID, drv, opts)
	if err != nil {
		return nil, err
	}
	return report.Generate(in, opts)
}

func buildReportInput(ctx context.Context, d *Dispatcher, sessionID, dumpID string, drv *debugger.Driver, opts report.Options) (report.Input, error) {
	info := drv.Info()

	threadInfos, err := drv.WalkManagedStacks(ctx, nil)
	if err != nil {
		return report.Input{}, err
	}
	threads := make([]report.ThreadSummary, 0, len(threadInfos))
	for _, t := range threadInfos {
		top := ""
		if len(t.Frames) > 0 {
			top = fmt.Sprintf("0x%x", t.Frames[0])
		}
		threads = append(threads, report.ThreadSummary{OSThreadID: t.OSThreadID, State: "unknown", TopFrame: top})
	}

	moduleInfos, err := drv.ListModules(ctx)
	if err != nil {
		return report.Input{}, err
	}
	modules := make([]report.ModuleSummary, 0, len(moduleInfos))
	for _, m := range moduleInfos {
		modules = append(modules, report.ModuleSummary{Name: m.Name, BaseAddress: m.BaseAddress, Size: m.Size})
	}

	in := report.Input{
		Header: report.HeaderInfo{
			DumpID:          dumpID,
			ServerName:      serverName,
			ServerVersion:   serverVersion,
			DebuggerBackend: string(info.Backend),
			GeneratedAt:     time.Now(),
		},
		CrashAnalysis: analysis.AnalyzeCrash(ctx, drv, info.Backend),
		Threads:       threads,
		Modules:       modules,
	}

	if opts.IncludeWatches {
		results, err := watch.Eval(ctx, d.Sessions, sessionID, nil)
		if err != nil && apperr.KindOf(err) != apperr.KindConflict {
			return report.Input{}, err
		}
		for _, r := range results {
			in.Watches = append(in.Watches, report.WatchResult{
				DisplayName: r.Watch.DisplayName,
				Expression:  r.Watch.Expression,
				Value:       r.Value,
				Err:         r.Err,
			})
		}
	}

	return in, nil
}
