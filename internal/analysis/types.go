// Package analysis implements the analysis orchestrators: deterministic
// recipes of debugger operations packaged into structured results, the
// contention wait-graph and deadlock detector, and pure dump-comparison
// functions, per spec.md §4.6.
package analysis

import (
	"context"
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

// Section is one titled, freeform chunk of an analysis result, matching
// how the debugger's own command output is organized.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Result is a full analysis: an ordered list of sections.
type Result struct {
	Kind     string    `json:"kind"`
	Sections []Section `json:"sections"`
}

// Evaluator is the narrow surface an analysis orchestrator needs from a
// debugger driver: running one command with a bounded timeout.
type Evaluator interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (string, error)
}

const defaultStepTimeout = 30 * time.Second

// runSteps executes each command in order against ev, turning failures
// into a section whose text records the error rather than aborting the
// whole analysis, so one broken recipe step doesn't blank out the rest.
func runSteps(ctx context.Context, ev Evaluator, steps []step) []Section {
	sections := make([]Section, 0, len(steps))
	for _, st := range steps {
		out, err := ev.Execute(ctx, st.command, defaultStepTimeout)
		if err != nil {
			sections = append(sections, Section{Title: st.title, Text: "error: " + err.Error()})
			continue
		}
		sections = append(sections, Section{Title: st.title, Text: out})
	}
	return sections
}

type step struct {
	title   string
	command string
}

// ModuleInfo and ThreadInfo are re-exported so analysis.Compare callers do
// not need to import internal/debugger directly for snapshot arguments.
type ModuleInfo = debugger.ModuleInfo
type ThreadInfo = debugger.ThreadInfo
