package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/analysis"
)

const barWidth = 30

// renderMarkdown builds the Markdown rendering of in, honoring opts.Summary
// and opts.IncludeWatches (spec.md §4.8).
func renderMarkdown(in Input, opts Options) string {
	var b strings.Builder

	writeHeader(&b, in.Header)
	writeCrashAnalysis(&b, in.CrashAnalysis, opts.Summary)
	writeThreadSummary(&b, in.Threads, opts.Summary)
	writeModuleSummary(&b, in.Modules, opts.Summary)
	writeTopMemoryConsumers(&b, in.TopMemoryConsumers)
	writeAsyncState(&b, in.AsyncState, opts.Summary)
	writeStringDuplicates(&b, in.StringDuplicates)
	writeHeapFragmentation(&b, in.HeapFragmentation)
	if opts.IncludeWatches {
		writeWatches(&b, in.Watches)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, h HeaderInfo) {
	fmt.Fprintf(b, "# Crash dump report\n\n")
	fmt.Fprintf(b, "- Dump: %s (%s)\n", h.DumpFileName, h.DumpID)
	fmt.Fprintf(b, "- Server: %s %s\n", h.ServerName, h.ServerVersion)
	fmt.Fprintf(b, "- Debugger: %s\n", h.DebuggerBackend)
	fmt.Fprintf(b, "- Runtime: %s\n", h.Runtime)
	fmt.Fprintf(b, "- Generated: %s\n\n", h.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}

func writeCrashAnalysis(b *strings.Builder, a analysis.Result, summary bool) {
	fmt.Fprintf(b, "## Crash analysis\n\n")
	if len(a.Sections) == 0 {
		fmt.Fprintf(b, "No crash analysis available.\n\n")
		return
	}
	for _, s := range a.Sections {
		fmt.Fprintf(b, "### %s\n\n", s.Title)
		if summary {
			fmt.Fprintf(b, "%s\n\n", firstLine(s.Text))
			continue
		}
		fmt.Fprintf(b, "```\n%s\n```\n\n", s.Text)
	}
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func writeThreadSummary(b *strings.Builder, threads []ThreadSummary, summary bool) {
	fmt.Fprintf(b, "## Threads\n\n")
	if len(threads) == 0 {
		fmt.Fprintf(b, "No threads recorded.\n\n")
		return
	}
	limit := len(threads)
	if summary && limit > 5 {
		limit = 5
	}
	fmt.Fprintf(b, "| Thread | State | Top frame |\n|---|---|---|\n")
	for _, t := range threads[:limit] {
		fmt.Fprintf(b, "| %d | %s | %s |\n", t.OSThreadID, t.State, t.TopFrame)
	}
	if limit < len(threads) {
		fmt.Fprintf(b, "\n_(%d more threads omitted)_\n", len(threads)-limit)
	}
	b.WriteString("\n")
}

func writeModuleSummary(b *strings.Builder, modules []ModuleSummary, summary bool) {
	fmt.Fprintf(b, "## Modules\n\n")
	if len(modules) == 0 {
		fmt.Fprintf(b, "No modules recorded.\n\n")
		return
	}
	limit := len(modules)
	if summary && limit > 10 {
		limit = 10
	}
	fmt.Fprintf(b, "| Module | Base | Size |\n|---|---|---|\n")
	for _, m := range modules[:limit] {
		fmt.Fprintf(b, "| %s | 0x%x | %d |\n", m.Name, m.BaseAddress, m.Size)
	}
	if limit < len(modules) {
		fmt.Fprintf(b, "\n_(%d more modules omitted)_\n", len(modules)-limit)
	}
	b.WriteString("\n")
}

func writeTopMemoryConsumers(b *strings.Builder, consumers []MemoryConsumer) {
	fmt.Fprintf(b, "## Top memory consumers\n\n")
	if len(consumers) == 0 {
		fmt.Fprintf(b, "No memory data recorded.\n\n")
		return
	}
	ranked := make([]MemoryConsumer, len(consumers))
	copy(ranked, consumers)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Bytes > ranked[j].Bytes })

	var maxBytes uint64
	for _, c := range ranked {
		if c.Bytes > maxBytes {
			maxBytes = c.Bytes
		}
	}
	fmt.Fprintf(b, "```\n")
	for _, c := range ranked {
		fmt.Fprintf(b, "%-32s %s %10d bytes (%d objects)\n", c.TypeName, asciiBar(c.Bytes, maxBytes), c.Bytes, c.Count)
	}
	fmt.Fprintf(b, "```\n\n")
}

// asciiBar renders a bar proportional to value/max within barWidth columns.
func asciiBar(value, max uint64) string {
	if max == 0 {
		return strings.Repeat(" ", barWidth)
	}
	filled := int(float64(value) / float64(max) * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(" ", barWidth-filled) + "]"
}

func writeAsyncState(b *strings.Builder, tasks []AsyncTaskState, summary bool) {
	fmt.Fprintf(b, "## Async/task state\n\n")
	if len(tasks) == 0 {
		fmt.Fprintf(b, "No pending async state machines.\n\n")
		return
	}
	limit := len(tasks)
	if summary && limit > 10 {
		limit = 10
	}
	fmt.Fprintf(b, "| Address | Type | State |\n|---|---|---|\n")
	for _, t := range tasks[:limit] {
		fmt.Fprintf(b, "| 0x%x | %s | %s |\n", t.Address, t.TypeName, t.State)
	}
	b.WriteString("\n")
}

func writeStringDuplicates(b *strings.Builder, dups []StringDuplicate) {
	fmt.Fprintf(b, "## Duplicate strings\n\n")
	if len(dups) == 0 {
		fmt.Fprintf(b, "No duplicate strings detected.\n\n")
		return
	}
	ranked := make([]StringDuplicate, len(dups))
	copy(ranked, dups)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].EstimatedBytesSaved > ranked[j].EstimatedBytesSaved })

	var total uint64
	fmt.Fprintf(b, "| Value | Occurrences | Estimated savings |\n|---|---|---|\n")
	for _, d := range ranked {
		total += d.EstimatedBytesSaved
		fmt.Fprintf(b, "| %s | %d | %d bytes |\n", truncate(d.Value, 40), d.Occurrences, d.EstimatedBytesSaved)
	}
	fmt.Fprintf(b, "\nEstimated total savings: %d bytes\n\n", total)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func writeHeapFragmentation(b *strings.Builder, gens []HeapFragmentation) {
	fmt.Fprintf(b, "## Heap fragmentation\n\n")
	if len(gens) == 0 {
		fmt.Fprintf(b, "No heap fragmentation data recorded.\n\n")
		return
	}
	fmt.Fprintf(b, "```\n")
	for _, g := range gens {
		fmt.Fprintf(b, "%-10s %s %5.1f%% free (%d/%d bytes)\n", g.GenerationName, asciiBar(g.FreeBytes, g.TotalBytes), g.FragmentPct, g.FreeBytes, g.TotalBytes)
	}
	fmt.Fprintf(b, "```\n\n")
}

func writeWatches(b *strings.Builder, watches []WatchResult) {
	fmt.Fprintf(b, "## Watches\n\n")
	if len(watches) == 0 {
		fmt.Fprintf(b, "No watches installed.\n\n")
		return
	}
	fmt.Fprintf(b, "| Name | Expression | Value |\n|---|---|---|\n")
	for _, w := range watches {
		value := w.Value
		if w.Err != "" {
			value = "error: " + w.Err
		}
		fmt.Fprintf(b, "| %s | `%s` | %s |\n", w.DisplayName, w.Expression, value)
	}
	b.WriteString("\n")
}
