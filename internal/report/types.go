// Package report packages the results of prior analyses into one
// document, rendered as Markdown, HTML, or JSON, per spec.md §4.8.
package report

import (
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/analysis"
)

// Format selects the report's rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Options controls report verbosity and content.
type Options struct {
	Format         Format
	Summary        bool // shorter report: crash-analysis sections cut to their first line, thread/module/async tables capped; other sections unchanged
	IncludeWatches bool
}

// HeaderInfo is the report's fixed preamble: which dump, which server, which
// debugger backend, and the inspected process's runtime.
type HeaderInfo struct {
	DumpID          string    `json:"dumpId"`
	DumpFileName    string    `json:"dumpFileName"`
	ServerName      string    `json:"serverName"`
	ServerVersion   string    `json:"serverVersion"`
	DebuggerBackend string    `json:"debuggerBackend"`
	Runtime         string    `json:"runtime"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// ThreadSummary is one row of the thread summary table.
type ThreadSummary struct {
	OSThreadID uint32 `json:"osThreadId"`
	State      string `json:"state"`
	TopFrame   string `json:"topFrame"`
}

// ModuleSummary is one row of the module summary table.
type ModuleSummary struct {
	Name        string `json:"name"`
	BaseAddress uint64 `json:"baseAddress"`
	Size        uint64 `json:"size"`
}

// MemoryConsumer is one entry in the top-N memory consumers list.
type MemoryConsumer struct {
	TypeName string `json:"typeName"`
	Bytes    uint64 `json:"bytes"`
	Count    int    `json:"count"`
}

// AsyncTaskState is one async/task state-machine's status.
type AsyncTaskState struct {
	Address  uint64 `json:"address"`
	TypeName string `json:"typeName"`
	State    string `json:"state"`
}

// StringDuplicate is one group of identical managed strings found more
// than once, with the bytes that would be saved by interning them.
type StringDuplicate struct {
	Value               string `json:"value"`
	Occurrences         int    `json:"occurrences"`
	EstimatedBytesSaved uint64 `json:"estimatedBytesSaved"`
}

// HeapFragmentation summarizes generation-0/1/2 and large-object-heap
// fragmentation.
type HeapFragmentation struct {
	GenerationName string  `json:"generationName"`
	FreeBytes      uint64  `json:"freeBytes"`
	TotalBytes     uint64  `json:"totalBytes"`
	FragmentPct    float64 `json:"fragmentPct"`
}

// WatchResult is one evaluated watch expression included when
// IncludeWatches is set.
type WatchResult struct {
	DisplayName string `json:"displayName"`
	Expression  string `json:"expression"`
	Value       string `json:"value"`
	Err         string `json:"err,omitempty"`
}

// Input is everything a report needs, already extracted by the caller's
// prior analyses and structured helpers (spec.md §4.8: the report
// "packages prior analyses into one document").
type Input struct {
	Header             HeaderInfo
	CrashAnalysis      analysis.Result
	Threads            []ThreadSummary
	Modules            []ModuleSummary
	TopMemoryConsumers []MemoryConsumer
	AsyncState         []AsyncTaskState
	StringDuplicates   []StringDuplicate
	HeapFragmentation  []HeapFragmentation
	Watches            []WatchResult
}
