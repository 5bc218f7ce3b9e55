package report

import (
	"encoding/json"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
)

// Generate renders in according to opts.Format. Callers are expected to
// hold the owning session's lock for the duration of this call, since
// report generation may issue many debugger commands upstream and the
// whole operation serializes through the session (spec.md §4.8).
func Generate(in Input, opts Options) (string, error) {
	if !opts.IncludeWatches {
		in.Watches = nil
	}
	switch opts.Format {
	case FormatMarkdown, "":
		return renderMarkdown(in, opts), nil
	case FormatHTML:
		return renderHTML(renderMarkdown(in, opts)), nil
	case FormatJSON:
		data, err := json.MarshalIndent(reportJSON{Header: in.Header, CrashAnalysis: in.CrashAnalysis, Threads: in.Threads, Modules: in.Modules, TopMemoryConsumers: in.TopMemoryConsumers, AsyncState: in.AsyncState, StringDuplicates: in.StringDuplicates, HeapFragmentation: in.HeapFragmentation, Watches: in.Watches, Summary: opts.Summary}, "", "  ")
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "marshal report", err)
		}
		return string(data), nil
	default:
		return "", apperr.New(apperr.KindValidation, "unknown report format")
	}
}

type reportJSON struct {
	Header             HeaderInfo          `json:"header"`
	CrashAnalysis      interface{}         `json:"crashAnalysis"`
	Threads            []ThreadSummary     `json:"threads"`
	Modules            []ModuleSummary     `json:"modules"`
	TopMemoryConsumers []MemoryConsumer    `json:"topMemoryConsumers"`
	AsyncState         []AsyncTaskState    `json:"asyncState"`
	StringDuplicates   []StringDuplicate   `json:"stringDuplicates"`
	HeapFragmentation  []HeapFragmentation `json:"heapFragmentation"`
	Watches            []WatchResult       `json:"watches,omitempty"`
	Summary            bool                `json:"summary"`
}
