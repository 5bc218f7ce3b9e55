// Package watch evaluates a session's installed watch expressions,
// routing each one through the debugger's command protocol or through a
// direct memory read, per spec.md §4.7.
package watch

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/session"
)

// defaultEvalTimeout bounds each command-style watch's debugger round trip.
const defaultEvalTimeout = 10 * time.Second

// defaultReadBytes is how much memory a bare-address watch reads when the
// expression does not specify a length.
const defaultReadBytes = 32

// Evaluator is the subset of *debugger.Driver a watch evaluation needs.
// Defined here, rather than imported, so this package depends on
// internal/debugger only through this narrow seam.
type Evaluator interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (string, error)
	ReadMemory(addr uint64, n int) ([]byte, bool)
}

// Result is one watch's evaluation outcome.
type Result struct {
	Watch session.Watch
	Value string
	Err   string
}

// Manager is the subset of *session.Manager the evaluator needs to resolve
// a session's attached driver and watch list.
type Manager interface {
	ListWatches(sessionID string) ([]session.Watch, error)
	Driver(sessionID string) (session.DebuggerCloser, error)
}

// Eval evaluates watches for sessionID. If watchID is non-nil, only that
// watch is evaluated and the returned slice has at most one element;
// otherwise every watch is evaluated in list order.
func Eval(ctx context.Context, mgr Manager, sessionID string, watchID *int) ([]Result, error) {
	all, err := mgr.ListWatches(sessionID)
	if err != nil {
		return nil, err
	}

	var targets []session.Watch
	if watchID == nil {
		targets = all
	} else {
		for _, w := range all {
			if w.ID == *watchID {
				targets = []session.Watch{w}
				break
			}
		}
		if len(targets) == 0 {
			return nil, apperr.New(apperr.KindNotFound, "watch not found")
		}
	}

	rawDriver, err := mgr.Driver(sessionID)
	if err != nil {
		return nil, err
	}
	if rawDriver == nil {
		return nil, apperr.New(apperr.KindConflict, "no debugger attached to this session")
	}
	ev, ok := rawDriver.(Evaluator)
	if !ok {
		return nil, apperr.New(apperr.KindInternal, "attached driver does not support evaluation")
	}

	results := make([]Result, 0, len(targets))
	for _, w := range targets {
		results = append(results, evalOne(ctx, ev, w))
	}
	return results, nil
}

func evalOne(ctx context.Context, ev Evaluator, w session.Watch) Result {
	addr, length, isAddress := parseAddressExpression(w.Expression)
	if isAddress {
		data, ok := ev.ReadMemory(addr, length)
		if !ok {
			return Result{Watch: w, Err: "address not mapped in dump"}
		}
		return Result{Watch: w, Value: formatBytes(addr, data)}
	}

	out, err := ev.Execute(ctx, w.Expression, defaultEvalTimeout)
	if err != nil {
		return Result{Watch: w, Err: err.Error()}
	}
	return Result{Watch: w, Value: out}
}

// parseAddressExpression recognizes "0x<hex>" and "0x<hex>:<len>" forms as
// memory-read watches. Anything else is treated as a debugger command.
func parseAddressExpression(expr string) (addr uint64, length int, ok bool) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "0x") && !strings.HasPrefix(expr, "0X") {
		return 0, 0, false
	}
	hexPart := expr[2:]
	length = defaultReadBytes
	if idx := strings.IndexByte(hexPart, ':'); idx >= 0 {
		n, err := strconv.Atoi(hexPart[idx+1:])
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		length = n
		hexPart = hexPart[:idx]
	}
	parsed, err := strconv.ParseUint(hexPart, 16, 64)
	if err != nil {
		return 0, 0, false
	}
	return parsed, length, true
}

func formatBytes(addr uint64, data []byte) string {
	return fmt.Sprintf("0x%x: %s", addr, hex.EncodeToString(data))
}
