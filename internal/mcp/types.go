// Package mcp implements the tool dispatcher exposed over the Model
// Context Protocol transport: argument parsing, authorization, and
// translation of results into MCP-shaped success/error envelopes, per
// spec.md §4.5.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/dumpstore"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/session"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/symbolstore"
)

// Envelope is the MCP-shaped response for every tool call: either Result
// is set (string or structured JSON body) or Error is set, never both.
type Envelope struct {
	Result interface{} `json:"result,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the error envelope shape from spec.md §4.5:
// {code, message, details?}.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ToolHandler executes one tool call's business logic.
type ToolHandler func(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error)

// Dispatcher holds every dependency the tool catalogue needs and the
// registry of handlers by tool name.
type Dispatcher struct {
	Sessions *session.Manager
	Dumps    *dumpstore.Store
	Symbols  *symbolstore.Store
	logger   obs.Logger

	handlers map[string]ToolHandler

	// crossSessionMu guards the per-session lock map used to serialize
	// two-session operations (compare_*) in a total id ordering, per
	// spec.md §5's deadlock-avoidance rule.
	crossSessionMu sync.Mutex
	sessionLocks   map[string]*sync.Mutex
}

// New constructs a Dispatcher with the full tool catalogue registered.
func New(sessions *session.Manager, dumps *dumpstore.Store, symbols *symbolstore.Store) *Dispatcher {
	d := &Dispatcher{
		Sessions:     sessions,
		Dumps:        dumps,
		Symbols:      symbols,
		logger:       obs.NewComponentLogger("MCPDispatcher"),
		sessionLocks: make(map[string]*sync.Mutex),
	}
	d.handlers = registry()
	return d
}

// Dispatch runs toolName's handler and translates its outcome to an
// Envelope. Unknown tools and handler panics never happen without an
// apperr-classified failure reaching the caller as an error envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, args map[string]any) (env Envelope) {
	h, ok := d.handlers[toolName]
	if !ok {
		return errorEnvelope(apperr.New(apperr.KindValidation, "unknown tool: "+toolName))
	}
	defer func() {
		if r := recover(); r != nil {
			env = errorEnvelope(apperr.New(apperr.KindInternal, fmt.Sprintf("tool %s panicked: %v", toolName, r)))
		}
	}()
	result, err := h(ctx, d, args)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindDebuggerDied {
			d.clearDeadDriverDump(args)
		}
		return errorEnvelope(err)
	}
	return Envelope{Result: result}
}

// clearDeadDriverDump drops the session's currentDumpId once its driver has
// reported KindDebuggerDied, so a subsequent open_dump against a fresh
// process is not rejected as a conflict (spec.md §4.3/§9).
func (d *Dispatcher) clearDeadDriverDump(args map[string]any) {
	sessionID := argStringOpt(args, "sessionId", "")
	if sessionID == "" {
		return
	}
	if err := d.Sessions.SetCurrentDump(sessionID, ""); err != nil {
		d.logger.Warn("clearing current dump for dead driver on session %s: %v", sessionID, err)
	}
}

func errorEnvelope(err error) Envelope {
	kind := apperr.KindOf(err)
	return Envelope{Error: &ErrorBody{Code: string(kind), Message: err.Error()}}
}

// driverFor returns the concrete debugger driver attached to sessionID, if
// any.
func (d *Dispatcher) driverFor(sessionID string) (*debugger.Driver, error) {
	raw, err := d.Sessions.Driver(sessionID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, apperr.New(apperr.KindConflict, "no debugger attached to this session; call open_dump first")
	}
	drv, ok := raw.(*debugger.Driver)
	if !ok {
		return nil, apperr.New(apperr.KindInternal, "attached driver has an unexpected type")
	}
	return drv, nil
}

// lockSession returns (and lazily creates) the dispatcher-level mutex used
// to serialize multi-session operations against one session id.
func (d *Dispatcher) lockSession(sessionID string) *sync.Mutex {
	d.crossSessionMu.Lock()
	defer d.crossSessionMu.Unlock()
	m, ok := d.sessionLocks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		d.sessionLocks[sessionID] = m
	}
	return m
}

// lockTwoSessions acquires both sessions' locks in a total ordering by id
// to avoid deadlocking against a concurrent comparison in the other
// direction (spec.md §5).
func (d *Dispatcher) lockTwoSessions(idA, idB string) func() {
	first, second := idA, idB
	if second < first {
		first, second = second, first
	}
	lockA := d.lockSession(first)
	lockA.Lock()
	if first == second {
		return func() { lockA.Unlock() }
	}
	lockB := d.lockSession(second)
	lockB.Lock()
	return func() {
		lockB.Unlock()
		lockA.Unlock()
	}
}
