package debugger

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
)

const lldbPrompt = "(lldb) "
const sentinelToken = "END"

var tracer = otel.Tracer("debugger")

// Driver owns exactly one child debugger process and one request queue for
// a single session, per spec.md §4.3.
type Driver struct {
	sessionID string
	dumpPath  string
	backend   Backend

	mu           sync.Mutex
	state        State
	proc         *process
	reader       *bufio.Reader
	lastActivity time.Time
	mem          *memoryReader
	modules      []ModuleInfo
	threads      []ThreadInfo

	// execMu serializes Execute calls against this driver's single
	// request/response stdio protocol: concurrent tool calls targeting the
	// same session queue here rather than interleaving reads on the
	// subprocess's stdout (spec.md §4.5's concurrency requirement).
	execMu sync.Mutex

	logger obs.Logger
}

// New creates a driver for one session. The subprocess is not started
// until Open is called.
func New(sessionID string) *Driver {
	return &Driver{
		sessionID: sessionID,
		state:     StateIdle,
		backend:   detectBackend(),
		logger:    obs.NewComponentLogger("Debugger"),
	}
}

// DetectBackend reports which native debugger backend this host would use,
// for the HTTP capabilities endpoint to surface without spawning a driver.
func DetectBackend() Backend {
	return detectBackend()
}

func detectBackend() Backend {
	switch runtime.GOOS {
	case "windows":
		return BackendCDB
	case "linux", "darwin":
		return BackendLLDB
	default:
		return BackendUnknown
	}
}

func hashSessionID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:16]
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Info returns advisory driver status for get_debugger_info.
func (d *Driver) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := Info{State: d.state, Backend: d.backend, LastActivity: d.lastActivity}
	if d.proc != nil {
		info.PID = d.proc.PID()
	}
	return info
}

// Open spawns the debugger subprocess against dumpPath and builds the
// in-memory region table used by the structured helpers. Transitions
// Idle → Loading → Ready/Idle per spec.md §4.3's state table.
func (d *Driver) Open(ctx context.Context, dumpPath string, searchPath []string) error {
	ctx, span := tracer.Start(ctx, "debugger.open", trace.WithAttributes(
		attribute.String("session.hash", hashSessionID(d.sessionID)),
	))
	defer span.End()

	d.mu.Lock()
	if d.state == StateFailed {
		d.state = StateIdle
	}
	if d.state != StateIdle {
		d.mu.Unlock()
		span.SetStatus(codes.Error, "invalid state for open")
		return apperr.New(apperr.KindConflict, "driver is not idle")
	}
	d.state = StateLoading
	d.dumpPath = dumpPath
	d.mu.Unlock()

	mem, err := openMemoryReader(dumpPath)
	if err != nil {
		d.mu.Lock()
		d.state = StateIdle
		d.mu.Unlock()
		span.SetStatus(codes.Error, err.Error())
		return apperr.Wrap(apperr.KindFormatInvalid, "open dump for inspection", err)
	}

	modules, threads, derr := extractModulesAndThreads(mem)
	if derr != nil {
		d.logger.Warn("structured extraction incomplete for session %s: %v", d.sessionID, derr)
	}

	proc := newProcess(processConfig{Command: backendCommand(d.backend), Args: backendArgs(d.backend, dumpPath)})
	if err := proc.Start(ctx); err != nil {
		d.mu.Lock()
		d.state = StateIdle
		d.mu.Unlock()
		span.SetStatus(codes.Error, err.Error())
		return apperr.Wrap(apperr.KindDebuggerDied, "spawn debugger process", err)
	}

	d.mu.Lock()
	d.proc = proc
	d.reader = bufio.NewReader(proc.Stdout())
	d.mem = mem
	d.modules = modules
	d.threads = threads
	d.state = StateReady
	d.lastActivity = time.Now()
	d.mu.Unlock()

	if err := d.applySymbolPath(ctx, searchPath); err != nil {
		d.logger.Warn("symbol path application failed for session %s: %v", d.sessionID, err)
	}
	return nil
}

func backendCommand(b Backend) string {
	switch b {
	case BackendLLDB:
		return "lldb"
	case BackendCDB:
		return "cdb.exe"
	case BackendWinDbg:
		return "windbg.exe"
	default:
		return "lldb"
	}
}

func backendArgs(b Backend, dumpPath string) []string {
	switch b {
	case BackendLLDB:
		return []string{"--core", dumpPath, "--batch"}
	case BackendCDB:
		return []string{"-z", dumpPath}
	default:
		return []string{dumpPath}
	}
}

// applySymbolPath sets the debugger's symbol search path to local
// directories first, then servers, per spec.md §4.3.
func (d *Driver) applySymbolPath(ctx context.Context, searchPath []string) error {
	if len(searchPath) == 0 {
		return nil
	}
	cmd := fmt.Sprintf("settings set target.debug-file-search-paths %s", strings.Join(searchPath, ":"))
	_, err := d.Execute(ctx, cmd, 30*time.Second)
	return err
}

// ReloadSymbols re-applies the debugger's symbol search path, for the
// configure_additional_symbols/reload_symbols MCP tools (spec.md §4.2).
func (d *Driver) ReloadSymbols(ctx context.Context, searchPath []string) error {
	return d.applySymbolPath(ctx, searchPath)
}

// Execute writes a command plus sentinel to the subprocess's stdin and
// reads until the sentinel, per spec.md §4.3's request/response protocol.
func (d *Driver) Execute(ctx context.Context, command string, timeout time.Duration) (string, error) {
	d.execMu.Lock()
	defer d.execMu.Unlock()

	ctx, span := tracer.Start(ctx, "debugger.execute", trace.WithAttributes(
		attribute.String("session.hash", hashSessionID(d.sessionID)),
	))
	defer span.End()

	d.mu.Lock()
	if d.state == StateFailed {
		d.mu.Unlock()
		span.SetStatus(codes.Error, "debugger died")
		return "", apperr.New(apperr.KindDebuggerDied, "debugger process has died")
	}
	if d.state != StateReady && d.state != StateSuspect {
		d.mu.Unlock()
		return "", apperr.New(apperr.KindConflict, "debugger is not ready")
	}
	proc := d.proc
	reader := d.reader
	d.lastActivity = time.Now()
	d.mu.Unlock()

	if err := proc.Write([]byte(command + "\n" + sentinelCommand(d.backend) + "\n")); err != nil {
		d.fail()
		span.SetStatus(codes.Error, err.Error())
		return "", apperr.Wrap(apperr.KindDebuggerDied, "write command", err)
	}

	out, err := readUntilSentinel(reader, timeout, d.backend)
	if err != nil {
		alreadySuspect := d.markTimeout()
		if alreadySuspect {
			d.fail()
			if stopErr := proc.Stop(); stopErr != nil {
				d.logger.Warn("stopping unresponsive debugger process for session %s: %v", d.sessionID, stopErr)
			}
			span.SetStatus(codes.Error, "second consecutive timeout escalated to failure")
			return "", apperr.New(apperr.KindDebuggerDied, "debugger unresponsive after a second timeout")
		}
		if interruptErr := proc.Interrupt(); interruptErr != nil {
			d.fail()
			span.SetStatus(codes.Error, "timeout escalated to failure")
			return "", apperr.New(apperr.KindDebuggerTimeout, "command timed out and could not be interrupted")
		}
		span.SetStatus(codes.Error, "timeout")
		return "", apperr.New(apperr.KindDebuggerTimeout, "command timed out")
	}

	d.mu.Lock()
	if d.state == StateSuspect {
		d.state = StateReady
	}
	d.mu.Unlock()

	span.SetStatus(codes.Ok, "")
	return stripEcho(out, command), nil
}

func sentinelCommand(b Backend) string {
	switch b {
	case BackendLLDB:
		return fmt.Sprintf(`script print("%s")`, sentinelToken)
	default:
		return sentinelToken
	}
}

func readUntilSentinel(reader *bufio.Reader, timeout time.Duration, b Backend) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		var sb strings.Builder
		for {
			line, err := reader.ReadString('\n')
			sb.WriteString(line)
			if err != nil {
				ch <- result{sb.String(), err}
				return
			}
			if strings.Contains(line, sentinelToken) {
				ch <- result{sb.String(), nil}
				return
			}
		}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-time.After(timeout):
		return "", fmt.Errorf("timed out waiting for sentinel")
	}
}

func stripEcho(output, command string) string {
	text := strings.TrimPrefix(output, command)
	text = strings.TrimPrefix(text, "\n")
	idx := strings.Index(text, sentinelToken)
	if idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSuffix(text, lldbPrompt)
	return strings.TrimSpace(text)
}

// markTimeout records a command timeout, promoting Ready to Suspect on a
// first timeout. It reports whether the driver was already Suspect,
// meaning this is a second consecutive timeout that must escalate to
// Failed (spec.md §4.3's Suspect -> Failed-on-second-timeout rule).
func (d *Driver) markTimeout() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateSuspect {
		return true
	}
	if d.state == StateReady {
		d.state = StateSuspect
	}
	return false
}

func (d *Driver) fail() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateFailed
}

// ReadMemory resolves a virtual address through the dump's region table,
// without involving the subprocess. Used for address-style watch
// expressions (spec.md §4.7).
func (d *Driver) ReadMemory(addr uint64, n int) ([]byte, bool) {
	d.mu.Lock()
	mem := d.mem
	d.mu.Unlock()
	if mem == nil {
		return nil, false
	}
	return mem.Read(addr, n)
}

// Close terminates the child process, if any, and resets to Idle.
func (d *Driver) Close() error {
	d.mu.Lock()
	proc := d.proc
	d.proc = nil
	d.state = StateIdle
	d.mu.Unlock()

	if proc == nil {
		return nil
	}
	return proc.Stop()
}
