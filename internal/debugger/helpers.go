package debugger

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"unicode/utf16"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
)

// ListModules returns every module found during Open's in-memory
// extraction, without touching the debugger subprocess.
func (d *Driver) ListModules(ctx context.Context) ([]ModuleInfo, error) {
	_, span := tracer.Start(ctx, "debugger.list_modules", trace.WithAttributes(
		attribute.String("session.hash", hashSessionID(d.sessionID)),
	))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mem == nil {
		return nil, apperr.New(apperr.KindConflict, "no dump is open")
	}
	out := make([]ModuleInfo, len(d.modules))
	copy(out, d.modules)
	sort.Slice(out, func(i, j int) bool { return out[i].BaseAddress < out[j].BaseAddress })
	return out, nil
}

// DumpModule returns the module containing addr, if any.
func (d *Driver) DumpModule(ctx context.Context, addr uint64) (ModuleInfo, error) {
	modules, err := d.ListModules(ctx)
	if err != nil {
		return ModuleInfo{}, err
	}
	for _, mod := range modules {
		if addr >= mod.BaseAddress && addr < mod.BaseAddress+mod.Size {
			return mod, nil
		}
	}
	return ModuleInfo{}, apperr.New(apperr.KindNotFound, "no module contains the given address")
}

// InspectObject reads the object header at addr: the method table pointer
// (first 8 bytes of any CLR object) plus a bounded raw byte dump. It does
// not resolve field layout, which requires CLR metadata tables only
// available through the managed-runtime helper or the debugger's SOS
// extension.
func (d *Driver) InspectObject(ctx context.Context, addr uint64, maxBytes int) (ObjectInspection, error) {
	_, span := tracer.Start(ctx, "debugger.inspect_object", trace.WithAttributes(
		attribute.String("session.hash", hashSessionID(d.sessionID)),
	))
	defer span.End()

	d.mu.Lock()
	mem := d.mem
	d.mu.Unlock()
	if mem == nil {
		return ObjectInspection{}, apperr.New(apperr.KindConflict, "no dump is open")
	}
	if maxBytes <= 0 {
		maxBytes = 256
	}

	header, ok := mem.Read(addr, 8)
	if !ok || len(header) < 8 {
		return ObjectInspection{}, apperr.New(apperr.KindNotFound, "address is not within any mapped region")
	}
	methodTable := leUint64(header)

	raw, _ := mem.Read(addr, maxBytes)
	truncated := len(raw) < maxBytes

	return ObjectInspection{
		Address:        addr,
		MethodTablePtr: methodTable,
		RawBytes:       raw,
		Truncated:      truncated,
	}, nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// FindType heuristically scans mapped memory for UTF-16 encoded strings
// containing name, as a best-effort substitute for real CLR metadata type
// resolution (which needs the managed-runtime helper to be loaded).
func (d *Driver) FindType(ctx context.Context, name string, moduleGlob string) ([]TypeMatch, error) {
	_, span := tracer.Start(ctx, "debugger.find_type", trace.WithAttributes(
		attribute.String("session.hash", hashSessionID(d.sessionID)),
	))
	defer span.End()

	d.mu.Lock()
	mem := d.mem
	modules := append([]ModuleInfo(nil), d.modules...)
	d.mu.Unlock()
	if mem == nil {
		return nil, apperr.New(apperr.KindConflict, "no dump is open")
	}
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, "type name must not be empty")
	}

	needle := utf16LE(name)
	var matches []TypeMatch
	for _, mod := range modules {
		if moduleGlob != "" && !globMatch(moduleGlob, mod.Name) {
			continue
		}
		region, ok := mem.Read(mod.BaseAddress, int(mod.Size))
		if !ok {
			continue
		}
		for off := 0; off+len(needle) <= len(region); off++ {
			if bytes.Equal(region[off:off+len(needle)], needle) {
				matches = append(matches, TypeMatch{Address: mod.BaseAddress + uint64(off), Module: mod.Name})
			}
		}
	}
	return matches, nil
}

func utf16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

func globMatch(glob, name string) bool {
	if glob == "*" || glob == "" {
		return true
	}
	if strings.HasSuffix(glob, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(glob, "*"))
	}
	return glob == name
}

// WalkManagedStacks returns the native threads found during Open, each with
// a frame-pointer-chain walk starting at the thread's recorded StackBase
// when that address falls inside the region table. ELF core threads carry
// only their thread id (StackBase is 0) and minidumps have no region table,
// so for those formats Frames is empty. Full unwinding via CFI/DWARF is not
// performed.
func (d *Driver) WalkManagedStacks(ctx context.Context, osThreadID *uint32) ([]ThreadInfo, error) {
	_, span := tracer.Start(ctx, "debugger.walk_managed_stacks", trace.WithAttributes(
		attribute.String("session.hash", hashSessionID(d.sessionID)),
	))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mem == nil {
		return nil, apperr.New(apperr.KindConflict, "no dump is open")
	}

	out := make([]ThreadInfo, 0, len(d.threads))
	for _, th := range d.threads {
		if osThreadID != nil && th.OSThreadID != *osThreadID {
			continue
		}
		th.Frames = walkFramePointerChain(d.mem, th.StackBase, th.StackSize)
		out = append(out, th)
	}
	return out, nil
}

// walkFramePointerChain follows a classic RBP chain: each frame's saved
// RBP sits at [rbp], the return address at [rbp+8]. It stops at the first
// unmapped or zero frame pointer, or after a generous depth cap.
func walkFramePointerChain(mem *memoryReader, stackBase, stackSize uint64) []uint64 {
	if stackBase == 0 || stackSize == 0 {
		return nil
	}
	const maxFrames = 64
	frames := make([]uint64, 0, maxFrames)

	rbp := stackBase
	for i := 0; i < maxFrames; i++ {
		savedRBP, ok := mem.Read(rbp, 8)
		if !ok || len(savedRBP) < 8 {
			break
		}
		retAddr, ok := mem.Read(rbp+8, 8)
		if !ok || len(retAddr) < 8 {
			break
		}
		ret := leUint64(retAddr)
		if ret == 0 {
			break
		}
		frames = append(frames, ret)

		next := leUint64(savedRBP)
		if next == 0 || next <= rbp {
			break
		}
		rbp = next
	}
	return frames
}
