package debugger

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

func putU32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:off+4], v) }
func putU64(b []byte, off int, v uint64) { binary.LittleEndian.PutUint64(b[off:off+8], v) }

// buildMinidump constructs a minimal MINIDUMP with a header, a two-entry
// stream directory (modules, threads), one module and one thread.
func buildMinidump(t *testing.T) []byte {
	t.Helper()

	moduleName := "ntdll.dll"
	nameUnits := utf16.Encode([]rune(moduleName))
	nameBytes := make([]byte, 4+len(nameUnits)*2)
	putU32(nameBytes, 0, uint32(len(nameUnits)*2))
	for i, u := range nameUnits {
		binary.LittleEndian.PutUint16(nameBytes[4+i*2:4+i*2+2], u)
	}

	const headerSize = 32
	const dirEntrySize = 12
	const numStreams = 2
	dirOff := headerSize
	dirSize := numStreams * dirEntrySize
	moduleStreamOff := dirOff + dirSize
	moduleStreamSize := 4 + minidumpModuleEntrySize
	threadStreamOff := moduleStreamOff + moduleStreamSize
	threadStreamSize := 4 + minidumpThreadEntrySize
	nameOff := threadStreamOff + threadStreamSize

	total := nameOff + len(nameBytes)
	buf := make([]byte, total)
	copy(buf[:4], []byte("MDMP"))
	putU32(buf, 8, numStreams)
	putU32(buf, 12, uint32(dirOff))

	// directory entry 0: modules
	putU32(buf, dirOff, minidumpStreamModules)
	putU32(buf, dirOff+8, uint32(moduleStreamOff))
	// directory entry 1: threads
	putU32(buf, dirOff+dirEntrySize, minidumpStreamThreads)
	putU32(buf, dirOff+dirEntrySize+8, uint32(threadStreamOff))

	// module list: count=1, then one MINIDUMP_MODULE
	putU32(buf, moduleStreamOff, 1)
	modOff := moduleStreamOff + 4
	putU64(buf, modOff, 0x140000000)          // BaseOfImage
	putU32(buf, modOff+8, 0x9000)             // SizeOfImage
	putU32(buf, modOff+20, uint32(nameOff))   // ModuleNameRva

	// thread list: count=1, then one MINIDUMP_THREAD
	putU32(buf, threadStreamOff, 1)
	thOff := threadStreamOff + 4
	putU32(buf, thOff, 4242)             // ThreadId
	putU64(buf, thOff+24, 0x7ffee0000000) // Stack.StartOfMemoryRange
	putU32(buf, thOff+32, 0x4000)         // Stack.Memory.DataSize

	copy(buf[nameOff:], nameBytes)
	return buf
}

func TestParseMinidumpModulesAndThreads(t *testing.T) {
	buf := buildMinidump(t)
	mem := &memoryReader{data: buf}

	modules, threads, err := parseMinidump(mem)
	if err != nil {
		t.Fatalf("parseMinidump: %v", err)
	}
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %+v", modules)
	}
	if modules[0].Name != "ntdll.dll" {
		t.Fatalf("expected module name ntdll.dll, got %q", modules[0].Name)
	}
	if modules[0].BaseAddress != 0x140000000 {
		t.Fatalf("unexpected base address: %x", modules[0].BaseAddress)
	}

	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %+v", threads)
	}
	if threads[0].OSThreadID != 4242 {
		t.Fatalf("unexpected thread id: %d", threads[0].OSThreadID)
	}
	if threads[0].StackBase != 0x7ffee0000000 {
		t.Fatalf("unexpected stack base: %x", threads[0].StackBase)
	}
}
