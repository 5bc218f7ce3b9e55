package debugger

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Minidump stream directory layout, per Microsoft's public MINIDUMP format:
// header (32 bytes) -> array of MINIDUMP_DIRECTORY entries, each pointing
// at a stream by type and RVA.
const (
	minidumpHeaderSize      = 32
	minidumpDirEntrySize    = 12
	minidumpStreamModules   = 4 // ModuleListStream
	minidumpStreamThreads   = 3 // ThreadListStream
	minidumpModuleEntrySize = 108
	minidumpThreadEntrySize = 48
)

func parseMinidump(m *memoryReader) ([]ModuleInfo, []ThreadInfo, error) {
	data := m.data
	if len(data) < minidumpHeaderSize {
		return nil, nil, fmt.Errorf("minidump header truncated")
	}
	numStreams := binary.LittleEndian.Uint32(data[8:12])
	streamDirRva := binary.LittleEndian.Uint32(data[12:16])

	var moduleRva, threadRva uint32
	var moduleCount, threadCount bool
	for i := uint32(0); i < numStreams; i++ {
		entryOff := int(streamDirRva) + int(i)*minidumpDirEntrySize
		if entryOff+minidumpDirEntrySize > len(data) {
			break
		}
		streamType := binary.LittleEndian.Uint32(data[entryOff : entryOff+4])
		rva := binary.LittleEndian.Uint32(data[entryOff+8 : entryOff+12])
		switch streamType {
		case minidumpStreamModules:
			moduleRva = rva
			moduleCount = true
		case minidumpStreamThreads:
			threadRva = rva
			threadCount = true
		}
	}

	// The stream directory does not describe memory regions beyond the
	// modules/threads themselves; a full Memory64List walk would be needed
	// to serve arbitrary-address reads, which module/thread enumeration
	// does not require, so the region table stays
	// empty for minidumps (module and thread reads here use direct RVA
	// offsets instead of the virtual-address region table).
	var modules []ModuleInfo
	if moduleCount {
		modules = parseMinidumpModules(data, moduleRva)
	}
	var threads []ThreadInfo
	if threadCount {
		threads = parseMinidumpThreads(data, threadRva)
	}
	return modules, threads, nil
}

func parseMinidumpModules(data []byte, rva uint32) []ModuleInfo {
	if int(rva)+4 > len(data) {
		return nil
	}
	count := binary.LittleEndian.Uint32(data[rva : rva+4])
	out := make([]ModuleInfo, 0, count)
	base := int(rva) + 4
	for i := uint32(0); i < count; i++ {
		off := base + int(i)*minidumpModuleEntrySize
		if off+minidumpModuleEntrySize > len(data) {
			break
		}
		baseOfImage := binary.LittleEndian.Uint64(data[off : off+8])
		sizeOfImage := binary.LittleEndian.Uint32(data[off+8 : off+12])
		nameRva := binary.LittleEndian.Uint32(data[off+20 : off+24])
		name := readMinidumpString(data, nameRva)
		out = append(out, ModuleInfo{Name: name, BaseAddress: baseOfImage, Size: uint64(sizeOfImage)})
	}
	return out
}

func parseMinidumpThreads(data []byte, rva uint32) []ThreadInfo {
	if int(rva)+4 > len(data) {
		return nil
	}
	count := binary.LittleEndian.Uint32(data[rva : rva+4])
	out := make([]ThreadInfo, 0, count)
	base := int(rva) + 4
	for i := uint32(0); i < count; i++ {
		off := base + int(i)*minidumpThreadEntrySize
		if off+minidumpThreadEntrySize > len(data) {
			break
		}
		threadID := binary.LittleEndian.Uint32(data[off : off+4])
		// MINIDUMP_THREAD: ThreadId(4) SuspendCount(4) PriorityClass(4)
		// Priority(4) Teb(8) Stack MINIDUMP_MEMORY_DESCRIPTOR{StartOfMemoryRange(8) Memory{DataSize(4) Rva(4)}}
		stackBase := binary.LittleEndian.Uint64(data[off+24 : off+32])
		stackSize := binary.LittleEndian.Uint32(data[off+32 : off+36])
		out = append(out, ThreadInfo{OSThreadID: threadID, StackBase: stackBase, StackSize: uint64(stackSize)})
	}
	return out
}

// readMinidumpString reads a MINIDUMP_STRING: a 4-byte length (bytes, not
// chars) followed by UTF-16LE code units.
func readMinidumpString(data []byte, rva uint32) string {
	if int(rva)+4 > len(data) {
		return ""
	}
	lengthBytes := binary.LittleEndian.Uint32(data[rva : rva+4])
	start := int(rva) + 4
	end := start + int(lengthBytes)
	if end > len(data) || start > end {
		return ""
	}
	raw := data[start:end]
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		units = append(units, binary.LittleEndian.Uint16(raw[i:i+2]))
	}
	return string(utf16.Decode(units))
}
