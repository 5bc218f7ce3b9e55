// Package symbolstore implements per-dump storage of developer symbols and
// assembly of debugger search paths, per spec.md §4.2.
package symbolstore

// Kind is the detected symbol file format.
type Kind string

const (
	KindPortablePDB Kind = "portable_pdb"
	KindClassicPDB  Kind = "classic_pdb"
	KindELFDebug    Kind = "elf_debug"
	KindMachO       Kind = "macho"
	KindUnknown     Kind = "unknown"
)

// SymInfo describes one stored symbol file.
type SymInfo struct {
	DumpID   string `json:"dumpId"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	Kind     Kind   `json:"kind"`
}

// SymZipInfo describes the result of extracting a symbol archive.
type SymZipInfo struct {
	DumpID         string   `json:"dumpId"`
	ExtractedFiles []string `json:"extractedFiles"`
	ContainingDirs []string `json:"containingDirs"`
}
