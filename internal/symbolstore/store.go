package symbolstore

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/pathsafe"
)

const (
	sniffLen = 32
	// zipEntryExpansionFactor and zipEntryMaxBytes bound per-entry
	// decompression to guard against zip-bomb entries, per SPEC_FULL.md §4.2.
	zipEntryExpansionFactor = 10
	zipEntryMaxBytes        = 256 << 20
)

// Store implements the symbol store described in spec.md §4.2.
type Store struct {
	root   string
	logger obs.Logger
}

// New constructs a Store rooted at root/symbols.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "symbols"), 0o755); err != nil {
		return nil, fmt.Errorf("create symbols root: %w", err)
	}
	return &Store{root: root, logger: obs.NewComponentLogger("SymbolStore")}, nil
}

func (s *Store) dumpDir(dumpID string) string {
	return filepath.Join(s.root, "symbols", dumpID)
}

// Put validates and writes a single symbol file.
func (s *Store) Put(dumpID, fileName string, r io.Reader) (SymInfo, error) {
	if err := pathsafe.ValidateComponent(dumpID); err != nil {
		return SymInfo{}, apperr.Wrap(apperr.KindValidation, "invalid dump id", err)
	}
	base := filepath.Base(fileName)
	if err := pathsafe.ValidateComponent(base); err != nil {
		return SymInfo{}, apperr.Wrap(apperr.KindValidation, "invalid symbol file name", err)
	}

	dir := s.dumpDir(dumpID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SymInfo{}, apperr.Wrap(apperr.KindTransient, "create symbol directory", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return SymInfo{}, apperr.Wrap(apperr.KindTransient, "read symbol bytes", err)
	}
	if len(data) < minSymbolFileSize {
		return SymInfo{}, apperr.New(apperr.KindValidation, "symbol file is below the minimum size floor")
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	kind := detectKind(head)

	target := filepath.Join(dir, base)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return SymInfo{}, apperr.Wrap(apperr.KindTransient, "write symbol file", err)
	}

	s.logger.Info("stored symbol file %s (%s, %d bytes) for dump %s", base, kind, len(data), dumpID)
	return SymInfo{DumpID: dumpID, FileName: base, Size: int64(len(data)), Kind: kind}, nil
}

// PutZip streams a ZIP archive, validating each entry stays within the
// dump's symbol directory and bounding per-entry decompression size.
func (s *Store) PutZip(dumpID string, zipBytes io.ReaderAt, size int64) (SymZipInfo, error) {
	if err := pathsafe.ValidateComponent(dumpID); err != nil {
		return SymZipInfo{}, apperr.Wrap(apperr.KindValidation, "invalid dump id", err)
	}
	dir := s.dumpDir(dumpID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SymZipInfo{}, apperr.Wrap(apperr.KindTransient, "create symbol directory", err)
	}
	absRoot, err := filepath.Abs(dir)
	if err != nil {
		return SymZipInfo{}, apperr.Wrap(apperr.KindInternal, "resolve symbol root", err)
	}

	zr, err := zip.NewReader(zipBytes, size)
	if err != nil {
		return SymZipInfo{}, apperr.Wrap(apperr.KindFormatInvalid, "invalid zip archive", err)
	}

	var extracted []string
	dirSet := map[string]struct{}{}

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		cleanRel := filepath.Clean(entry.Name)
		destPath := filepath.Join(absRoot, cleanRel)
		destAbs, err := filepath.Abs(destPath)
		if err != nil {
			return SymZipInfo{}, apperr.Wrap(apperr.KindInternal, "resolve zip entry path", err)
		}
		if destAbs != absRoot && !strings.HasPrefix(destAbs, absRoot+string(filepath.Separator)) {
			return SymZipInfo{}, apperr.New(apperr.KindValidation, "zip entry escapes symbol root: "+entry.Name)
		}

		entryCap := int64(entry.CompressedSize64) * zipEntryExpansionFactor
		if entryCap > zipEntryMaxBytes || entryCap <= 0 {
			entryCap = zipEntryMaxBytes
		}

		if err := os.MkdirAll(filepath.Dir(destAbs), 0o755); err != nil {
			return SymZipInfo{}, apperr.Wrap(apperr.KindTransient, "create zip entry directory", err)
		}

		if err := extractEntry(entry, destAbs, entryCap); err != nil {
			return SymZipInfo{}, err
		}

		relFromRoot, _ := filepath.Rel(absRoot, destAbs)
		extracted = append(extracted, filepath.ToSlash(relFromRoot))
		dirSet[filepath.ToSlash(filepath.Dir(relFromRoot))] = struct{}{}
	}

	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	sort.Strings(extracted)

	s.logger.Info("extracted %d symbol files from zip for dump %s", len(extracted), dumpID)
	return SymZipInfo{DumpID: dumpID, ExtractedFiles: extracted, ContainingDirs: dirs}, nil
}

func extractEntry(entry *zip.File, destAbs string, capBytes int64) error {
	src, err := entry.Open()
	if err != nil {
		return apperr.Wrap(apperr.KindFormatInvalid, "open zip entry", err)
	}
	defer src.Close()

	out, err := os.Create(destAbs)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "create extracted file", err)
	}
	defer out.Close()

	limited := io.LimitReader(src, capBytes+1)
	written, err := io.Copy(out, limited)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "extract zip entry", err)
	}
	if written > capBytes {
		return apperr.New(apperr.KindTooLarge, "zip entry exceeds decompression cap: "+entry.Name)
	}
	return nil
}

// List walks the dump's symbol tree, returning paths relative to the root.
func (s *Store) List(dumpID string) ([]string, error) {
	if err := pathsafe.ValidateComponent(dumpID); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid dump id", err)
	}
	dir := s.dumpDir(dumpID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, apperr.New(apperr.KindNotFound, "no symbols stored for dump")
	}

	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "walk symbol tree", err)
	}
	sort.Strings(out)
	return out, nil
}

// Clear removes the dump's entire symbol tree.
func (s *Store) Clear(dumpID string) error {
	if err := pathsafe.ValidateComponent(dumpID); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid dump id", err)
	}
	if err := os.RemoveAll(s.dumpDir(dumpID)); err != nil {
		return apperr.Wrap(apperr.KindTransient, "clear symbol tree", err)
	}
	return nil
}

// SearchPath returns every subdirectory containing at least one symbol
// file, in lexical order. User-added symbol-server URLs are appended by the
// session/debugger layer (spec.md §4.2), not here.
func (s *Store) SearchPath(dumpID string) ([]string, error) {
	if err := pathsafe.ValidateComponent(dumpID); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid dump id", err)
	}
	dir := s.dumpDir(dumpID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	dirSet := map[string]struct{}{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		dirSet[filepath.Dir(path)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "walk symbol tree", err)
	}

	out := make([]string, 0, len(dirSet))
	for d := range dirSet {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}
