package symbolstore

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
)

func portablePDBBytes() []byte {
	data := make([]byte, 32)
	copy(data, []byte("BSJB"))
	return data
}

func TestPutDetectsPortablePDB(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := store.Put("dump1", "app.pdb", bytes.NewReader(portablePDBBytes()))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Kind != KindPortablePDB {
		t.Fatalf("expected portable pdb, got %s", info.Kind)
	}
}

func TestPutRejectsBelowSizeFloor(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Put("dump1", "tiny.pdb", bytes.NewReader([]byte("BSJB"))); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for undersized file, got %v", err)
	}
}

func TestPutRejectsPathTraversalName(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// filepath.Base collapses "../../etc/passwd" to "passwd", so use a
	// NUL byte to exercise the validation path directly.
	if _, err := store.Put("dump1", "bad\x00name.pdb", bytes.NewReader(portablePDBBytes())); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unsafe file name, got %v", err)
	}
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestPutZipExtractsEntriesAndReportsDirs(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := buildZip(t, map[string][]byte{
		"lib/app.pdb":     portablePDBBytes(),
		"lib/sub/dep.pdb": portablePDBBytes(),
	})
	info, err := store.PutZip("dump1", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("PutZip: %v", err)
	}
	if len(info.ExtractedFiles) != 2 {
		t.Fatalf("expected 2 extracted files, got %+v", info.ExtractedFiles)
	}
	if len(info.ContainingDirs) != 2 {
		t.Fatalf("expected 2 containing dirs, got %+v", info.ContainingDirs)
	}

	list, err := store.List("dump1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 listed files, got %+v", list)
	}
}

func TestPutZipRejectsPathTraversalEntry(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := buildZip(t, map[string][]byte{
		"../../etc/passwd": portablePDBBytes(),
	})
	if _, err := store.PutZip("dump1", bytes.NewReader(data), int64(len(data))); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for escaping zip entry, got %v", err)
	}
}

func TestListReturnsNotFoundForMissingDump(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.List("missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestClearRemovesTree(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Put("dump1", "app.pdb", bytes.NewReader(portablePDBBytes())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Clear("dump1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.List("dump1"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found after clear, got %v", err)
	}
}

func TestSearchPathListsDirectoriesContainingSymbols(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := buildZip(t, map[string][]byte{
		"lib/app.pdb":     portablePDBBytes(),
		"lib/sub/dep.pdb": portablePDBBytes(),
	})
	if _, err := store.PutZip("dump1", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("PutZip: %v", err)
	}
	dirs, err := store.SearchPath("dump1")
	if err != nil {
		t.Fatalf("SearchPath: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 search path directories, got %+v", dirs)
	}
	for _, d := range dirs {
		if !strings.Contains(d, "lib") {
			t.Fatalf("expected path under lib, got %q", d)
		}
	}
}

func TestSearchPathEmptyForUnknownDump(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dirs, err := store.SearchPath("missing")
	if err != nil {
		t.Fatalf("SearchPath: %v", err)
	}
	if len(dirs) != 0 {
		t.Fatalf("expected empty search path, got %+v", dirs)
	}
}
