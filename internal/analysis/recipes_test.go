package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

type scriptedEvaluator struct {
	responses map[string]string
	failing   map[string]bool
}

func (e *scriptedEvaluator) Execute(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if e.failing[command] {
		return "", errTest
	}
	if out, ok := e.responses[command]; ok {
		return out, nil
	}
	return "", nil
}

var errTest = &testErr{"debugger error"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }

func TestAnalyzeCrashCollectsSections(t *testing.T) {
	ev := &scriptedEvaluator{responses: map[string]string{
		"bt":         "frame 0: foo",
		"image list": "ntdll.dll",
	}}
	result := AnalyzeCrash(context.Background(), ev, debugger.BackendLLDB)
	if result.Kind != "crash" {
		t.Fatalf("expected kind crash, got %q", result.Kind)
	}
	if len(result.Sections) != 6 {
		t.Fatalf("expected 6 sections for a non-Windows backend, got %d", len(result.Sections))
	}
	for _, s := range result.Sections {
		if s.Title == "!analyze -v" {
			t.Fatalf("did not expect !analyze -v on a non-Windows backend")
		}
	}
}

func TestAnalyzeCrashIncludesWindowsStep(t *testing.T) {
	ev := &scriptedEvaluator{responses: map[string]string{}}
	result := AnalyzeCrash(context.Background(), ev, debugger.BackendCDB)
	found := false
	for _, s := range result.Sections {
		if s.Title == "!analyze -v" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected !analyze -v section on cdb backend")
	}
}

func TestRunStepsRecordsErrorWithoutAborting(t *testing.T) {
	ev := &scriptedEvaluator{failing: map[string]bool{"bt": true}}
	result := AnalyzeCrash(context.Background(), ev, debugger.BackendLLDB)
	var sawError bool
	for _, s := range result.Sections {
		if s.Title == "short stack" {
			if !strings.HasPrefix(s.Text, "error:") {
				t.Fatalf("expected error text for failing step, got %q", s.Text)
			}
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected to find the short stack section")
	}
	if len(result.Sections) != 6 {
		t.Fatalf("a failing step should not remove later sections, got %d", len(result.Sections))
	}
}

func TestAnalyzeSecurityFlagsMatchingModule(t *testing.T) {
	modules := []ModuleInfo{{Name: "libssl.so", BaseAddress: 0x1000, Size: 0x2000}}
	db := []CVEEntry{{ModuleName: "libssl.so", CVEID: "CVE-2024-0001", Description: "outdated"}}
	result := AnalyzeSecurity(modules, db)
	if !strings.Contains(result.Sections[0].Text, "CVE-2024-0001") {
		t.Fatalf("expected flagged module text, got %q", result.Sections[0].Text)
	}
}

func TestAnalyzeSecurityNoFindings(t *testing.T) {
	result := AnalyzeSecurity([]ModuleInfo{{Name: "safe.dll"}}, nil)
	if result.Sections[0].Text != "no known vulnerable modules detected" {
		t.Fatalf("unexpected text: %q", result.Sections[0].Text)
	}
}

func TestAnalyzeContentionBuildsGraphAndCycles(t *testing.T) {
	events := []ContentionEvent{
		{WaiterThreadID: 1, ResourceAddr: 0x100, ResourceKind: "monitor", OwnerThreadID: 2, HasOwner: true},
		{WaiterThreadID: 2, ResourceAddr: 0x200, ResourceKind: "monitor", OwnerThreadID: 1, HasOwner: true},
	}
	ev := &scriptedEvaluator{responses: map[string]string{"syncblk": "raw"}}
	result := AnalyzeContention(context.Background(), ev, events)

	var sawCycles bool
	for _, s := range result.Sections {
		if s.Title == "deadlock cycles" {
			sawCycles = true
			if !strings.Contains(s.Text, "thread:1") || !strings.Contains(s.Text, "thread:2") {
				t.Fatalf("expected cycle between thread 1 and 2, got %q", s.Text)
			}
		}
	}
	if !sawCycles {
		t.Fatalf("expected a deadlock cycle between mutually waiting threads")
	}
}
