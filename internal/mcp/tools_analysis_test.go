package mcp

import (
	"testing"
)

func TestArgContentionEventsParsesOwnerWhenPresent(t *testing.T) {
	args := map[string]any{
		"events": []interface{}{
			map[string]interface{}{
				"waiterThreadId": float64(1),
				"resourceAddr":   float64(0x1000),
				"resourceKind":   "monitor",
				"ownerThreadId":  float64(2),
			},
			map[string]interface{}{
				"waiterThreadId": float64(3),
				"resourceAddr":   float64(0x2000),
			},
		},
	}
	events, err := argContentionEvents(args)
	if err != nil {
		t.Fatalf("argContentionEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].HasOwner || events[0].OwnerThreadID != 2 {
		t.Fatalf("expected first event to have owner 2, got %#v", events[0])
	}
	if events[1].HasOwner {
		t.Fatalf("expected second event to have no owner, got %#v", events[1])
	}
	if events[1].ResourceKind != "lock" {
		t.Fatalf("expected default resource kind 'lock', got %q", events[1].ResourceKind)
	}
}

func TestArgContentionEventsAbsent(t *testing.T) {
	events, err := argContentionEvents(map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events != nil {
		t.Fatalf("expected nil events, got %#v", events)
	}
}

func TestArgCVEEntriesParses(t *testing.T) {
	args := map[string]any{
		"cveDatabase": []interface{}{
			map[string]interface{}{"moduleName": "libfoo.so", "cveId": "CVE-2024-0001", "description": "bad"},
		},
	}
	entries, err := argCVEEntries(args)
	if err != nil {
		t.Fatalf("argCVEEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ModuleName != "libfoo.so" {
		t.Fatalf("unexpected entries: %#v", entries)
	}
}

func TestArgHeapStatsRejectsNonArray(t *testing.T) {
	_, err := argHeapStats(map[string]any{"baselineHeap": "not an array"}, "baselineHeap")
	if err == nil {
		t.Fatal("expected an error for a non-array heap snapshot")
	}
}
