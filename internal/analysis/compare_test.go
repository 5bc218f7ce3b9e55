package analysis

import "testing"

func TestCompareHeapDetectsAddedRemovedAndChanged(t *testing.T) {
	before := []HeapTypeStat{
		{TypeName: "System.String", Count: 100, Bytes: 2000},
		{TypeName: "OldType", Count: 5, Bytes: 50},
	}
	after := []HeapTypeStat{
		{TypeName: "System.String", Count: 150, Bytes: 3000},
		{TypeName: "NewType", Count: 10, Bytes: 200},
	}
	deltas := CompareHeap(before, after)

	byName := map[string]HeapTypeDelta{}
	for _, d := range deltas {
		byName[d.TypeName] = d
	}
	if byName["System.String"].CountDelta != 50 || byName["System.String"].BytesDelta != 1000 {
		t.Fatalf("unexpected delta for System.String: %+v", byName["System.String"])
	}
	if !byName["OldType"].Removed {
		t.Fatalf("expected OldType to be marked removed")
	}
	if !byName["NewType"].Added {
		t.Fatalf("expected NewType to be marked added")
	}
}

func TestCompareThreadCounts(t *testing.T) {
	before := []ThreadInfo{{OSThreadID: 1}, {OSThreadID: 2}}
	after := []ThreadInfo{{OSThreadID: 1}}
	delta := CompareThreadCounts(before, after)
	if delta.Before != 2 || delta.After != 1 || delta.Delta != -1 {
		t.Fatalf("unexpected thread count delta: %+v", delta)
	}
}

func TestCompareModulesDetectsAddedRemovedAndResized(t *testing.T) {
	before := []ModuleInfo{
		{Name: "libc.so", Size: 1000},
		{Name: "removed.so", Size: 500},
	}
	after := []ModuleInfo{
		{Name: "libc.so", Size: 1200},
		{Name: "added.so", Size: 700},
	}
	deltas := CompareModules(before, after)
	byName := map[string]ModuleDelta{}
	for _, d := range deltas {
		byName[d.Name] = d
	}
	if !byName["libc.so"].SizeChanged {
		t.Fatalf("expected libc.so size change to be detected")
	}
	if !byName["removed.so"].Removed {
		t.Fatalf("expected removed.so to be marked removed")
	}
	if !byName["added.so"].Added {
		t.Fatalf("expected added.so to be marked added")
	}
}
