package analysis

import "testing"

func TestBuildWaitGraphThreeNodesForOwnedResource(t *testing.T) {
	events := []ContentionEvent{
		{WaiterThreadID: 1, ResourceAddr: 0x10, ResourceKind: "monitor", OwnerThreadID: 2, HasOwner: true},
	}
	g := BuildWaitGraph(events)
	wantNodes := map[string]bool{"thread:1": false, "thread:2": false, "resource:0x10": false}
	for _, n := range g.Nodes {
		wantNodes[n.ID] = true
	}
	for id, seen := range wantNodes {
		if !seen {
			t.Fatalf("expected node %s in graph, got %+v", id, g.Nodes)
		}
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected waits + owned-by edges, got %+v", g.Edges)
	}
}

func TestBuildWaitGraphExcludesOwnerlessMonitorButKeepsOwnerlessAsyncPrimitive(t *testing.T) {
	events := []ContentionEvent{
		{WaiterThreadID: 1, ResourceAddr: 0x10, ResourceKind: "monitor", HasOwner: false},
		{WaiterThreadID: 2, ResourceAddr: 0x20, ResourceKind: "semaphoreslim", HasOwner: false},
	}
	g := BuildWaitGraph(events)

	for _, n := range g.Nodes {
		if n.ID == "resource:0x10" {
			t.Fatalf("expected an ownerless monitor to be excluded, got nodes %+v", g.Nodes)
		}
	}
	foundAsyncResource := false
	for _, n := range g.Nodes {
		if n.ID == "resource:0x20" {
			foundAsyncResource = true
		}
	}
	if !foundAsyncResource {
		t.Fatalf("expected an ownerless async-primitive resource to still appear, got %+v", g.Nodes)
	}
}

func TestRankHotspotsOrdersBySeverity(t *testing.T) {
	events := []ContentionEvent{
		{WaiterThreadID: 1, ResourceAddr: 0x20, ResourceKind: "monitor", HasOwner: false},
		{WaiterThreadID: 2, ResourceAddr: 0x20, ResourceKind: "monitor", HasOwner: false},
		{WaiterThreadID: 3, ResourceAddr: 0x20, ResourceKind: "monitor", HasOwner: false},
		{WaiterThreadID: 4, ResourceAddr: 0x20, ResourceKind: "monitor", HasOwner: false},
		{WaiterThreadID: 5, ResourceAddr: 0x10, ResourceKind: "semaphoreslim", HasOwner: false},
	}
	hotspots := RankHotspots(events)
	if hotspots[0].ResourceAddr != 0x20 {
		t.Fatalf("expected the 4-waiter (high severity) resource first, got %+v", hotspots)
	}
	if hotspots[0].Severity != SeverityHigh {
		t.Fatalf("expected high severity for 4 waiters, got %s", hotspots[0].Severity)
	}
	if hotspots[1].Severity != SeverityLow {
		t.Fatalf("expected low severity for 1 waiter, got %s", hotspots[1].Severity)
	}
}

func TestDetectDeadlocksFindsMutualWaitCycle(t *testing.T) {
	events := []ContentionEvent{
		{WaiterThreadID: 1, ResourceAddr: 0x100, ResourceKind: "monitor", OwnerThreadID: 2, HasOwner: true},
		{WaiterThreadID: 2, ResourceAddr: 0x200, ResourceKind: "monitor", OwnerThreadID: 1, HasOwner: true},
	}
	g := BuildWaitGraph(events)
	cycles := DetectDeadlocks(g)
	if len(cycles) != 1 {
		t.Fatalf("expected exactly one cycle, got %+v", cycles)
	}
	if len(cycles[0].ThreadIDs) != 2 {
		t.Fatalf("expected cycle to contain both threads, got %+v", cycles[0])
	}
}

func TestDetectDeadlocksNoCycleForSimpleChain(t *testing.T) {
	events := []ContentionEvent{
		{WaiterThreadID: 1, ResourceAddr: 0x100, ResourceKind: "monitor", OwnerThreadID: 2, HasOwner: true},
	}
	g := BuildWaitGraph(events)
	cycles := DetectDeadlocks(g)
	if len(cycles) != 0 {
		t.Fatalf("expected no cycle for a simple non-cyclic wait, got %+v", cycles)
	}
}

func TestDetectDeadlocksThreeThreadCycle(t *testing.T) {
	events := []ContentionEvent{
		{WaiterThreadID: 1, ResourceAddr: 0x100, ResourceKind: "monitor", OwnerThreadID: 2, HasOwner: true},
		{WaiterThreadID: 2, ResourceAddr: 0x200, ResourceKind: "monitor", OwnerThreadID: 3, HasOwner: true},
		{WaiterThreadID: 3, ResourceAddr: 0x300, ResourceKind: "monitor", OwnerThreadID: 1, HasOwner: true},
	}
	g := BuildWaitGraph(events)
	cycles := DetectDeadlocks(g)
	if len(cycles) != 1 || len(cycles[0].ThreadIDs) != 3 {
		t.Fatalf("expected one 3-thread cycle, got %+v", cycles)
	}
}
