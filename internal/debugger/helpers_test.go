package debugger

import (
	"context"
	"testing"
)

func TestListModulesRequiresOpenDump(t *testing.T) {
	d := New("session1")
	if _, err := d.ListModules(context.Background()); err == nil {
		t.Fatalf("expected error when no dump is open")
	}
}

func TestInspectObjectReadsMethodTableHeader(t *testing.T) {
	data := make([]byte, 64)
	putU64At(data, 16, 0xdeadbeef00000001) // method table pointer at mapped offset
	mem := &memoryReader{
		data:    data,
		regions: []region{{virtualAddr: 0x2000, fileOffset: 16, size: 16}},
	}
	d := &Driver{mem: mem}

	obj, err := d.InspectObject(context.Background(), 0x2000, 16)
	if err != nil {
		t.Fatalf("InspectObject: %v", err)
	}
	if obj.MethodTablePtr != 0xdeadbeef00000001 {
		t.Fatalf("unexpected method table pointer: %x", obj.MethodTablePtr)
	}
}

func TestInspectObjectRejectsUnmappedAddress(t *testing.T) {
	mem := &memoryReader{data: make([]byte, 16), regions: []region{{virtualAddr: 0x2000, fileOffset: 0, size: 16}}}
	d := &Driver{mem: mem}
	if _, err := d.InspectObject(context.Background(), 0x9999, 16); err == nil {
		t.Fatalf("expected error for unmapped address")
	}
}

func TestFindTypeMatchesUTF16String(t *testing.T) {
	name := "MyApp.Widget"
	needle := utf16LE(name)
	data := make([]byte, 128)
	copy(data[40:], needle)
	mem := &memoryReader{
		data:    data,
		regions: []region{{virtualAddr: 0x5000, fileOffset: 0, size: 128}},
	}
	d := &Driver{mem: mem, modules: []ModuleInfo{{Name: "app.dll", BaseAddress: 0x5000, Size: 128}}}

	matches, err := d.FindType(context.Background(), name, "")
	if err != nil {
		t.Fatalf("FindType: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %+v", matches)
	}
	if matches[0].Address != 0x5000+40 {
		t.Fatalf("unexpected match address: %x", matches[0].Address)
	}
}

func TestFindTypeRespectsModuleGlob(t *testing.T) {
	mem := &memoryReader{data: make([]byte, 16), regions: []region{{virtualAddr: 0x1000, fileOffset: 0, size: 16}}}
	d := &Driver{mem: mem, modules: []ModuleInfo{{Name: "other.dll", BaseAddress: 0x1000, Size: 16}}}

	matches, err := d.FindType(context.Background(), "Whatever", "app*")
	if err != nil {
		t.Fatalf("FindType: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for non-matching glob, got %+v", matches)
	}
}

func TestWalkManagedStacksFiltersByThreadID(t *testing.T) {
	mem := &memoryReader{data: make([]byte, 16)}
	tid := uint32(42)
	d := &Driver{
		mem:     mem,
		threads: []ThreadInfo{{OSThreadID: 1}, {OSThreadID: 42}},
	}

	got, err := d.WalkManagedStacks(context.Background(), &tid)
	if err != nil {
		t.Fatalf("WalkManagedStacks: %v", err)
	}
	if len(got) != 1 || got[0].OSThreadID != 42 {
		t.Fatalf("expected only thread 42, got %+v", got)
	}
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		glob, name string
		want       bool
	}{
		{"*", "anything", true},
		{"", "anything", true},
		{"app*", "app.dll", true},
		{"app*", "other.dll", false},
		{"exact.dll", "exact.dll", true},
		{"exact.dll", "other.dll", false},
	}
	for _, c := range cases {
		if got := globMatch(c.glob, c.name); got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.glob, c.name, got, c.want)
		}
	}
}
