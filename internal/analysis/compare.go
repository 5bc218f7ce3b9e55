package analysis

import "sort"

// HeapTypeStat is one managed-heap type's count/size snapshot, as
// extracted by `dumpheap -stat`.
type HeapTypeStat struct {
	TypeName string
	Count    int
	Bytes    uint64
}

// HeapTypeDelta is the change in one type between two snapshots.
type HeapTypeDelta struct {
	TypeName   string `json:"typeName"`
	CountDelta int    `json:"countDelta"`
	BytesDelta int64  `json:"bytesDelta"`
	Added      bool   `json:"added"`
	Removed    bool   `json:"removed"`
}

// CompareHeap diffs two heap snapshots by type name, per spec.md §4.6.
func CompareHeap(before, after []HeapTypeStat) []HeapTypeDelta {
	beforeByType := make(map[string]HeapTypeStat, len(before))
	for _, s := range before {
		beforeByType[s.TypeName] = s
	}
	afterByType := make(map[string]HeapTypeStat, len(after))
	for _, s := range after {
		afterByType[s.TypeName] = s
	}

	seen := make(map[string]bool)
	var deltas []HeapTypeDelta
	for name, b := range beforeByType {
		seen[name] = true
		a, stillPresent := afterByType[name]
		if !stillPresent {
			deltas = append(deltas, HeapTypeDelta{TypeName: name, CountDelta: -b.Count, BytesDelta: -int64(b.Bytes), Removed: true})
			continue
		}
		deltas = append(deltas, HeapTypeDelta{
			TypeName:   name,
			CountDelta: a.Count - b.Count,
			BytesDelta: int64(a.Bytes) - int64(b.Bytes),
		})
	}
	for name, a := range afterByType {
		if seen[name] {
			continue
		}
		deltas = append(deltas, HeapTypeDelta{TypeName: name, CountDelta: a.Count, BytesDelta: int64(a.Bytes), Added: true})
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].TypeName < deltas[j].TypeName })
	return deltas
}

// ThreadCountDelta compares the number of native threads between two
// dumps.
type ThreadCountDelta struct {
	Before int `json:"before"`
	After  int `json:"after"`
	Delta  int `json:"delta"`
}

// CompareThreadCounts diffs two thread snapshots' counts.
func CompareThreadCounts(before, after []ThreadInfo) ThreadCountDelta {
	return ThreadCountDelta{Before: len(before), After: len(after), Delta: len(after) - len(before)}
}

// ModuleDelta describes one module's change between two dumps: added,
// removed, or a version/size change for a module present in both.
type ModuleDelta struct {
	Name        string `json:"name"`
	Added       bool   `json:"added"`
	Removed     bool   `json:"removed"`
	SizeBefore  uint64 `json:"sizeBefore,omitempty"`
	SizeAfter   uint64 `json:"sizeAfter,omitempty"`
	SizeChanged bool   `json:"sizeChanged,omitempty"`
}

// CompareModules diffs two loaded-module snapshots by name, per spec.md
// §4.6. Size is used as a version-change proxy since ModuleInfo does not
// carry a parsed file-version resource.
func CompareModules(before, after []ModuleInfo) []ModuleDelta {
	beforeByName := make(map[string]ModuleInfo, len(before))
	for _, m := range before {
		beforeByName[m.Name] = m
	}
	afterByName := make(map[string]ModuleInfo, len(after))
	for _, m := range after {
		afterByName[m.Name] = m
	}

	seen := make(map[string]bool)
	var deltas []ModuleDelta
	for name, b := range beforeByName {
		seen[name] = true
		a, stillPresent := afterByName[name]
		if !stillPresent {
			deltas = append(deltas, ModuleDelta{Name: name, Removed: true, SizeBefore: b.Size})
			continue
		}
		deltas = append(deltas, ModuleDelta{
			Name:        name,
			SizeBefore:  b.Size,
			SizeAfter:   a.Size,
			SizeChanged: a.Size != b.Size,
		})
	}
	for name, a := range afterByName {
		if seen[name] {
			continue
		}
		deltas = append(deltas, ModuleDelta{Name: name, Added: true, SizeAfter: a.Size})
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Name < deltas[j].Name })
	return deltas
}
