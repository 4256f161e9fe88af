// Package postable interns source origins and resolves byte offsets to
// line/column positions lazily, caching the result per origin.
package postable

import "sort"

// PosIdx is a handle into a Table, naming an origin plus a byte offset
// within it.
type PosIdx int

// NoPos is the reserved "absent position" value.
const NoPos PosIdx = -1

// OriginKind distinguishes where source text came from, for error
// messages and sandboxing decisions upstream.
type OriginKind int

const (
	OriginFile OriginKind = iota
	OriginStdin
	OriginString
	OriginHidden
)

// Origin identifies one source blob.
type Origin struct {
	Kind OriginKind
	Name string // file path, or a label for stdin/string/hidden origins
	Text string // full source text, used for lazy line/col computation
}

// Pos is a fully resolved source position.
type Pos struct {
	File   string
	Line   int // 1-based
	Column int // 1-based
}

type entry struct {
	originIdx int
	offset    int
}

// Table interns Origins and resolves PosIdx values against them.
type Table struct {
	origins   []Origin
	entries   []entry
	lineStart [][]int // lazily computed per origin: byte offset of each line start
}

// NewTable returns an empty position table.
func NewTable() *Table {
	return &Table{}
}

// AddOrigin interns an origin and returns its index, reusing an
// existing slot if the same (kind, name) pair was already added so that
// multiple positions in the same file share one origin record.
func (t *Table) AddOrigin(o Origin) int {
	for i, existing := range t.origins {
		if existing.Kind == o.Kind && existing.Name == o.Name {
			return i
		}
	}
	t.origins = append(t.origins, o)
	t.lineStart = append(t.lineStart, nil)
	return len(t.origins) - 1
}

// Add interns a (origin, byte_offset) pair and returns its PosIdx.
func (t *Table) Add(originIdx int, byteOffset int) PosIdx {
	t.entries = append(t.entries, entry{originIdx: originIdx, offset: byteOffset})
	return PosIdx(len(t.entries) - 1)
}

// Origin returns the origin a PosIdx was interned against.
func (t *Table) Origin(idx PosIdx) Origin {
	if idx < 0 || int(idx) >= len(t.entries) {
		return Origin{Kind: OriginHidden, Name: "<unknown>"}
	}
	return t.origins[t.entries[idx].originIdx]
}

func (t *Table) lineStartsFor(originIdx int) []int {
	if t.lineStart[originIdx] != nil {
		return t.lineStart[originIdx]
	}
	text := t.origins[originIdx].Text
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	t.lineStart[originIdx] = starts
	return starts
}

// Resolve computes the (file, line, column) for a PosIdx, computing and
// caching the origin's line table on first use.
func (t *Table) Resolve(idx PosIdx) Pos {
	if idx < 0 || int(idx) >= len(t.entries) {
		return Pos{File: "<unknown>"}
	}
	e := t.entries[idx]
	o := t.origins[e.originIdx]
	starts := t.lineStartsFor(e.originIdx)
	// last line-start <= offset
	line := sort.Search(len(starts), func(i int) bool { return starts[i] > e.offset }) - 1
	if line < 0 {
		line = 0
	}
	col := e.offset - starts[line] + 1
	name := o.Name
	if o.Kind != OriginFile {
		name = "<" + name + ">"
	}
	return Pos{File: name, Line: line + 1, Column: col}
}
