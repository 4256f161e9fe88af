package postable

import "testing"

func TestResolveLineAndColumn(t *testing.T) {
	tbl := NewTable()
	text := "abc\ndef\nghi"
	origin := tbl.AddOrigin(Origin{Kind: OriginFile, Name: "test.nix", Text: text})

	// offset 5 is 'e' in "def", line 2 column 2.
	idx := tbl.Add(origin, 5)
	pos := tbl.Resolve(idx)
	if pos.Line != 2 || pos.Column != 2 {
		t.Fatalf("Resolve(5) = %+v, want line 2 column 2", pos)
	}

	// offset 0 is the very first byte, line 1 column 1.
	idxStart := tbl.Add(origin, 0)
	posStart := tbl.Resolve(idxStart)
	if posStart.Line != 1 || posStart.Column != 1 {
		t.Fatalf("Resolve(0) = %+v, want line 1 column 1", posStart)
	}
}

func TestAddOriginDedupesByKindAndName(t *testing.T) {
	tbl := NewTable()
	a := tbl.AddOrigin(Origin{Kind: OriginFile, Name: "same.nix", Text: "1"})
	b := tbl.AddOrigin(Origin{Kind: OriginFile, Name: "same.nix", Text: "2"})
	if a != b {
		t.Fatalf("AddOrigin with the same (kind, name) should reuse the slot: %d != %d", a, b)
	}
}

func TestResolveOutOfRangeIsUnknown(t *testing.T) {
	tbl := NewTable()
	pos := tbl.Resolve(PosIdx(42))
	if pos.File != "<unknown>" {
		t.Fatalf("Resolve on an unknown PosIdx should report <unknown>, got %+v", pos)
	}
}
