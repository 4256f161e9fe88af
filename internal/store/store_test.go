package store

import (
	"context"
	"testing"
)

func TestAddTextToStoreIsIdempotent(t *testing.T) {
	st, err := Open(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	p1, err := st.AddTextToStore("pkg", "hello", nil)
	if err != nil {
		t.Fatalf("AddTextToStore: %v", err)
	}
	p2, err := st.AddTextToStore("pkg", "hello", nil)
	if err != nil {
		t.Fatalf("AddTextToStore (second call): %v", err)
	}
	if p1 != p2 {
		t.Fatalf("adding identical content twice produced different paths: %q vs %q", p1, p2)
	}
	if !st.IsValidPath(p1) {
		t.Fatalf("IsValidPath(%q) = false after AddTextToStore", p1)
	}
}

func TestComputeStorePathMatchesAddTextToStore(t *testing.T) {
	st, err := Open(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	computed, _ := st.ComputeStorePath("pkg", "content", nil)
	added, err := st.AddTextToStore("pkg", "content", nil)
	if err != nil {
		t.Fatalf("AddTextToStore: %v", err)
	}
	if computed != added {
		t.Fatalf("ComputeStorePath = %q, AddTextToStore = %q; should name content identically", computed, added)
	}
}

func TestQueryPathInfoReportsReferences(t *testing.T) {
	st, err := Open(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	dep, _ := st.AddTextToStore("dep", "1", nil)
	top, err := st.AddTextToStore("top", "2", []string{dep})
	if err != nil {
		t.Fatalf("AddTextToStore: %v", err)
	}
	info, err := st.QueryPathInfo(top)
	if err != nil {
		t.Fatalf("QueryPathInfo: %v", err)
	}
	if len(info.References) != 1 || info.References[0] != dep {
		t.Fatalf("got references %v, want [%s]", info.References, dep)
	}
}

func TestIsValidPathFalseForUnknown(t *testing.T) {
	st, err := Open(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	if st.IsValidPath("/store/not-there") {
		t.Fatalf("IsValidPath should be false for a path never added")
	}
}

func TestRealiseContextResolvesValidPaths(t *testing.T) {
	st, err := Open(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	p, err := st.AddTextToStore("pkg", "content", nil)
	if err != nil {
		t.Fatalf("AddTextToStore: %v", err)
	}
	out, err := st.RealiseContext(context.Background(), []string{p})
	if err != nil {
		t.Fatalf("RealiseContext: %v", err)
	}
	if out[p] != p {
		t.Fatalf("RealiseContext(%q) = %v, want a self-mapping", p, out)
	}

	if _, err := st.RealiseContext(context.Background(), []string{"/store/unknown"}); err == nil {
		t.Fatalf("RealiseContext should fail for a path never added")
	}
}
