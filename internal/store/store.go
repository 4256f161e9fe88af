// Package store implements the content-addressed store collaborator
// the evaluator core treats as opaque: registering content under a
// deterministic store path, querying path validity and references, and
// realising string-context placeholders into concrete paths. SQLiteStore
// is a reference implementation only — a production store is a daemon
// talking to a real filesystem, not a single SQLite file.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	_ "modernc.org/sqlite"
)

// PathInfo describes one registered store path: its content size and
// the other store paths it references.
type PathInfo struct {
	StorePath  string
	Size       int64
	References []string
}

// Derivation is the parsed form of a `.drv` file: the builder-facing
// instantiation recipe. SQLiteStore does not parse `.drv` text;
// ReadDerivation answers from recorded rows only.
type Derivation struct {
	Name    string
	Outputs map[string]string // output name -> store path
	Inputs  []string          // input derivation/store paths
}

// Store is the full collaborator interface the evaluator's external
// surface names: narrow enough that the core only ever imports the
// eval.ContentStore/builtins.Store subsets of it, wide enough that one
// concrete type can satisfy both plus the realise/query operations a
// real store needs.
type Store interface {
	IsValidPath(storePath string) bool
	QueryPathInfo(storePath string) (PathInfo, error)
	AddTextToStore(name, content string, refs []string) (string, error)
	ComputeStorePath(name, content string, refs []string) (string, error)
	ReadDerivation(storePath string) (Derivation, error)
	ToRealPath(storePath string) (string, error)
	RealiseContext(ctx context.Context, placeholders []string) (map[string]string, error)
}

// SQLiteStore is a single-file reference store: path contents live
// under root/, and a SQLite path-info table (mirroring lix/libstore's
// real daemon database) tracks validity, size and references. Realising
// placeholders is bounded by a weighted semaphore so a pathological
// expression can't fan out unbounded concurrent "builds".
type SQLiteStore struct {
	root string
	db   *sql.DB
	sem  *semaphore.Weighted

	mu sync.Mutex
}

// Open creates (or reuses) a SQLite-backed store rooted at dir, with
// maxConcurrentRealise bounding RealiseContext's concurrency.
func Open(dir string, maxConcurrentRealise int64) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	dbPath := filepath.Join(dir, "paths.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS path_info (
	store_path TEXT PRIMARY KEY,
	size       INTEGER NOT NULL,
	references_json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS derivations (
	store_path TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	body       TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	if maxConcurrentRealise <= 0 {
		maxConcurrentRealise = 1
	}
	return &SQLiteStore{root: dir, db: db, sem: semaphore.NewWeighted(maxConcurrentRealise)}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// ComputeStorePath names content the same way AddTextToStore will, but
// performs no writes — used by builtins that need a path string without
// committing content (dry instantiation, hash-matching checks).
func (s *SQLiteStore) ComputeStorePath(name, content string, refs []string) (string, error) {
	return storePathFor(name, content), nil
}

func storePathFor(name, content string) string {
	sum := sha256.Sum256([]byte(content))
	digest := hex.EncodeToString(sum[:])[:32]
	return "/store/" + digest + "-" + sanitizeName(name)
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// AddTextToStore writes content under its computed path (idempotently —
// re-adding identical content is a no-op) and records its path-info row.
func (s *SQLiteStore) AddTextToStore(name, content string, refs []string) (string, error) {
	storePath := storePathFor(name, content)

	s.mu.Lock()
	defer s.mu.Unlock()

	objPath := filepath.Join(s.root, "objects", filepath.Base(storePath))
	if _, err := os.Stat(objPath); os.IsNotExist(err) {
		if err := os.WriteFile(objPath, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("store: write object: %w", err)
		}
	}

	sortedRefs := append([]string(nil), refs...)
	sort.Strings(sortedRefs)
	refsJSON := "[" + strings.Join(quoteAll(sortedRefs), ",") + "]"
	_, err := s.db.Exec(
		`INSERT INTO path_info (store_path, size, references_json) VALUES (?, ?, ?)
		 ON CONFLICT(store_path) DO UPDATE SET size=excluded.size, references_json=excluded.references_json`,
		storePath, len(content), refsJSON,
	)
	if err != nil {
		return "", fmt.Errorf("store: record path info: %w", err)
	}
	return storePath, nil
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return out
}

// IsValidPath reports whether storePath has a recorded path-info row.
func (s *SQLiteStore) IsValidPath(storePath string) bool {
	var n int
	row := s.db.QueryRow(`SELECT COUNT(*) FROM path_info WHERE store_path = ?`, storePath)
	if err := row.Scan(&n); err != nil {
		return false
	}
	return n > 0
}

// QueryPathInfo returns the recorded size and references for storePath.
func (s *SQLiteStore) QueryPathInfo(storePath string) (PathInfo, error) {
	var size int64
	var refsJSON string
	row := s.db.QueryRow(`SELECT size, references_json FROM path_info WHERE store_path = ?`, storePath)
	if err := row.Scan(&size, &refsJSON); err != nil {
		return PathInfo{}, fmt.Errorf("store: %s is not a valid path", storePath)
	}
	refs := parseRefsJSON(refsJSON)
	return PathInfo{StorePath: storePath, Size: size, References: refs}, nil
}

func parseRefsJSON(s string) []string {
	s = strings.TrimPrefix(strings.TrimSuffix(s, "]"), "[")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(strings.TrimSuffix(p, `"`), `"`)
		out[i] = strings.ReplaceAll(p, `\"`, `"`)
	}
	return out
}

// ReadDerivation returns the minimal Derivation shape for storePath,
// with the path itself as its sole "out" output (this reference store
// has no real builder protocol). A row in the derivations table supplies
// the name; otherwise the name is the store path and the inputs are its
// recorded references. Nothing in this store writes derivations rows,
// and the `.drv` body is not parsed.
func (s *SQLiteStore) ReadDerivation(storePath string) (Derivation, error) {
	var name, body string
	row := s.db.QueryRow(`SELECT name, body FROM derivations WHERE store_path = ?`, storePath)
	err := row.Scan(&name, &body)
	if err == sql.ErrNoRows {
		info, infoErr := s.QueryPathInfo(storePath)
		if infoErr != nil {
			return Derivation{}, fmt.Errorf("store: no derivation recorded for %s", storePath)
		}
		return Derivation{Name: storePath, Outputs: map[string]string{"out": storePath}, Inputs: info.References}, nil
	}
	if err != nil {
		return Derivation{}, fmt.Errorf("store: read derivation: %w", err)
	}
	return Derivation{Name: name, Outputs: map[string]string{"out": storePath}}, nil
}

// ToRealPath maps a store path to where its content actually lives on
// disk; for this reference store that's just the objects directory.
func (s *SQLiteStore) ToRealPath(storePath string) (string, error) {
	if !s.IsValidPath(storePath) {
		return "", fmt.Errorf("store: %s is not a valid path", storePath)
	}
	return filepath.Join(s.root, "objects", filepath.Base(storePath)), nil
}

// RealiseContext resolves each placeholder (an opaque string-context
// reference, typically a drv output) to its concrete store path,
// bounding concurrent realisation with the store's semaphore and
// honoring ctx cancellation between acquisitions.
func (s *SQLiteStore) RealiseContext(ctx context.Context, placeholders []string) (map[string]string, error) {
	out := make(map[string]string, len(placeholders))
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, len(placeholders))

	for _, p := range placeholders {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("store: realise context: %w", err)
		}
		wg.Add(1)
		go func(placeholder string) {
			defer s.sem.Release(1)
			defer wg.Done()
			if !s.IsValidPath(placeholder) {
				errCh <- fmt.Errorf("store: cannot realise unknown path %s", placeholder)
				return
			}
			mu.Lock()
			out[placeholder] = placeholder
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
