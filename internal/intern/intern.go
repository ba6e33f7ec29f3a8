// Package intern provides the three process-wide symbol tables the
// processor core builds everything else on top of: term strings, language
// codes, and ety-mode tags. Each table is a dense, append-only,
// bidirectional map between a string and a 32-bit id.
package intern

import "sync"

// ID is a dense, process-wide symbol id. Zero is a valid id (the first
// interned string); callers that need a sentinel use -1, not 0.
type ID int32

// Table interns strings to dense ids. Equality and hashing on the id side
// become integer ops once a string has been interned once.
//
// Single-writer during the build phase per spec §5: Intern is safe to call
// concurrently, but nothing evicts or mutates an existing entry, so readers
// never need to coordinate with writers beyond the mutex already held here.
type Table struct {
	mu      sync.RWMutex
	byID    []string
	byValue map[string]ID
}

// New creates an empty table.
func New() *Table {
	return &Table{byValue: make(map[string]ID)}
}

// NewWithCapacity preallocates space for n strings, avoiding growth churn
// when the caller already knows the table size (e.g. pre-populating
// language codes from the reference table, spec §4.1).
func NewWithCapacity(n int) *Table {
	return &Table{
		byID:    make([]string, 0, n),
		byValue: make(map[string]ID, n),
	}
}

// Intern returns a stable id for s, allocating a new one on first sight.
func (t *Table) Intern(s string) ID {
	t.mu.RLock()
	if id, ok := t.byValue[s]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byValue[s]; ok {
		return id
	}
	id := ID(len(t.byID))
	t.byID = append(t.byID, s)
	t.byValue[s] = id
	return id
}

// Lookup returns the id for s without interning it.
func (t *Table) Lookup(s string) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byValue[s]
	return id, ok
}

// Resolve returns the original string for id. Panics on an out-of-range id
// since that indicates a programming error (an id from a different table,
// or one never interned here), not a recoverable runtime condition.
func (t *Table) Resolve(id ID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byID[id]
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
