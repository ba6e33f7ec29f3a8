// Package items implements the canonical item store (spec §4.4): dedup by
// (lang, term, ety-number), disambiguation groups by (lang, term), and
// on-demand imputed placeholders for citations that resolve to nothing.
package items

import (
	"sync"

	"github.com/grimmgraph/grimm/internal/entry"
	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/model"
)

type itemKey struct {
	lang  intern.ID
	term  intern.ID
	ety   int
}

// Store is the single-writer-during-build, freely-readable item store
// (spec §5). Grounded on the in-memory map+mutex shape of the reference
// codebase's document store (pkg/docstore/store.go), generalized to item
// dedup keys and disambiguation groups instead of plain id lookup.
type Store struct {
	mu     sync.RWMutex
	terms  *intern.Table
	langs  *intern.Table

	items  []*model.Item
	byKey  map[itemKey]model.ItemID
	groups map[model.GroupKey][]model.ItemID
}

// New creates an empty store. terms/langs are the shared interning tables
// (spec §4.1) used to resolve citation strings to the ids item keys are
// built from.
func New(terms, langs *intern.Table) *Store {
	return &Store{
		terms:  terms,
		langs:  langs,
		byKey:  make(map[itemKey]model.ItemID),
		groups: make(map[model.GroupKey][]model.ItemID),
	}
}

// Upsert implements the pass-1 pseudo-contract (spec §4.4): allocate a new
// item on first sight of (lang, term, ety-number), or merge senses into the
// existing one. Returns the item's id.
func (s *Store) Upsert(e *entry.Entry) model.ItemID {
	langID := s.langs.Intern(e.Lang)
	termID := s.terms.Intern(e.Term)
	key := itemKey{lang: langID, term: termID, ety: e.EtyNumber}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[key]; ok {
		it := s.items[id]
		it.Senses = append(it.Senses, toModelSenses(e)...)
		if e.Reconstructed {
			it.Reconstructed = true
		}
		return id
	}

	id := model.ItemID(len(s.items))
	it := &model.Item{
		ID:            id,
		Lang:          langID,
		Term:          termID,
		EtyNumber:     e.EtyNumber,
		Reconstructed: e.Reconstructed,
		Senses:        toModelSenses(e),
	}
	s.items = append(s.items, it)
	s.byKey[key] = id

	gk := model.GroupKey{Lang: langID, Term: termID}
	s.groups[gk] = append(s.groups[gk], id)
	return id
}

// Lookup returns the id of the item already stored under (lang, term,
// ety), without creating or mutating anything. Used by pass 2 to recover
// the item an entry was assigned in pass 1 without re-merging its senses.
func (s *Store) Lookup(lang, term intern.ID, ety int) (model.ItemID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[itemKey{lang: lang, term: term, ety: ety}]
	return id, ok
}

func toModelSenses(e *entry.Entry) []model.Sense {
	out := make([]model.Sense, 0, len(e.Senses))
	for _, s := range e.Senses {
		out = append(out, model.Sense{POS: e.POS, Gloss: s.Gloss})
	}
	return out
}

// Group returns the disambiguation group for (lang, term): every item id
// sharing that pair, real or imputed, in the order they were created
// (spec §3 "Disambiguation group").
func (s *Store) Group(lang, term intern.ID) []model.ItemID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.groups[model.GroupKey{Lang: lang, Term: term}]
	out := make([]model.ItemID, len(g))
	copy(out, g)
	return out
}

// Get returns the item for id.
func (s *Store) Get(id model.ItemID) *model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.items) {
		return nil
	}
	return s.items[id]
}

// Len returns the total number of items, real and imputed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// All returns every item in id order. Callers must not mutate the result.
func (s *Store) All() []*model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Impute allocates a placeholder item for a (lang, term) citation that has
// no real item (spec §4.4). The new item is placed in its own
// disambiguation group; if the group already has members, callers should
// not call Impute — see ResolveOrImpute.
func (s *Store) Impute(lang, term intern.ID) model.ItemID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := model.ItemID(len(s.items))
	it := &model.Item{
		ID:      id,
		Lang:    lang,
		Term:    term,
		Imputed: true,
	}
	s.items = append(s.items, it)

	gk := model.GroupKey{Lang: lang, Term: term}
	s.groups[gk] = append(s.groups[gk], id)
	return id
}

// ResolveOrImpute returns the disambiguation group for (lang, term),
// imputing a fresh placeholder item first if the group is currently empty.
// This is the single entry point the etymology/descendants builders use to
// turn a citation into a non-empty candidate group (spec §4.4, §4.6).
func (s *Store) ResolveOrImpute(lang, term intern.ID) []model.ItemID {
	if g := s.Group(lang, term); len(g) > 0 {
		return g
	}
	id := s.Impute(lang, term)
	return []model.ItemID{id}
}

// Upgrade marks an imputed item as superseded by a real item discovered
// afterward (spec §4.4, §4.9 "Inheritance of imputed edges"). The imputed
// item itself is never mutated beyond this marker; edges are rewritten to
// RealID only at serialize time (spec §4.10).
func (s *Store) Upgrade(imputedID, realID model.ItemID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.items[imputedID]
	it.MarkReplaced(realID)
}

// Resolve follows an item's replacement chain to the item that should be
// used as an edge endpoint at serialize time: itself if never replaced,
// else its (possibly further-replaced) target.
func (s *Store) Resolve(id model.ItemID) model.ItemID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[model.ItemID]bool{}
	for {
		it := s.items[id]
		if !it.IsReplaced() {
			return id
		}
		if seen[it.ReplacedBy] {
			return id // defensive: break an accidental replacement cycle
		}
		seen[id] = true
		id = it.ReplacedBy
	}
}
