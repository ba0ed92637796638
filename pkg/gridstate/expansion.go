// Package gridstate keeps independently evolving pieces of grid UI state
// (header filters, sort order, row expansion) consistent across the
// asynchronous, debounced, frame-deferred mutations of a virtualized grid
// that owns and periodically discards its row elements.
package gridstate

import (
	"github.com/vanderheijden86/propdeck/pkg/grid"
)

// ExpansionStateStore is a registry of expanded-row identities shared by
// every table on a page. Scope keys distinguish table instances; the store is
// injected, never reached through a global.
//
// Absent and false are the same answer: entries are removed on collapse.
type ExpansionStateStore struct {
	marks map[string]map[string]bool
	// temp holds per-scope snapshots taken before a grid mutation, consumed
	// by the restore that follows it.
	temp map[string][]string
}

// NewExpansionStateStore returns an empty store.
func NewExpansionStateStore() *ExpansionStateStore {
	return &ExpansionStateStore{
		marks: make(map[string]map[string]bool),
		temp:  make(map[string][]string),
	}
}

// Mark records identity as expanded within scope.
func (s *ExpansionStateStore) Mark(scope, identity string) {
	byScope := s.marks[scope]
	if byScope == nil {
		byScope = make(map[string]bool)
		s.marks[scope] = byScope
	}
	byScope[identity] = true
}

// Unmark removes identity from scope.
func (s *ExpansionStateStore) Unmark(scope, identity string) {
	if byScope := s.marks[scope]; byScope != nil {
		delete(byScope, identity)
	}
}

// IsMarked reports whether identity is expanded within scope.
func (s *ExpansionStateStore) IsMarked(scope, identity string) bool {
	return s.marks[scope][identity]
}

// Marked returns every expanded identity within scope.
func (s *ExpansionStateStore) Marked(scope string) []string {
	byScope := s.marks[scope]
	out := make([]string, 0, len(byScope))
	for id := range byScope {
		out = append(out, id)
	}
	return out
}

// Reset drops every entry and temp snapshot for scope.
func (s *ExpansionStateStore) Reset(scope string) {
	delete(s.marks, scope)
	delete(s.temp, scope)
}

// Snapshot collects the identities of the currently rendered rows whose
// record carries the transient expanded flag. It must not yield mid-
// iteration: a half-updated snapshot would be observable by the next loop
// callback.
func (s *ExpansionStateStore) Snapshot(scope string, rows []grid.Row) []string {
	var ids []string
	for _, row := range rows {
		rec := row.Record()
		if rec != nil && rec.Transient.Expanded {
			ids = append(ids, rec.Identity())
		}
	}
	return ids
}

// SaveTemp stashes a snapshot for scope until the restore that follows the
// grid mutation consumes it.
func (s *ExpansionStateStore) SaveTemp(scope string, ids []string) {
	s.temp[scope] = append([]string(nil), ids...)
}

// TakeTemp returns and clears the stashed snapshot for scope.
func (s *ExpansionStateStore) TakeTemp(scope string) []string {
	ids := s.temp[scope]
	delete(s.temp, scope)
	return ids
}

// ApplySnapshot walks the rendered rows and, for each row whose identity is
// in ids but whose transient flag is off, turns the flag back on and asks
// rebuild to reconstruct the row's presentation. It returns the identities
// from ids that were seen among the rendered rows.
func (s *ExpansionStateStore) ApplySnapshot(scope string, ids []string, rows []grid.Row, rebuild func(grid.Row)) []string {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var seen []string
	for _, row := range rows {
		rec := row.Record()
		if rec == nil {
			continue
		}
		id := rec.Identity()
		if !want[id] {
			continue
		}
		seen = append(seen, id)
		s.Mark(scope, id)
		if !rec.Transient.Expanded {
			rec.Transient.Expanded = true
			if rebuild != nil {
				rebuild(row)
			}
		}
	}
	return seen
}
