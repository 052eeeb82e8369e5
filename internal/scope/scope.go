package scope

import (
	"sys2/internal/hdc"
)

// entry is one named binding. Persistent entries survive transaction
// rollback; transient entries are purged with the rest of the journal.
type entry struct {
	vec     hdc.Vector
	persist bool
}

// Scope is the session's name-to-vector map for DSL @name destinations.
type Scope struct {
	entries map[string]entry
	journal *Journal
}

// New creates an empty scope journaled by j.
func New(j *Journal) *Scope {
	return &Scope{entries: make(map[string]entry), journal: j}
}

// Set binds name to vec. The persist flag marks the entry as surviving
// transaction rollback at the session level.
func (s *Scope) Set(name string, vec hdc.Vector, persist bool) {
	prev, existed := s.entries[name]
	s.entries[name] = entry{vec: vec, persist: persist}
	s.journal.Record(func() {
		cur, ok := s.entries[name]
		if ok && cur.persist {
			// Persistent entries survive rollback.
			return
		}
		if existed {
			s.entries[name] = prev
		} else {
			delete(s.entries, name)
		}
	})
}

// Get returns the vector bound to name.
func (s *Scope) Get(name string) (hdc.Vector, bool) {
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.vec, true
}

// Persistent reports whether name carries the persist flag.
func (s *Scope) Persistent(name string) bool {
	e, ok := s.entries[name]
	return ok && e.persist
}

// Names returns all bound names.
func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.entries))
	for n := range s.entries {
		out = append(out, n)
	}
	return out
}

// Len returns the number of bound names.
func (s *Scope) Len() int { return len(s.entries) }

// Clear drops every binding. Used by session reset, outside any transaction.
func (s *Scope) Clear() {
	s.entries = make(map[string]entry)
}
