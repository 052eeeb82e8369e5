package graph

import (
	"sort"

	"sys2/internal/scope"
	"sys2/internal/types"
)

// RuleTable stores the session's rules, unique by name, ordered for firing
// by descending priority with insertion order breaking ties.
type RuleTable struct {
	byName  map[string]*types.Rule
	ordered []*types.Rule
	seq     int
	journal *scope.Journal
}

// NewRuleTable creates an empty rule table journaled by j.
func NewRuleTable(j *scope.Journal) *RuleTable {
	return &RuleTable{byName: make(map[string]*types.Rule), journal: j}
}

// Define inserts a rule. Redefining an existing name is a parse-level error.
func (t *RuleTable) Define(r types.Rule) error {
	if r.Name == "" {
		return types.E(types.KindParse, "rule without a name")
	}
	if _, dup := t.byName[r.Name]; dup {
		return types.E(types.KindParse, "rule %q already defined", r.Name).For(r.Name)
	}
	t.seq++
	r.Seq = t.seq
	stored := r
	t.byName[r.Name] = &stored
	t.ordered = append(t.ordered, &stored)
	t.sortLocked()
	t.journal.Record(func() {
		delete(t.byName, stored.Name)
		for i, x := range t.ordered {
			if x == &stored {
				t.ordered = append(t.ordered[:i], t.ordered[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (t *RuleTable) sortLocked() {
	sort.SliceStable(t.ordered, func(i, j int) bool {
		if t.ordered[i].Priority != t.ordered[j].Priority {
			return t.ordered[i].Priority > t.ordered[j].Priority
		}
		return t.ordered[i].Seq < t.ordered[j].Seq
	})
}

// Get returns the rule with the given name.
func (t *RuleTable) Get(name string) (*types.Rule, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Ordered returns the rules in firing order.
func (t *RuleTable) Ordered() []*types.Rule { return t.ordered }

// Len returns the number of rules.
func (t *RuleTable) Len() int { return len(t.ordered) }

// Clear drops every rule. Used by session reset, outside any transaction.
func (t *RuleTable) Clear() {
	t.byName = make(map[string]*types.Rule)
	t.ordered = nil
	t.seq = 0
}
