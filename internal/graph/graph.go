// Package graph holds the session's classical knowledge: the typed fact
// graph with its inverted indices, the rule table and the defaults table.
// All mutation goes through the transaction journal so a failed learn or a
// rejected contradiction rolls back atomically.
package graph

import (
	"sort"

	"sys2/internal/scope"
	"sys2/internal/types"
)

type relObj struct {
	relation string
	object   string
}

// Graph is the fact store. The primary index is keyed on
// (subject, relation, object, polarity); secondary indices cover subject,
// relation and (relation, object). Derived facts additionally record their
// premise sets so cascade retraction can garbage-collect derivations whose
// support disappears.
type Graph struct {
	primary    map[types.FactKey]*types.Fact
	bySubject  map[string][]*types.Fact
	byRelation map[string][]*types.Fact
	byRelObj   map[relObj][]*types.Fact
	premises   map[types.FactKey][][]types.FactKey
	journal    *scope.Journal
}

// New creates an empty graph journaled by j.
func New(j *scope.Journal) *Graph {
	return &Graph{
		primary:    make(map[types.FactKey]*types.Fact),
		bySubject:  make(map[string][]*types.Fact),
		byRelation: make(map[string][]*types.Fact),
		byRelObj:   make(map[relObj][]*types.Fact),
		premises:   make(map[types.FactKey][][]types.FactKey),
		journal:    j,
	}
}

// Count returns the number of stored facts.
func (g *Graph) Count() int { return len(g.primary) }

// Has reports whether the exact fact key is stored.
func (g *Graph) Has(key types.FactKey) bool {
	_, ok := g.primary[key]
	return ok
}

// Get returns the stored fact for key.
func (g *Graph) Get(key types.FactKey) (*types.Fact, bool) {
	f, ok := g.primary[key]
	return f, ok
}

// Assert inserts an asserted fact. A conflicting-polarity fact signals
// Contradiction; the caller decides whether to reject or tolerate it.
// Duplicates are a no-op.
func (g *Graph) Assert(f types.Fact) (bool, error) {
	return g.insert(f, nil)
}

// AssertDerived inserts a derived fact together with one supporting premise
// set. Re-deriving an existing fact records the additional premise set.
func (g *Graph) AssertDerived(f types.Fact, premises []types.FactKey) (bool, error) {
	return g.insert(f, premises)
}

func (g *Graph) insert(f types.Fact, premises []types.FactKey) (bool, error) {
	key := f.Key()
	if g.Has(key.Opposite()) {
		return false, types.E(types.KindContradiction,
			"fact %s conflicts with existing opposite-polarity fact", f).For(f.String())
	}
	if _, dup := g.primary[key]; dup {
		if premises != nil {
			g.addPremises(key, premises)
		}
		return false, nil
	}
	stored := f
	g.addToIndices(&stored)
	if premises != nil {
		g.addPremises(key, premises)
	}
	g.journal.Record(func() { g.removeFromIndices(key) })
	return true, nil
}

func (g *Graph) addPremises(key types.FactKey, premises []types.FactKey) {
	set := append([]types.FactKey{}, premises...)
	g.premises[key] = append(g.premises[key], set)
	g.journal.Record(func() {
		sets := g.premises[key]
		if len(sets) <= 1 {
			delete(g.premises, key)
		} else {
			g.premises[key] = sets[:len(sets)-1]
		}
	})
}

func (g *Graph) addToIndices(f *types.Fact) {
	key := f.Key()
	g.primary[key] = f
	g.bySubject[f.Subject] = append(g.bySubject[f.Subject], f)
	g.byRelation[f.Relation] = append(g.byRelation[f.Relation], f)
	ro := relObj{relation: f.Relation, object: f.Object}
	g.byRelObj[ro] = append(g.byRelObj[ro], f)
}

func (g *Graph) removeFromIndices(key types.FactKey) {
	f, ok := g.primary[key]
	if !ok {
		return
	}
	delete(g.primary, key)
	g.bySubject[f.Subject] = drop(g.bySubject[f.Subject], f)
	g.byRelation[f.Relation] = drop(g.byRelation[f.Relation], f)
	ro := relObj{relation: f.Relation, object: f.Object}
	g.byRelObj[ro] = drop(g.byRelObj[ro], f)
}

func drop(facts []*types.Fact, f *types.Fact) []*types.Fact {
	for i, x := range facts {
		if x == f {
			return append(facts[:i], facts[i+1:]...)
		}
	}
	return facts
}

// Retract removes both polarities of (s, r, o) and cascades: derived facts
// whose every premise set loses a member are removed recursively within the
// same transaction.
func (g *Graph) Retract(s, r, o string) int {
	removed := 0
	for _, pol := range []types.Polarity{types.Pos, types.Neg} {
		key := types.FactKey{Subject: s, Relation: r, Object: o, Polarity: pol}
		if g.remove(key) {
			removed++
		}
	}
	return removed
}

// remove deletes one fact key with journaling and cascades to dependents.
func (g *Graph) remove(key types.FactKey) bool {
	f, ok := g.primary[key]
	if !ok {
		return false
	}
	saved := *f
	savedPremises := g.premises[key]
	g.removeFromIndices(key)
	delete(g.premises, key)
	g.journal.Record(func() {
		restored := saved
		g.addToIndices(&restored)
		if savedPremises != nil {
			g.premises[key] = savedPremises
		}
	})
	g.cascade(key)
	return true
}

// cascade removes derived facts left with no surviving premise set after key
// disappeared.
func (g *Graph) cascade(removed types.FactKey) {
	var doomed []types.FactKey
	for derived, sets := range g.premises {
		surviving := sets[:0:0]
		for _, set := range sets {
			holds := true
			for _, prem := range set {
				if prem == removed || !g.Has(prem) {
					holds = false
					break
				}
			}
			if holds {
				surviving = append(surviving, set)
			}
		}
		if len(surviving) == len(sets) {
			continue
		}
		prev := sets
		if len(surviving) == 0 {
			doomed = append(doomed, derived)
		} else {
			g.premises[derived] = surviving
			g.journal.Record(func() { g.premises[derived] = prev })
		}
	}
	sort.Slice(doomed, func(i, j int) bool { return factKeyLess(doomed[i], doomed[j]) })
	for _, key := range doomed {
		g.remove(key)
	}
}

func factKeyLess(a, b types.FactKey) bool {
	if a.Subject != b.Subject {
		return a.Subject < b.Subject
	}
	if a.Relation != b.Relation {
		return a.Relation < b.Relation
	}
	if a.Object != b.Object {
		return a.Object < b.Object
	}
	return a.Polarity < b.Polarity
}

// BySubject returns the facts with the given subject, in insertion order.
func (g *Graph) BySubject(s string) []*types.Fact { return g.bySubject[s] }

// ByRelation returns the facts with the given relation, in insertion order.
func (g *Graph) ByRelation(r string) []*types.Fact { return g.byRelation[r] }

// ByRelationObject returns the facts with the given relation and object.
func (g *Graph) ByRelationObject(r, o string) []*types.Fact {
	return g.byRelObj[relObj{relation: r, object: o}]
}

// HasExplicit reports whether any asserted or derived (non-default) fact
// exists on (subject, property, *), either polarity. Used by default firing.
func (g *Graph) HasExplicit(subject, property string) bool {
	for _, f := range g.bySubject[subject] {
		if f.Relation == property && f.Source != types.SourceDefault {
			return true
		}
	}
	return false
}

// All returns every stored fact in a deterministic order.
func (g *Graph) All() []types.Fact {
	keys := make([]types.FactKey, 0, len(g.primary))
	for k := range g.primary {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return factKeyLess(keys[i], keys[j]) })
	out := make([]types.Fact, len(keys))
	for i, k := range keys {
		out[i] = *g.primary[k]
	}
	return out
}

// Clear drops everything. Used by session reset, outside any transaction.
func (g *Graph) Clear() {
	g.primary = make(map[types.FactKey]*types.Fact)
	g.bySubject = make(map[string][]*types.Fact)
	g.byRelation = make(map[string][]*types.Fact)
	g.byRelObj = make(map[relObj][]*types.Fact)
	g.premises = make(map[types.FactKey][][]types.FactKey)
}
