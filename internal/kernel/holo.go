package kernel

import (
	"sys2/internal/hdc"
	"sys2/internal/types"
)

// Candidate-set caps for holographic cleanup.
const (
	cleanupCap      = 10
	cleanupCapLarge = 25
	largeVocabSize  = 100
)

// holographic answers a single-hole goal by vector arithmetic: it builds the
// partial vector over the known slots, unbinds it (and the answer slot's
// position) out of the session superposition, and cleans the estimate up
// against a bounded candidate set. The branch returns no result unless the
// top candidate clears HDC_MATCH with a strict margin over the runner-up.
// The returned margin is the top-1/top-2 separation, consulted by the
// arbiter's verification gate in holographic-priority mode.
func (k *Kernel) holographic(goal types.Atom, sc *searchCtx) (*candidate, float32, error) {
	if k.memory == nil {
		return nil, 0, nil
	}
	mem := k.memory()
	if mem == nil {
		return nil, 0, nil
	}
	holes := goal.Holes()
	if len(holes) != 1 {
		return nil, 0, nil
	}

	// Slot layout: operator (relation) at position 0, subject at 1, object
	// at 2. The partial folds the known slots in slot order.
	slots := []types.Term{goal.Relation, goal.Subject, goal.Object}
	holeSlot := -1
	var known []hdc.Vector
	var knownPos []int
	for i, t := range slots {
		if t.IsHole {
			holeSlot = i
			continue
		}
		vec, err := k.vocab.GetOrCreate(t.Value)
		if err != nil {
			return nil, 0, err
		}
		known = append(known, vec)
		knownPos = append(knownPos, i)
	}
	if holeSlot < 0 || len(known) == 0 {
		return nil, 0, nil
	}

	partial, err := k.ops.BindAtPositions(known, knownPos)
	if err != nil {
		return nil, 0, err
	}
	est, err := k.ops.Unbind(mem, partial)
	if err != nil {
		return nil, 0, err
	}
	est, err = k.ops.Unbind(est, k.ops.PositionAt(holeSlot))
	if err != nil {
		return nil, 0, err
	}
	k.stats.HolographicDecodes++

	ids := k.cleanupCandidates(goal, holeSlot)
	if len(ids) == 0 {
		return nil, 0, nil
	}
	th := k.ops.Codec().Thresholds()

	var top1, top2 vecopsMatch
	for _, id := range ids {
		if err := sc.checkDeadline(); err != nil {
			return nil, 0, err
		}
		vec, err := k.vocab.GetOrCreate(id)
		if err != nil {
			return nil, 0, err
		}
		sim, err := k.ops.Similarity(est, vec)
		if err != nil {
			return nil, 0, err
		}
		switch {
		case top1.id == "" || sim > top1.sim:
			top2 = top1
			top1 = vecopsMatch{id: id, sim: sim}
		case top2.id == "" || sim > top2.sim:
			top2 = vecopsMatch{id: id, sim: sim}
		}
	}

	if top1.id == "" || top1.sim < th.HDCMatch {
		return nil, 0, nil
	}
	if top2.id != "" && !(top1.sim > top2.sim) {
		return nil, 0, nil
	}

	hole := holes[0]
	conclusion := apply(goal, map[string]string{hole: top1.id}).Fact(types.SourceDerived)
	step := types.ProofStep{
		Conclusion: conclusion,
		Method:     types.Holographic(),
		Similarity: top1.sim,
		HasSim:     true,
	}
	return &candidate{
		answers: map[string]string{hole: top1.id},
		binding: types.Binding{
			Answer:     top1.id,
			Method:     types.Holographic(),
			Similarity: top1.sim,
			HasSim:     true,
			Steps:      []types.ProofStep{step},
		},
	}, top1.margin(top2), nil
}

type vecopsMatch struct {
	id  string
	sim float32
}

func (m vecopsMatch) margin(other vecopsMatch) float32 {
	if other.id == "" {
		return m.sim
	}
	return m.sim - other.sim
}

// cleanupCandidates gathers the bounded candidate set: the union of the
// atoms appearing in the goal slot's index slice and, when an expected type
// is derivable for that slot, every isA member of those types. The union is
// capped at the configured size.
func (k *Kernel) cleanupCandidates(goal types.Atom, holeSlot int) []string {
	limit := cleanupCap
	if k.vocab.Len() > largeVocabSize {
		limit = cleanupCapLarge
	}
	var pool []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if len(pool) >= limit {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		pool = append(pool, v)
	}

	switch holeSlot {
	case 2: // object hole
		for _, f := range k.graph.ByRelation(goal.Relation.Value) {
			add(f.Object)
		}
	case 1: // subject hole
		for _, f := range k.graph.ByRelation(goal.Relation.Value) {
			add(f.Subject)
		}
	case 0: // relation hole
		for _, f := range k.graph.BySubject(goal.Subject.Value) {
			add(f.Relation)
		}
	}

	// Atoms of the expected type: members reachable through isA for the
	// types the slot is known to hold. Covers answers that never appear in
	// the queried relation's own index.
	if holeSlot == 1 || holeSlot == 2 {
		for _, typ := range k.expectedTypes(goal.Relation.Value, holeSlot) {
			for _, f := range k.graph.ByRelationObject("isA", typ) {
				if f.Polarity == types.Pos {
					add(f.Subject)
				}
			}
		}
	}
	return pool
}

// expectedTypes infers the types a relation's slot is known to hold: the isA
// types of the fillers already stored in that slot, plus the subject types
// of any defaults declared on the property.
func (k *Kernel) expectedTypes(relation string, holeSlot int) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, f := range k.graph.ByRelation(relation) {
		if f.Polarity != types.Pos {
			continue
		}
		filler := f.Object
		if holeSlot == 1 {
			filler = f.Subject
		}
		for _, isa := range k.graph.BySubject(filler) {
			if isa.Relation == "isA" && isa.Polarity == types.Pos {
				add(isa.Object)
			}
		}
	}
	if holeSlot == 1 {
		for _, d := range k.defaults.ForProperty(relation) {
			add(d.Type)
		}
	}
	return out
}
