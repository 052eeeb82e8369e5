package kernel

import (
	"sort"

	"sys2/internal/types"
)

// Query answers a goal with holes by enumerating bindings from the relevant
// index slices and the rule/default machinery, merged with the holographic
// branch by the priority arbiter. Ground goals delegate to Prove.
func (k *Kernel) Query(goal types.Atom, opts types.QueryOpts) (*types.QueryResult, error) {
	if goal.Ground() {
		pr, err := k.Prove(goal, opts)
		if err != nil {
			return nil, err
		}
		res := &types.QueryResult{Success: pr.Valid, Bindings: map[string]types.Binding{}}
		if pr.Valid {
			res.AllResults = []types.Solution{{Bindings: map[string]types.Binding{}}}
		}
		return res, nil
	}
	return k.arbitrate(goal, opts)
}

// candidate is one enumerated solution before ranking.
type candidate struct {
	answers map[string]string
	binding types.Binding
}

// symbolicQuery runs steps 1-3 of the kernel search over every enumerable
// binding of the goal's holes.
func (k *Kernel) symbolicQuery(goal types.Atom, opts types.QueryOpts, sc *searchCtx) ([]candidate, error) {
	var out []candidate
	seen := make(map[string]struct{})

	record := func(subst map[string]string, steps []types.ProofStep, concluding types.ProofStep) {
		answers := make(map[string]string)
		for _, h := range goal.Holes() {
			answers[h] = subst[h]
		}
		sig := signature(answers)
		if _, dup := seen[sig]; dup {
			return
		}
		seen[sig] = struct{}{}
		primary := goal.Holes()[0]
		out = append(out, candidate{
			answers: answers,
			binding: types.Binding{
				Answer:     answers[primary],
				Method:     concluding.Method,
				Similarity: concluding.Similarity,
				HasSim:     concluding.HasSim,
				Steps:      append(steps, concluding),
			},
		})
	}

	// Exact enumeration over the narrowest index slice.
	for _, f := range k.candidates(goal) {
		if err := sc.checkDeadline(); err != nil {
			return nil, err
		}
		subst, ok := match(goal, f, nil)
		if !ok {
			continue
		}
		record(subst, nil, types.ProofStep{Conclusion: *f, Method: types.Exact()})
	}

	// Rule- and default-backed enumeration: ground the holes against the
	// candidate value pool and prove each grounding.
	for _, value := range k.valuePool(goal) {
		if err := sc.checkDeadline(); err != nil {
			return nil, err
		}
		subst := map[string]string{goal.Holes()[0]: value}
		ground := apply(goal, subst)
		if !ground.Ground() {
			continue
		}
		step, sub, ok, err := k.prove(ground, k.opts.DepthLimit, sc)
		if err != nil {
			if types.IsKind(err, types.KindContradiction) {
				continue
			}
			return nil, err
		}
		if ok {
			record(subst, sub, step)
		}
	}
	return out, nil
}

// valuePool enumerates candidate identifiers for a single-hole goal: the
// values seen in the relation's matching slot plus default values for the
// property. Multi-hole goals are answered from exact enumeration only.
func (k *Kernel) valuePool(goal types.Atom) []string {
	if len(goal.Holes()) != 1 {
		return nil
	}
	var pool []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		pool = append(pool, v)
	}
	if !goal.Relation.IsHole {
		for _, f := range k.graph.ByRelation(goal.Relation.Value) {
			if goal.Object.IsHole {
				add(f.Object)
			}
			if goal.Subject.IsHole {
				add(f.Subject)
			}
		}
		for _, d := range k.defaults.ForProperty(goal.Relation.Value) {
			if goal.Object.IsHole {
				add(d.Value)
			}
		}
	}
	if goal.Relation.IsHole {
		for _, f := range k.graph.BySubject(goal.Subject.Value) {
			add(f.Relation)
		}
	}
	return pool
}

func signature(answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k2 := range answers {
		keys = append(keys, k2)
	}
	sort.Strings(keys)
	sig := ""
	for _, k2 := range keys {
		sig += k2 + "=" + answers[k2] + ";"
	}
	return sig
}

// rank orders candidates by method priority (exact > rule > default >
// holographic), then by similarity descending; the stable sort preserves
// enumeration order for ties.
func rank(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		ri, rj := cands[i].binding.Method.Rank(), cands[j].binding.Method.Rank()
		if ri != rj {
			return ri < rj
		}
		return cands[i].binding.Similarity > cands[j].binding.Similarity
	})
}

// assemble converts ranked candidates into the public result record.
func assemble(goal types.Atom, cands []candidate, opts types.QueryOpts) *types.QueryResult {
	if opts.MaxResults > 0 && len(cands) > opts.MaxResults {
		cands = cands[:opts.MaxResults]
	}
	res := &types.QueryResult{Bindings: map[string]types.Binding{}}
	for _, c := range cands {
		sol := types.Solution{Bindings: make(map[string]types.Binding, len(c.answers))}
		for h, v := range c.answers {
			b := c.binding
			b.Answer = v
			sol.Bindings[h] = b
		}
		res.AllResults = append(res.AllResults, sol)
	}
	if len(res.AllResults) > 0 {
		res.Success = true
		res.Bindings = res.AllResults[0].Bindings
	}
	return res
}
