// Package kernel implements the bounded prove/query search: unification of
// goals with holes, rule chaining with depth bound and cycle detection,
// default firing with exception checks, contradiction detection, proof
// accumulation and the similarity-backed holographic branch.
package kernel

import (
	"fmt"
	"time"

	"sys2/internal/graph"
	"sys2/internal/hdc"
	"sys2/internal/logging"
	"sys2/internal/types"
	"sys2/internal/vecops"
	"sys2/internal/vocab"
)

// Kernel is the reasoning engine of one session. It reads the fact graph,
// rule table and defaults table, and consults the HDC layer through the
// operations dispatcher when the holographic branch is gated on.
type Kernel struct {
	graph    *graph.Graph
	rules    *graph.RuleTable
	defaults *graph.DefaultsTable
	vocab    *vocab.Vocabulary
	ops      *vecops.Ops
	opts     types.SessionOptions
	stats    *types.Stats
	// memory returns the session's running superposition of learned triple
	// records, or nil when nothing holographic has been learned yet.
	memory func() hdc.Vector
	log    *logging.Logger
}

// New creates a kernel over the session's stores.
func New(g *graph.Graph, rules *graph.RuleTable, defaults *graph.DefaultsTable,
	voc *vocab.Vocabulary, ops *vecops.Ops, opts types.SessionOptions,
	stats *types.Stats, memory func() hdc.Vector) *Kernel {
	return &Kernel{
		graph:    g,
		rules:    rules,
		defaults: defaults,
		vocab:    voc,
		ops:      ops,
		opts:     opts,
		stats:    stats,
		memory:   memory,
		log:      logging.Get(logging.CategoryKernel),
	}
}

// searchCtx carries the per-call search state: the deadline and the
// visited-goal set that breaks cycles.
type searchCtx struct {
	deadline    time.Time
	hasDeadline bool
	visited     map[string]struct{}
}

func newSearchCtx(timeoutMS int) *searchCtx {
	sc := &searchCtx{visited: make(map[string]struct{})}
	if timeoutMS > 0 {
		sc.deadline = time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
		sc.hasDeadline = true
	}
	return sc
}

// checkDeadline is consulted at every rule-firing step and at the top of
// every cleanup-candidate iteration.
func (sc *searchCtx) checkDeadline() error {
	if sc.hasDeadline && time.Now().After(sc.deadline) {
		return types.E(types.KindTimeout, "reasoning deadline exceeded")
	}
	return nil
}

func goalKey(a types.Atom) string {
	return fmt.Sprintf("%s|%s|%s|%d", a.Subject.Value, a.Relation.Value, a.Object.Value, a.Polarity)
}

// Prove attempts to derive a ground goal. The proof list contains the
// concluding step last, preceded by the materialized premise derivations.
func (k *Kernel) Prove(goal types.Atom, opts types.QueryOpts) (*types.ProveResult, error) {
	if !goal.Ground() {
		return nil, types.E(types.KindParse, "prove requires a goal without holes").For(goal.String())
	}
	timeout := opts.TimeoutMS
	if timeout == 0 {
		timeout = k.opts.TimeoutMS
	}
	sc := newSearchCtx(timeout)
	step, sub, ok, err := k.prove(goal, k.opts.DepthLimit, sc)
	if err != nil {
		return nil, err
	}
	if !ok {
		k.log.Debug("prove %s: not derivable", goal)
		return &types.ProveResult{Valid: false}, nil
	}
	k.log.Debug("prove %s: %s", goal, step.Method)
	proof := append(sub, step)
	return &types.ProveResult{Valid: true, Proof: proof}, nil
}

// prove derives one ground atom. It returns the concluding proof step, the
// recursively materialized supporting steps, and whether the goal holds.
func (k *Kernel) prove(a types.Atom, depth int, sc *searchCtx) (types.ProofStep, []types.ProofStep, bool, error) {
	var zero types.ProofStep

	// Exact fact lookup always wins.
	key := a.Fact(types.SourceAsserted).Key()
	if f, ok := k.graph.Get(key); ok {
		return types.ProofStep{Conclusion: *f, Method: types.Exact()}, nil, true, nil
	}

	if depth <= 0 {
		return zero, nil, false, nil
	}
	gk := goalKey(a)
	if _, seen := sc.visited[gk]; seen {
		return zero, nil, false, nil
	}
	sc.visited[gk] = struct{}{}
	defer delete(sc.visited, gk)

	// Unification with rules, highest priority first.
	for _, rule := range k.rules.Ordered() {
		if err := sc.checkDeadline(); err != nil {
			return zero, nil, false, err
		}
		subst, ok := unify(rule.Head, a, nil)
		if !ok {
			continue
		}
		steps, finalSubst, ok, err := k.solveBody(rule.Body, subst, depth-1, sc)
		if err != nil {
			return zero, nil, false, err
		}
		if !ok {
			continue
		}
		k.stats.RuleFirings++
		premises := make([]types.Fact, 0, len(rule.Body))
		for _, b := range rule.Body {
			premises = append(premises, apply(b, finalSubst).Fact(types.SourceDerived))
		}
		step := types.ProofStep{
			Conclusion: a.Fact(types.SourceDerived),
			Method:     types.ByRule(rule.Name),
			Premises:   premises,
		}
		if err := k.checkOpposite(a); err != nil {
			return zero, nil, false, err
		}
		return step, steps, true, nil
	}

	// Default firing, positive goals only.
	if a.Polarity == types.Pos {
		step, sub, ok, err := k.fireDefault(a, depth, sc)
		if err != nil {
			return zero, nil, false, err
		}
		if ok {
			if err := k.checkOpposite(a); err != nil {
				return zero, nil, false, err
			}
			return step, sub, true, nil
		}
	}

	// Closed-world negative inference: a negative goal whose positive
	// counterpart is underivable is abduced when the session runs under the
	// closed-world assumption.
	if a.Polarity == types.Neg && k.opts.ClosedWorldAssumption {
		pos := a
		pos.Polarity = types.Pos
		_, _, ok, err := k.prove(pos, depth-1, sc)
		if err != nil && !types.IsKind(err, types.KindContradiction) {
			return zero, nil, false, err
		}
		if !ok {
			step := types.ProofStep{
				Conclusion: a.Fact(types.SourceDerived),
				Method:     types.Abduced(),
			}
			return step, nil, true, nil
		}
	}

	return zero, nil, false, nil
}

// checkOpposite reports a contradiction when a derived goal's opposite
// polarity is present in the graph.
func (k *Kernel) checkOpposite(a types.Atom) error {
	opp := a.Fact(types.SourceAsserted).Key().Opposite()
	if k.graph.Has(opp) {
		return types.E(types.KindContradiction,
			"derived %s but the opposite-polarity fact is present", a).For(a.String())
	}
	return nil
}

// fireDefault attempts the defaults for a ground positive goal
// (subject property value).
func (k *Kernel) fireDefault(a types.Atom, depth int, sc *searchCtx) (types.ProofStep, []types.ProofStep, bool, error) {
	var zero types.ProofStep
	subject := a.Subject.Value
	for _, d := range k.defaults.ForProperty(a.Relation.Value) {
		if d.Value != a.Object.Value {
			continue
		}
		if d.Excepted(subject) {
			continue
		}
		if k.graph.HasExplicit(subject, d.Property) {
			continue
		}
		isA := types.Atom{
			Subject:  types.Ident(subject),
			Relation: types.Ident("isA"),
			Object:   types.Ident(d.Type),
		}
		// The type check runs one level deeper so it cannot loop back here.
		typeStep, typeSub, ok, err := k.prove(isA, depth-1, sc)
		if err != nil {
			return zero, nil, false, err
		}
		if !ok {
			continue
		}
		k.stats.DefaultFirings++
		step := types.ProofStep{
			Conclusion: a.Fact(types.SourceDefault),
			Method:     types.ByDefault(d.Name),
			Premises:   []types.Fact{typeStep.Conclusion},
		}
		return step, append(typeSub, typeStep), true, nil
	}
	return zero, nil, false, nil
}

// SolveBody proves a conjunction under an initial substitution, returning
// the proof steps and the completed substitution. Used by macro expansion,
// where rule bodies may carry variables the arguments leave free.
func (k *Kernel) SolveBody(body []types.Atom, subst map[string]string, opts types.QueryOpts) ([]types.ProofStep, map[string]string, bool, error) {
	timeout := opts.TimeoutMS
	if timeout == 0 {
		timeout = k.opts.TimeoutMS
	}
	sc := newSearchCtx(timeout)
	return k.solveBody(body, subst, k.opts.DepthLimit, sc)
}

// solveBody proves the body atoms left to right under the accumulated
// substitution, backtracking over index-enumerated bindings for holed atoms.
func (k *Kernel) solveBody(body []types.Atom, subst map[string]string, depth int, sc *searchCtx) ([]types.ProofStep, map[string]string, bool, error) {
	if len(body) == 0 {
		return nil, subst, true, nil
	}
	head := apply(body[0], subst)
	rest := body[1:]

	if head.Ground() {
		step, sub, ok, err := k.prove(head, depth, sc)
		if err != nil || !ok {
			return nil, nil, false, err
		}
		steps, finalSubst, ok, err := k.solveBody(rest, subst, depth, sc)
		if err != nil || !ok {
			return nil, nil, false, err
		}
		return append(append(sub, step), steps...), finalSubst, true, nil
	}

	// Enumerate matching stored facts for the holed atom, extending the
	// substitution per candidate and backtracking on failure.
	for _, f := range k.candidates(head) {
		if err := sc.checkDeadline(); err != nil {
			return nil, nil, false, err
		}
		extended, ok := match(head, f, subst)
		if !ok {
			continue
		}
		step := types.ProofStep{Conclusion: *f, Method: types.Exact()}
		steps, finalSubst, ok, err := k.solveBody(rest, extended, depth, sc)
		if err != nil {
			return nil, nil, false, err
		}
		if ok {
			return append([]types.ProofStep{step}, steps...), finalSubst, true, nil
		}
	}
	return nil, nil, false, nil
}

// candidates selects the narrowest index slice matching the atom's ground
// slots.
func (k *Kernel) candidates(a types.Atom) []*types.Fact {
	switch {
	case !a.Subject.IsHole:
		return k.graph.BySubject(a.Subject.Value)
	case !a.Relation.IsHole && !a.Object.IsHole:
		return k.graph.ByRelationObject(a.Relation.Value, a.Object.Value)
	case !a.Relation.IsHole:
		return k.graph.ByRelation(a.Relation.Value)
	default:
		all := k.graph.All()
		out := make([]*types.Fact, len(all))
		for i := range all {
			f := all[i]
			out[i] = &f
		}
		return out
	}
}

// unify matches a rule head against a goal, extending subst. Head holes bind
// to goal values; ground head slots must equal the goal's.
func unify(head, goal types.Atom, subst map[string]string) (map[string]string, bool) {
	if head.Polarity != goal.Polarity {
		return nil, false
	}
	out := make(map[string]string, len(subst)+3)
	for k2, v := range subst {
		out[k2] = v
	}
	pairs := [][2]types.Term{
		{head.Subject, goal.Subject},
		{head.Relation, goal.Relation},
		{head.Object, goal.Object},
	}
	for _, p := range pairs {
		h, g := p[0], p[1]
		if g.IsHole {
			// Goals with holes only reach unify through query enumeration,
			// which grounds them first.
			return nil, false
		}
		if h.IsHole {
			if bound, ok := out[h.Value]; ok {
				if bound != g.Value {
					return nil, false
				}
			} else {
				out[h.Value] = g.Value
			}
			continue
		}
		if h.Value != g.Value {
			return nil, false
		}
	}
	return out, true
}

// match unifies a holed atom with a stored fact, extending subst.
func match(a types.Atom, f *types.Fact, subst map[string]string) (map[string]string, bool) {
	if a.Polarity != f.Polarity {
		return nil, false
	}
	out := make(map[string]string, len(subst)+3)
	for k2, v := range subst {
		out[k2] = v
	}
	pairs := []struct {
		t types.Term
		v string
	}{
		{a.Subject, f.Subject},
		{a.Relation, f.Relation},
		{a.Object, f.Object},
	}
	for _, p := range pairs {
		if p.t.IsHole {
			if bound, ok := out[p.t.Value]; ok {
				if bound != p.v {
					return nil, false
				}
			} else {
				out[p.t.Value] = p.v
			}
			continue
		}
		if p.t.Value != p.v {
			return nil, false
		}
	}
	return out, true
}

// apply substitutes bound holes in an atom.
func apply(a types.Atom, subst map[string]string) types.Atom {
	sub := func(t types.Term) types.Term {
		if t.IsHole {
			if v, ok := subst[t.Value]; ok {
				return types.Ident(v)
			}
		}
		return t
	}
	a.Subject = sub(a.Subject)
	a.Relation = sub(a.Relation)
	a.Object = sub(a.Object)
	return a
}
