package session

import (
	"sort"

	"sys2/internal/dsl"
	"sys2/internal/hdc"
	"sys2/internal/logging"
	"sys2/internal/types"
)

// Learn executes a parsed DSL program. Every mutation is journaled; a fatal
// error (or a contradiction under reject_contradictions) rolls the whole
// call back, leaving the session as it was except for scope entries bound
// with the persist flag and identifiers added to the append-only vocabulary.
func (s *Session) Learn(program []dsl.Statement) (*types.LearnResult, error) {
	if err := s.guard(); err != nil {
		return &types.LearnResult{Errors: []*types.Error{err}}, err
	}
	timer := logging.StartTimer(logging.CategorySession, "Learn")
	defer timer.Stop()

	mark := s.journal.Mark()
	res := &types.LearnResult{}
	if err := s.execProgram(program, res); err != nil {
		s.journal.RollbackTo(mark)
		s.memoryCache = nil
		res.Success = false
		if e, ok := types.AsError(err); ok {
			res.Errors = append(res.Errors, e)
		} else {
			res.Errors = append(res.Errors, types.Wrap(types.KindInternal, err, "learn failed"))
		}
		return res, err
	}
	s.journal.CommitTo(mark)
	if err := s.persist(); err != nil {
		s.log.Warn("durable store write failed: %v", err)
	}
	res.Success = true
	return res, nil
}

func (s *Session) execProgram(program []dsl.Statement, res *types.LearnResult) error {
	for _, stmt := range program {
		if err := s.execStatement(stmt, res); err != nil {
			if types.Recoverable(err, s.opts.RejectContradictions, s.opts.StrictIdentifiers) {
				if e, ok := types.AsError(err); ok {
					res.Errors = append(res.Errors, e)
				}
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Session) execStatement(stmt dsl.Statement, res *types.LearnResult) error {
	switch stmt.Kind {
	case dsl.StmtAssert:
		added, err := s.assertAsserted(stmt.Fact)
		if err != nil {
			return locate(err, stmt)
		}
		if added {
			res.FactsAdded++
		}
		return nil

	case dsl.StmtRetract:
		s.graph.Retract(stmt.Fact.Subject, stmt.Fact.Relation, stmt.Fact.Object)
		s.syncRecords()
		return nil

	case dsl.StmtDefineRule:
		return locate(s.rules.Define(stmt.Rule), stmt)

	case dsl.StmtDefineDefault:
		return locate(s.defaults.Define(stmt.Default), stmt)

	case dsl.StmtBind:
		vec, err := s.evalExpr(stmt.Expr)
		if err != nil {
			return locate(err, stmt)
		}
		s.scope.Set(stmt.BindName, vec, stmt.Persist)
		res.ScopeBound++
		return nil

	case dsl.StmtCallMacro:
		return locate(s.callMacro(stmt, res), stmt)

	case dsl.StmtLoad:
		return s.execLoad(stmt, res)

	case dsl.StmtProve:
		pr, err := s.kernel.Prove(stmt.Goal, types.QueryOpts{})
		if err != nil {
			return locate(err, stmt)
		}
		if !pr.Valid {
			// An in-program prove that fails is recorded, never fatal: packs
			// use these as sanity probes.
			res.Errors = append(res.Errors,
				types.E(types.KindUnknownConcept, "goal not derivable: %s", stmt.Goal).
					At(stmt.Line, stmt.Col).For(stmt.Goal.String()))
		}
		return nil

	case dsl.StmtQuery:
		if _, err := s.kernel.Query(stmt.Goal, stmt.Opts); err != nil {
			return locate(err, stmt)
		}
		return nil
	}
	return types.E(types.KindInternal, "unhandled statement kind %v", stmt.Kind)
}

// locate stamps a statement's source position onto an error that lacks one.
func locate(err error, stmt dsl.Statement) error {
	if err == nil {
		return nil
	}
	if e, ok := types.AsError(err); ok && e.Line == 0 {
		e.Line, e.Col = stmt.Line, stmt.Col
	}
	return err
}

// assertAsserted registers the identifiers, stores the fact and, for
// positive facts, folds the encoded triple record into the session
// superposition.
func (s *Session) assertAsserted(f types.Fact) (bool, error) {
	f.Source = types.SourceAsserted
	return s.assertWithRecord(f)
}

func (s *Session) assertFact(f types.Fact) error {
	_, err := s.assertWithRecord(f)
	return err
}

func (s *Session) assertWithRecord(f types.Fact) (bool, error) {
	for _, id := range []string{f.Subject, f.Relation, f.Object} {
		if _, err := s.vocab.GetOrCreate(id); err != nil {
			return false, err
		}
	}
	added, err := s.graph.Assert(f)
	if err != nil || !added {
		return added, err
	}
	if f.Polarity == types.Pos {
		if recErr := s.addRecord(f); recErr != nil {
			return true, recErr
		}
	}
	return true, nil
}

// addRecord encodes the triple as a positioned product (relation at slot 0,
// subject at 1, object at 2) and journals it into the superposition.
func (s *Session) addRecord(f types.Fact) error {
	rel, _ := s.vocab.GetOrCreate(f.Relation)
	subj, _ := s.vocab.GetOrCreate(f.Subject)
	obj, _ := s.vocab.GetOrCreate(f.Object)
	record, err := s.ops.BindAtPositions([]hdc.Vector{rel, subj, obj}, []int{0, 1, 2})
	if err != nil {
		return err
	}
	key := f.Key()
	s.records = append(s.records, recordEntry{key: key, vec: record})
	s.memoryCache = nil
	s.journal.Record(func() {
		s.removeRecordKey(key)
	})
	return nil
}

// syncRecords drops the superposition records of facts that retraction (or
// its cascade) removed from the graph, journaling their restoration.
func (s *Session) syncRecords() {
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if s.graph.Has(r.key) {
			continue
		}
		saved := r
		s.records = append(s.records[:i], s.records[i+1:]...)
		s.memoryCache = nil
		s.journal.Record(func() {
			s.records = append(s.records, saved)
			s.memoryCache = nil
		})
	}
}

func (s *Session) removeRecordKey(key types.FactKey) bool {
	for i, r := range s.records {
		if r.key == key {
			s.records = append(s.records[:i], s.records[i+1:]...)
			s.memoryCache = nil
			return true
		}
	}
	return false
}

// callMacro calls an existing rule definition with ground arguments: the
// head's holes are bound to the arguments in order of first appearance, the
// body is proven under the current graph and the instantiated head is
// asserted as a derived fact with the body as premises.
func (s *Session) callMacro(stmt dsl.Statement, res *types.LearnResult) error {
	rule, ok := s.rules.Get(stmt.MacroName)
	if !ok {
		return types.E(types.KindUnknownOperator, "unknown macro %q", stmt.MacroName).For(stmt.MacroName)
	}
	holes := headHoles(rule.Head)
	if len(stmt.MacroArgs) != len(holes) {
		return types.E(types.KindParse, "macro %q expects %d arguments, got %d",
			stmt.MacroName, len(holes), len(stmt.MacroArgs))
	}
	subst := make(map[string]string, len(holes))
	for i, h := range holes {
		subst[h] = stmt.MacroArgs[i]
	}
	head := applySubst(rule.Head, subst)
	if !head.Ground() {
		return types.E(types.KindParse, "macro %q leaves head holes unbound", stmt.MacroName)
	}

	_, finalSubst, ok, err := s.kernel.SolveBody(rule.Body, subst, types.QueryOpts{})
	if err != nil {
		return err
	}
	if !ok {
		return types.E(types.KindUnknownConcept,
			"macro %q preconditions not derivable", stmt.MacroName).For(stmt.MacroName)
	}
	premises := make([]types.FactKey, 0, len(rule.Body))
	for _, b := range rule.Body {
		atom := applySubst(b, finalSubst)
		premises = append(premises, atom.Fact(types.SourceAsserted).Key())
	}

	fact := head.Fact(types.SourceDerived)
	for _, id := range []string{fact.Subject, fact.Relation, fact.Object} {
		if _, err := s.vocab.GetOrCreate(id); err != nil {
			return err
		}
	}
	added, err := s.graph.AssertDerived(fact, premises)
	if err != nil {
		return err
	}
	if added {
		res.FactsAdded++
		if fact.Polarity == types.Pos {
			if err := s.addRecord(fact); err != nil {
				return err
			}
		}
	}
	return nil
}

func headHoles(a types.Atom) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range []types.Term{a.Subject, a.Relation, a.Object} {
		if t.IsHole {
			if _, dup := seen[t.Value]; !dup {
				seen[t.Value] = struct{}{}
				out = append(out, t.Value)
			}
		}
	}
	return out
}

func applySubst(a types.Atom, subst map[string]string) types.Atom {
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

// execLoad parses and executes a sub-program in the shared transaction.
func (s *Session) execLoad(stmt dsl.Statement, res *types.LearnResult) error {
	if s.loadDepth >= loadDepthLimit {
		return types.E(types.KindDepthExceeded,
			"load recursion exceeds depth %d", loadDepthLimit).At(stmt.Line, stmt.Col).For(stmt.Path)
	}
	src, rerr := s.readFile(s.resolvePath(stmt.Path))
	if rerr != nil {
		return rerr.At(stmt.Line, stmt.Col)
	}
	sub, errs := s.parser.Parse(src)
	for _, e := range errs {
		if s.opts.StrictIdentifiers {
			return e.For(stmt.Path)
		}
		res.Errors = append(res.Errors, e)
	}
	s.loadDepth++
	defer func() { s.loadDepth-- }()
	return s.execProgram(sub, res)
}

// evalExpr evaluates a bind expression against the scope and vocabulary.
func (s *Session) evalExpr(e *dsl.Expr) (hdc.Vector, error) {
	switch e.Kind {
	case dsl.ExprRef:
		vec, ok := s.scope.Get(e.Name)
		if !ok {
			return nil, types.E(types.KindUnknownConcept, "unbound scope reference $%s", e.Name).
				At(e.Line, e.Col).For(e.Name)
		}
		return vec, nil

	case dsl.ExprIdent:
		if s.opts.StrictIdentifiers && !s.vocab.Known(e.Name) {
			return nil, types.E(types.KindUnknownConcept, "unknown identifier %q", e.Name).
				At(e.Line, e.Col).For(e.Name)
		}
		return s.vocab.GetOrCreate(e.Name)

	case dsl.ExprCall:
		args := make([]hdc.Vector, len(e.Args))
		for i, a := range e.Args {
			vec, err := s.evalExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = vec
		}
		return s.applyOperator(e, args)
	}
	return nil, types.E(types.KindInternal, "unhandled expression kind %v", e.Kind)
}

func (s *Session) applyOperator(e *dsl.Expr, args []hdc.Vector) (hdc.Vector, error) {
	switch e.Name {
	case "__Bundle", "___Bundle":
		if rec := s.codec.Properties().RecommendedBundleCapacity; len(args) > rec {
			logging.Get(logging.CategoryHDC).Warn(
				"bundle of %d exceeds recommended capacity %d for %s", len(args), rec, s.codec.Name())
		}
		return s.ops.Bundle(args)
	case "__Sequence":
		return s.ops.BundlePositioned(args)
	case "___Bind":
		return s.ops.Bind(args[0], args[1])
	case "___Unbind":
		return s.ops.Unbind(args[0], args[1])
	default:
		return nil, types.E(types.KindUnknownOperator, "unknown operator %q", e.Name).
			At(e.Line, e.Col).For(e.Name)
	}
}

// persist writes the asserted fact set to the durable store, if configured.
func (s *Session) persist() error {
	if s.durable == nil {
		return nil
	}
	all := s.graph.All()
	asserted := all[:0:0]
	for _, f := range all {
		if f.Source == types.SourceAsserted {
			asserted = append(asserted, f)
		}
	}
	sort.SliceStable(asserted, func(i, j int) bool {
		return asserted[i].String() < asserted[j].String()
	})
	return s.durable.ReplaceFacts(asserted)
}

type recordEntry struct {
	key types.FactKey
	vec hdc.Vector
}
