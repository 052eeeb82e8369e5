package session

import (
	"fmt"
	"sort"
	"strings"

	"sys2/internal/dsl"
	"sys2/internal/logging"
	"sys2/internal/pack"
	"sys2/internal/types"
)

// Query answers a goal that may contain holes. The call runs inside its own
// transaction; on error nothing the search touched remains visible.
func (s *Session) Query(goal types.Atom, opts types.QueryOpts) (*types.QueryResult, error) {
	if err := s.guard(); err != nil {
		return &types.QueryResult{Errors: []*types.Error{err}}, err
	}
	timer := logging.StartTimer(logging.CategoryKernel, "Query")
	defer timer.Stop()

	mark := s.journal.Mark()
	res, err := s.kernel.Query(goal, opts)
	if err != nil {
		s.journal.RollbackTo(mark)
		s.memoryCache = nil
		if types.IsKind(err, types.KindInternal) {
			s.poison(err)
		}
		out := &types.QueryResult{Bindings: map[string]types.Binding{}, Stats: s.Stats()}
		if e, ok := types.AsError(err); ok {
			out.Errors = append(out.Errors, e)
		}
		return out, err
	}
	s.journal.CommitTo(mark)
	res.Stats = s.Stats()
	return res, nil
}

// Prove attempts to derive a ground goal and returns its proof.
func (s *Session) Prove(goal types.Atom, opts types.QueryOpts) (*types.ProveResult, error) {
	if err := s.guard(); err != nil {
		return &types.ProveResult{Errors: []*types.Error{err}}, err
	}
	timer := logging.StartTimer(logging.CategoryKernel, "Prove")
	defer timer.Stop()

	mark := s.journal.Mark()
	res, err := s.kernel.Prove(goal, opts)
	if err != nil {
		s.journal.RollbackTo(mark)
		s.memoryCache = nil
		if types.IsKind(err, types.KindInternal) {
			s.poison(err)
		}
		out := &types.ProveResult{Stats: s.Stats()}
		if e, ok := types.AsError(err); ok {
			out.Errors = append(out.Errors, e)
		}
		return out, err
	}
	s.journal.CommitTo(mark)
	res.Stats = s.Stats()
	return res, nil
}

// DescribeResult renders an answer plus a proof summary as plain text. It is
// a pure function over its inputs, consumed by the NL adapter.
func DescribeResult(action string, result interface{}, goal types.Atom) string {
	var b strings.Builder
	switch r := result.(type) {
	case *types.ProveResult:
		if r.Valid {
			fmt.Fprintf(&b, "%s: %s holds.\n", action, goal)
		} else {
			fmt.Fprintf(&b, "%s: %s could not be derived.\n", action, goal)
		}
		describeProof(&b, r.Proof)

	case *types.QueryResult:
		if !r.Success {
			fmt.Fprintf(&b, "%s: no bindings found for %s.\n", action, goal)
			break
		}
		fmt.Fprintf(&b, "%s: %d result(s) for %s.\n", action, len(r.AllResults), goal)
		holes := make([]string, 0, len(r.Bindings))
		for hole := range r.Bindings {
			holes = append(holes, hole)
		}
		sort.Strings(holes)
		for _, hole := range holes {
			binding := r.Bindings[hole]
			fmt.Fprintf(&b, "  ?%s = %s via %s", hole, binding.Answer, binding.Method)
			if binding.HasSim {
				fmt.Fprintf(&b, " (similarity %.3f)", binding.Similarity)
			}
			b.WriteString("\n")
			describeProof(&b, binding.Steps)
		}

	default:
		fmt.Fprintf(&b, "%s: %v\n", action, result)
	}
	return b.String()
}

func describeProof(b *strings.Builder, steps []types.ProofStep) {
	for i, step := range steps {
		fmt.Fprintf(b, "    %d. %s", i+1, step)
		if len(step.Premises) > 0 {
			parts := make([]string, len(step.Premises))
			for j, p := range step.Premises {
				parts[j] = p.String()
			}
			fmt.Fprintf(b, " from %s", strings.Join(parts, "; "))
		}
		b.WriteString("\n")
	}
}

// CheckDSL statically validates source text. Strict mode flags unknown
// operators; lenient mode reports only malformed statements.
func (s *Session) CheckDSL(text string, strict bool) []*types.Error {
	return dsl.Check(text, strict)
}

// LearnSource parses and learns source text in one call.
func (s *Session) LearnSource(src string) (*types.LearnResult, error) {
	stmts, errs := s.parser.Parse(src)
	if len(errs) > 0 && s.opts.StrictIdentifiers {
		res := &types.LearnResult{Errors: errs}
		return res, errs[0]
	}
	res, err := s.Learn(stmts)
	res.Errors = append(errs, res.Errors...)
	return res, err
}

// LoadPack learns a theory pack directory in index order. When validate is
// set, a missing file listed by the index is an error; otherwise it is
// skipped with a recorded warning.
func (s *Session) LoadPack(dir string, validate bool) (*types.LearnResult, error) {
	if err := s.guard(); err != nil {
		return &types.LearnResult{Errors: []*types.Error{err}}, err
	}
	stmts, errs, err := pack.Load(dir, s.parser, validate)
	if err != nil {
		res := &types.LearnResult{}
		if e, ok := types.AsError(err); ok {
			res.Errors = append(res.Errors, e)
		}
		return res, err
	}
	prevDir := s.loadDir
	s.loadDir = dir
	defer func() { s.loadDir = prevDir }()

	res, lerr := s.Learn(stmts)
	res.Errors = append(errs, res.Errors...)
	return res, lerr
}
