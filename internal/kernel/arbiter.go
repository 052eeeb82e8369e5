package kernel

import (
	"sys2/internal/types"
)

// arbitrate merges the symbolic and holographic branches of a holed query
// according to the session's reasoning priority. Exact fact lookup always
// wins over anything else, in both modes.
func (k *Kernel) arbitrate(goal types.Atom, opts types.QueryOpts) (*types.QueryResult, error) {
	timeout := opts.TimeoutMS
	if timeout == 0 {
		timeout = k.opts.TimeoutMS
	}
	sc := newSearchCtx(timeout)

	if k.opts.ReasoningPriority == types.HolographicPriority {
		return k.holographicFirst(goal, opts, sc)
	}
	return k.symbolicFirst(goal, opts, sc)
}

// symbolicFirst runs the symbolic branch; only when it produces nothing does
// the holographic branch get a chance, gated on HDC_MATCH plus the codec
// margin.
func (k *Kernel) symbolicFirst(goal types.Atom, opts types.QueryOpts, sc *searchCtx) (*types.QueryResult, error) {
	cands, err := k.symbolicQuery(goal, opts, sc)
	if err != nil {
		return nil, err
	}
	if len(cands) > 0 {
		rank(cands)
		return assemble(goal, cands, opts), nil
	}

	holo, _, err := k.holographic(goal, sc)
	if err != nil {
		return nil, err
	}
	if holo != nil {
		th := k.ops.Codec().Thresholds()
		if holo.binding.Similarity >= th.HDCMatch+th.Margin {
			return assemble(goal, []candidate{*holo}, opts), nil
		}
	}
	return &types.QueryResult{Bindings: map[string]types.Binding{}}, nil
}

// holographicFirst runs the holographic branch first and accepts its answer
// when the top-1/top-2 separation clears the VERIFICATION threshold and the
// symbolic branch produces nothing. Whenever the symbolic branch succeeds,
// whether by exact lookup, rule or default, its answer wins; on disagreement
// the holographic confidence rides along on the winning binding.
func (k *Kernel) holographicFirst(goal types.Atom, opts types.QueryOpts, sc *searchCtx) (*types.QueryResult, error) {
	holo, margin, err := k.holographic(goal, sc)
	if err != nil {
		return nil, err
	}

	cands, err := k.symbolicQuery(goal, opts, sc)
	if err != nil {
		return nil, err
	}

	if len(cands) > 0 {
		rank(cands)
		if holo != nil {
			top := &cands[0]
			if top.binding.Answer != holo.binding.Answer {
				top.binding.Similarity = holo.binding.Similarity
				top.binding.HasSim = true
			}
		}
		return assemble(goal, cands, opts), nil
	}

	th := k.ops.Codec().Thresholds()
	if holo != nil && margin >= th.Verification {
		return assemble(goal, []candidate{*holo}, opts), nil
	}
	return &types.QueryResult{Bindings: map[string]types.Binding{}}, nil
}
