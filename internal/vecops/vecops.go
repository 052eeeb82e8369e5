// Package vecops is the strategy-agnostic vector operations layer. It
// dispatches bind/unbind/bundle/similarity to the active codec, adds the
// positioned variants used for ordered sequences and triple records, and
// provides the top-K cleanup used by the holographic branch.
package vecops

import (
	"sort"

	"sys2/internal/hdc"
	"sys2/internal/types"
	"sys2/internal/vocab"
)

// Ops wraps a codec with positional markers and the session's similarity
// counter.
type Ops struct {
	codec     hdc.Codec
	positions *vocab.Positions
	stats     *types.Stats
}

// New creates an operations layer over the given codec. stats may be nil.
func New(codec hdc.Codec, positions *vocab.Positions, stats *types.Stats) *Ops {
	return &Ops{codec: codec, positions: positions, stats: stats}
}

// Codec returns the active codec.
func (o *Ops) Codec() hdc.Codec { return o.codec }

// Bind dispatches to the codec's binding operation.
func (o *Ops) Bind(a, b hdc.Vector) (hdc.Vector, error) {
	return o.codec.Bind(a, b)
}

// Unbind dispatches to the codec's inverse binding.
func (o *Ops) Unbind(c, k hdc.Vector) (hdc.Vector, error) {
	return o.codec.Unbind(c, k)
}

// Bundle superposes a set of vectors.
func (o *Ops) Bundle(xs []hdc.Vector) (hdc.Vector, error) {
	return o.codec.Bundle(xs)
}

// BundlePositioned superposes an ordered sequence: bundle([bind(xs[i], Pos_i)]).
func (o *Ops) BundlePositioned(xs []hdc.Vector) (hdc.Vector, error) {
	bound := make([]hdc.Vector, len(xs))
	for i, x := range xs {
		b, err := o.codec.Bind(x, o.positions.At(i))
		if err != nil {
			return nil, err
		}
		bound[i] = b
	}
	return o.codec.Bundle(bound)
}

// BindPositioned folds an ordered sequence into a single product vector:
// bind(bind(xs[0], Pos_0), bind(xs[1], Pos_1), ...). The fold is
// left-associative in slot order so that a record always decomposes as
// bind(prefix, bind(last, Pos_last)), which is what the holographic decode
// relies on.
func (o *Ops) BindPositioned(xs []hdc.Vector) (hdc.Vector, error) {
	positions := make([]int, len(xs))
	for i := range positions {
		positions[i] = i
	}
	return o.BindAtPositions(xs, positions)
}

// PositionAt returns the positional marker Pos_k for the active codec.
func (o *Ops) PositionAt(k int) hdc.Vector {
	return o.positions.At(k)
}

// BindAtPositions folds vectors into a product using explicit slot indices:
// bind(bind(vs[0], Pos_{positions[0]}), bind(vs[1], Pos_{positions[1]}), ...).
// Used to build the partial vector of a holographic query, where the answer
// slot is absent from the fold.
func (o *Ops) BindAtPositions(vs []hdc.Vector, positions []int) (hdc.Vector, error) {
	if len(vs) == 0 || len(vs) != len(positions) {
		return nil, types.E(types.KindInternal, "positioned bind arity mismatch")
	}
	acc, err := o.codec.Bind(vs[0], o.positions.At(positions[0]))
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(vs); i++ {
		slot, err := o.codec.Bind(vs[i], o.positions.At(positions[i]))
		if err != nil {
			return nil, err
		}
		acc, err = o.codec.Bind(acc, slot)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Similarity dispatches to the codec, counting the check.
func (o *Ops) Similarity(a, b hdc.Vector) (float32, error) {
	if o.stats != nil {
		o.stats.SimilarityChecks++
	}
	return o.codec.Similarity(a, b)
}

// Match is one ranked cleanup candidate.
type Match struct {
	ID         string
	Similarity float32
}

// TopK ranks the candidate set by similarity to target and returns the best
// k matches, ties broken by candidate order. Candidates whose vectors are of
// a mismatched strategy or geometry propagate the codec error.
func (o *Ops) TopK(target hdc.Vector, candidates []string, vectors []hdc.Vector, k int) ([]Match, error) {
	if len(candidates) != len(vectors) {
		return nil, types.E(types.KindInternal, "candidate/vector length mismatch")
	}
	matches := make([]Match, 0, len(candidates))
	for i, id := range candidates {
		sim, err := o.Similarity(target, vectors[i])
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{ID: id, Similarity: sim})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
