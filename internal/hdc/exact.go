package hdc

import (
	"sort"
	"strings"
	"sync/atomic"

	"sys2/internal/types"
)

// exactCodec is the lossless symbolic strategy, used as an oracle in tests
// and for saturation diagnostics. A vector is a multiset of (base, keyset)
// terms; bind pushes the key operand into each term's keyset, bundle is
// multiset union and unbind cancels keys either by multiset subtraction
// (mode A, the production default) or index-based pairing (mode B).
type exactCodec struct {
	mode types.UnbindMode

	unbindChecks   atomic.Int64
	unbindOutTerms atomic.Int64
}

type exactTerm struct {
	base string
	keys []string // sorted multiset
}

type exactVector struct {
	terms []exactTerm // canonically sorted
}

func (v *exactVector) Strategy() string { return StrategyExact }
func (v *exactVector) Geometry() int    { return 0 }

func newExact(mode types.UnbindMode) *exactCodec {
	if mode == "" {
		mode = types.UnbindModeA
	}
	return &exactCodec{mode: mode}
}

func (c *exactCodec) Name() string  { return StrategyExact }
func (c *exactCodec) Geometry() int { return 0 }

// Counters returns the codec's unbind telemetry.
func (c *exactCodec) Counters() (checks, outTerms int64) {
	return c.unbindChecks.Load(), c.unbindOutTerms.Load()
}

// ResetCounters clears the unbind telemetry. Called on session reset.
func (c *exactCodec) ResetCounters() {
	c.unbindChecks.Store(0)
	c.unbindOutTerms.Store(0)
}

func (t exactTerm) canon() string {
	return t.base + "|" + strings.Join(t.keys, ",")
}

func sortTerms(terms []exactTerm) []exactTerm {
	sort.Slice(terms, func(i, j int) bool { return terms[i].canon() < terms[j].canon() })
	return terms
}

func (c *exactCodec) NewVector(id string) Vector {
	return &exactVector{terms: []exactTerm{{base: id}}}
}

func (c *exactCodec) Bind(a, b Vector) (Vector, error) {
	if err := check(c, a, b); err != nil {
		return nil, err
	}
	va, vb := a.(*exactVector), b.(*exactVector)
	out := make([]exactTerm, 0, len(va.terms)*len(vb.terms))
	for _, ta := range va.terms {
		for _, tb := range vb.terms {
			keys := make([]string, 0, len(ta.keys)+len(tb.keys)+1)
			keys = append(keys, ta.keys...)
			keys = append(keys, tb.keys...)
			keys = append(keys, tb.base)
			sort.Strings(keys)
			out = append(out, exactTerm{base: ta.base, keys: keys})
		}
	}
	return &exactVector{terms: sortTerms(out)}, nil
}

func (c *exactCodec) Unbind(cv, k Vector) (Vector, error) {
	if err := check(c, cv, k); err != nil {
		return nil, err
	}
	vc, vk := cv.(*exactVector), k.(*exactVector)
	if c.mode == types.UnbindModeB {
		return c.unbindIndexed(vc, vk), nil
	}
	return c.unbindSubtract(vc, vk), nil
}

// unbindSubtract (mode A) removes the key multiset of every term of k from
// every term of c that fully contains it.
func (c *exactCodec) unbindSubtract(vc, vk *exactVector) *exactVector {
	var out []exactTerm
	for _, tc := range vc.terms {
		for _, tk := range vk.terms {
			c.unbindChecks.Add(1)
			removal := append(append([]string{}, tk.keys...), tk.base)
			rest, ok := subtractMultiset(tc.keys, removal)
			if !ok {
				continue
			}
			out = append(out, exactTerm{base: tc.base, keys: rest})
			c.unbindOutTerms.Add(1)
		}
	}
	return &exactVector{terms: sortTerms(out)}
}

// unbindIndexed (mode B) cancels by positional pairing of the canonically
// sorted term lists. On ambiguous multisets this yields a different ordering
// than mode A, which is exactly what the saturation diagnostics exploit.
func (c *exactCodec) unbindIndexed(vc, vk *exactVector) *exactVector {
	if len(vk.terms) == 0 {
		return &exactVector{}
	}
	var out []exactTerm
	for i, tc := range vc.terms {
		tk := vk.terms[i%len(vk.terms)]
		c.unbindChecks.Add(1)
		removal := append(append([]string{}, tk.keys...), tk.base)
		rest, ok := subtractMultiset(tc.keys, removal)
		if !ok {
			continue
		}
		out = append(out, exactTerm{base: tc.base, keys: rest})
		c.unbindOutTerms.Add(1)
	}
	return &exactVector{terms: sortTerms(out)}
}

// subtractMultiset removes removal from keys (both sorted multisets),
// reporting failure when removal is not fully contained.
func subtractMultiset(keys, removal []string) ([]string, bool) {
	sort.Strings(removal)
	rest := make([]string, 0, len(keys))
	i, j := 0, 0
	for i < len(keys) {
		if j < len(removal) && keys[i] == removal[j] {
			i++
			j++
			continue
		}
		if j < len(removal) && removal[j] < keys[i] {
			return nil, false
		}
		rest = append(rest, keys[i])
		i++
	}
	if j != len(removal) {
		return nil, false
	}
	return rest, true
}

func (c *exactCodec) Bundle(xs []Vector) (Vector, error) {
	if len(xs) == 0 {
		return nil, types.E(types.KindInternal, "bundle of zero vectors")
	}
	if err := check(c, xs...); err != nil {
		return nil, err
	}
	var out []exactTerm
	for _, x := range xs {
		out = append(out, x.(*exactVector).terms...)
	}
	return &exactVector{terms: sortTerms(out)}, nil
}

// Similarity counts matching terms, normalized by the smaller multiset so
// bundle membership is exact.
func (c *exactCodec) Similarity(a, b Vector) (float32, error) {
	if err := check(c, a, b); err != nil {
		return 0, err
	}
	va, vb := a.(*exactVector), b.(*exactVector)
	n := len(va.terms)
	if len(vb.terms) < n {
		n = len(vb.terms)
	}
	if n == 0 {
		return 0, nil
	}
	common := 0
	i, j := 0, 0
	for i < len(va.terms) && j < len(vb.terms) {
		ca, cb := va.terms[i].canon(), vb.terms[j].canon()
		switch {
		case ca == cb:
			common++
			i++
			j++
		case ca < cb:
			i++
		default:
			j++
		}
	}
	return float32(common) / float32(n), nil
}

func (c *exactCodec) Thresholds() Thresholds {
	return Thresholds{
		HDCMatch:          0.5,
		Similarity:        0.5,
		Verification:      0.5,
		RuleMatch:         0.99,
		ConclusionMatch:   0.99,
		BundleCommonScore: 0.5,
		AnalogyMin:        0.0,
		AnalogyMax:        1.0,
		Margin:            0,
	}
}

func (c *exactCodec) Properties() Properties {
	return Properties{
		RecommendedBundleCapacity: 1 << 16,
		MaxBundleCapacity:         1 << 20,
		BytesPerVector:            0,
	}
}
