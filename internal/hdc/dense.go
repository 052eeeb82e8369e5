package hdc

import (
	"math/bits"

	"sys2/internal/types"
)

// denseDefaultGeometry is the default bit length of dense-binary vectors.
const denseDefaultGeometry = 4096

// denseCodec is the dense-binary strategy: vectors are long random bit
// strings, bind is XOR (self-inverse), bundle is bitwise majority and
// similarity is normalized agreement in [-1, 1] with a random baseline of 0.
type denseCodec struct {
	geometry int
	seed     uint64
	tiebreak []uint64
}

type denseVector struct {
	geometry int
	words    []uint64
}

func (v *denseVector) Strategy() string { return StrategyDense }
func (v *denseVector) Geometry() int    { return v.geometry }

func newDense(geometry int, seed uint64) *denseCodec {
	if geometry <= 0 {
		geometry = denseDefaultGeometry
	}
	c := &denseCodec{geometry: geometry, seed: seed}
	// The tiebreak pattern resolves even-count majority ties deterministically.
	c.tiebreak = c.randomWords("__tiebreak")
	return c
}

func (c *denseCodec) Name() string  { return StrategyDense }
func (c *denseCodec) Geometry() int { return c.geometry }

func (c *denseCodec) words() int { return (c.geometry + 63) / 64 }

func (c *denseCodec) randomWords(id string) []uint64 {
	rng := seedFor(StrategyDense, c.geometry, c.seed, id)
	w := make([]uint64, c.words())
	for i := range w {
		w[i] = rng.next()
	}
	c.maskTail(w)
	return w
}

// maskTail zeroes the unused bits of the last word so popcounts stay honest.
func (c *denseCodec) maskTail(w []uint64) {
	if rem := c.geometry % 64; rem != 0 {
		w[len(w)-1] &= (uint64(1) << uint(rem)) - 1
	}
}

func (c *denseCodec) NewVector(id string) Vector {
	return &denseVector{geometry: c.geometry, words: c.randomWords(id)}
}

func (c *denseCodec) Bind(a, b Vector) (Vector, error) {
	if err := check(c, a, b); err != nil {
		return nil, err
	}
	va, vb := a.(*denseVector), b.(*denseVector)
	out := make([]uint64, len(va.words))
	for i := range out {
		out[i] = va.words[i] ^ vb.words[i]
	}
	return &denseVector{geometry: c.geometry, words: out}, nil
}

// Unbind is identical to Bind: XOR is its own inverse.
func (c *denseCodec) Unbind(cv, k Vector) (Vector, error) {
	return c.Bind(cv, k)
}

func (c *denseCodec) Bundle(xs []Vector) (Vector, error) {
	if len(xs) == 0 {
		return nil, types.E(types.KindInternal, "bundle of zero vectors")
	}
	if err := check(c, xs...); err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		v := xs[0].(*denseVector)
		out := make([]uint64, len(v.words))
		copy(out, v.words)
		return &denseVector{geometry: c.geometry, words: out}, nil
	}
	counts := make([]int, c.geometry)
	for _, x := range xs {
		v := x.(*denseVector)
		for i := 0; i < c.geometry; i++ {
			if v.words[i/64]&(1<<(uint(i)%64)) != 0 {
				counts[i]++
			}
		}
	}
	half := len(xs)
	out := make([]uint64, c.words())
	for i, n := range counts {
		set := 2*n > half
		if 2*n == half {
			set = c.tiebreak[i/64]&(1<<(uint(i)%64)) != 0
		}
		if set {
			out[i/64] |= 1 << (uint(i) % 64)
		}
	}
	return &denseVector{geometry: c.geometry, words: out}, nil
}

func (c *denseCodec) Similarity(a, b Vector) (float32, error) {
	if err := check(c, a, b); err != nil {
		return 0, err
	}
	va, vb := a.(*denseVector), b.(*denseVector)
	hamming := 0
	for i := range va.words {
		hamming += bits.OnesCount64(va.words[i] ^ vb.words[i])
	}
	return 1 - 2*float32(hamming)/float32(c.geometry), nil
}

func (c *denseCodec) Thresholds() Thresholds {
	return Thresholds{
		HDCMatch:          0.12,
		Similarity:        0.20,
		Verification:      0.05,
		RuleMatch:         0.25,
		ConclusionMatch:   0.25,
		BundleCommonScore: 0.10,
		AnalogyMin:        0.05,
		AnalogyMax:        0.95,
		Margin:            0.02,
	}
}

func (c *denseCodec) Properties() Properties {
	return Properties{
		RecommendedBundleCapacity: 15,
		MaxBundleCapacity:         40,
		BytesPerVector:            c.words() * 8,
	}
}
