package hdc

import (
	"math"

	"sys2/internal/types"
)

// metricDefaultGeometry is the default byte channel count of the metric
// codecs.
const metricDefaultGeometry = 512

// metricCodec is the metric-affine strategy: a vector is a tuple of byte
// channels centered at 128. Bind is channel-wise modular translation (an
// exact affine map, so unbind is lossless), bundle is the channel-wise mean
// and similarity is the cosine of the centered channels. The random cosine
// baseline is higher than the binary codecs', which is why the codec declares
// a smaller margin gate.
type metricCodec struct {
	geometry int
	seed     uint64
	elastic  bool
}

type metricVector struct {
	strategy string
	geometry int
	chans    []byte
	// weight is the leaf count of a bundle; used by the elastic codec to keep
	// nested bundles calibrated. Atom and bound vectors carry weight 1.
	weight int
}

func (v *metricVector) Strategy() string { return v.strategy }
func (v *metricVector) Geometry() int    { return v.geometry }

func newMetric(geometry int, seed uint64) *metricCodec {
	if geometry <= 0 {
		geometry = metricDefaultGeometry
	}
	return &metricCodec{geometry: geometry, seed: seed}
}

func newElastic(geometry int, seed uint64) *metricCodec {
	c := newMetric(geometry, seed)
	c.elastic = true
	return c
}

func (c *metricCodec) Name() string {
	if c.elastic {
		return StrategyElastic
	}
	return StrategyMetric
}

func (c *metricCodec) Geometry() int { return c.geometry }

func (c *metricCodec) NewVector(id string) Vector {
	rng := seedFor(c.Name(), c.geometry, c.seed, id)
	chans := make([]byte, c.geometry)
	for i := range chans {
		chans[i] = byte(rng.next())
	}
	return &metricVector{strategy: c.Name(), geometry: c.geometry, chans: chans, weight: 1}
}

func (c *metricCodec) Bind(a, b Vector) (Vector, error) {
	if err := check(c, a, b); err != nil {
		return nil, err
	}
	va, vb := a.(*metricVector), b.(*metricVector)
	out := make([]byte, c.geometry)
	for i := range out {
		out[i] = va.chans[i] + vb.chans[i]
	}
	return &metricVector{strategy: c.Name(), geometry: c.geometry, chans: out, weight: 1}, nil
}

func (c *metricCodec) Unbind(cv, k Vector) (Vector, error) {
	if err := check(c, cv, k); err != nil {
		return nil, err
	}
	vc, vk := cv.(*metricVector), k.(*metricVector)
	out := make([]byte, c.geometry)
	for i := range out {
		out[i] = vc.chans[i] - vk.chans[i]
	}
	return &metricVector{strategy: c.Name(), geometry: c.geometry, chans: out, weight: vc.weight}, nil
}

func (c *metricCodec) Bundle(xs []Vector) (Vector, error) {
	if len(xs) == 0 {
		return nil, types.E(types.KindInternal, "bundle of zero vectors")
	}
	if err := check(c, xs...); err != nil {
		return nil, err
	}
	sums := make([]int64, c.geometry)
	total := 0
	for _, x := range xs {
		v := x.(*metricVector)
		w := 1
		if c.elastic && v.weight > 1 {
			w = v.weight
		}
		total += w
		for i, ch := range v.chans {
			sums[i] += int64(int(ch)-128) * int64(w)
		}
	}
	out := make([]byte, c.geometry)
	for i, s := range sums {
		mean := float64(s) / float64(total)
		out[i] = byte(int(math.Round(mean)) + 128)
	}
	return &metricVector{strategy: c.Name(), geometry: c.geometry, chans: out, weight: total}, nil
}

func (c *metricCodec) Similarity(a, b Vector) (float32, error) {
	if err := check(c, a, b); err != nil {
		return 0, err
	}
	va, vb := a.(*metricVector), b.(*metricVector)
	var dot, na, nb float64
	for i := range va.chans {
		x := float64(int(va.chans[i]) - 128)
		y := float64(int(vb.chans[i]) - 128)
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return float32(dot / math.Sqrt(na*nb)), nil
}

func (c *metricCodec) Thresholds() Thresholds {
	return Thresholds{
		HDCMatch:          0.22,
		Similarity:        0.30,
		Verification:      0.04,
		RuleMatch:         0.35,
		ConclusionMatch:   0.35,
		BundleCommonScore: 0.15,
		AnalogyMin:        0.05,
		AnalogyMax:        0.95,
		Margin:            0.005,
	}
}

// AdaptiveCapacity is the elastic codec's capacity curve: a pure function of
// geometry and the number of vectors already folded into the bundle.
func AdaptiveCapacity(geometry, insertedCount int) int {
	base := geometry / 32
	if base < 8 {
		base = 8
	}
	if insertedCount > base/2 {
		base -= (insertedCount - base/2) / 4
		if base < 4 {
			base = 4
		}
	}
	return base
}

func (c *metricCodec) Properties() Properties {
	if c.elastic {
		return Properties{
			RecommendedBundleCapacity: AdaptiveCapacity(c.geometry, 0),
			MaxBundleCapacity:         c.geometry / 16,
			BytesPerVector:            c.geometry + 4,
		}
	}
	return Properties{
		RecommendedBundleCapacity: 12,
		MaxBundleCapacity:         24,
		BytesPerVector:            c.geometry,
	}
}
