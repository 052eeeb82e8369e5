package vocab

import (
	"fmt"
	"sync"

	"sys2/internal/hdc"
)

// Positions memoizes the positional marker vectors Pos_k. A position is a
// pure function of (strategy, geometry, k): the codec derives it from the
// reserved identifier "__Pos_k", so every session over the same codec
// configuration sees identical markers.
type Positions struct {
	mu    sync.Mutex
	codec hdc.Codec
	cache map[int]hdc.Vector
}

// NewPositions creates a position registry over the given codec.
func NewPositions(codec hdc.Codec) *Positions {
	return &Positions{codec: codec, cache: make(map[int]hdc.Vector)}
}

// At returns Pos_k. Slot 0 is reserved for the operator, slots 1..n for
// arguments and answer holes.
func (p *Positions) At(k int) hdc.Vector {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.cache[k]; ok {
		return v
	}
	v := p.codec.NewVector(fmt.Sprintf("__Pos_%d", k))
	p.cache[k] = v
	return v
}
