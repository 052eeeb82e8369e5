// Package vocab provides the session's content-addressed name-to-vector
// registry and the positional marker vectors used for ordered channels.
package vocab

import (
	"strings"
	"sync"

	"sys2/internal/hdc"
	"sys2/internal/types"
)

// reservedOperators are pre-registered double-underscore operator and type
// markers.
var reservedOperators = []string{
	"__Entity", "__Relation", "__Type", "__Value", "__Operator",
	"__Bundle", "__Sequence",
}

// bootstrapPrimitives are pre-registered triple-underscore bootstrap names.
var bootstrapPrimitives = []string{
	"___Bind", "___Unbind", "___Bundle", "___Similarity",
}

// Vocabulary is the append-only identifier-to-vector map of a session.
// GetOrCreate is idempotent and deterministic: repeated lookup of an id
// returns the same vector. The registry is internally synchronized so a
// multi-session host may share one instance; the reference configuration is
// one vocabulary per session.
type Vocabulary struct {
	mu      sync.Mutex
	codec   hdc.Codec
	entries map[string]hdc.Vector
	order   []string
}

// New creates a vocabulary over the given codec with the reserved operator
// and bootstrap names pre-registered.
func New(codec hdc.Codec) *Vocabulary {
	v := &Vocabulary{
		codec:   codec,
		entries: make(map[string]hdc.Vector),
	}
	for _, id := range reservedOperators {
		_, _ = v.GetOrCreate(id)
	}
	for _, id := range bootstrapPrimitives {
		_, _ = v.GetOrCreate(id)
	}
	return v
}

// GetOrCreate returns the vector for id, allocating it on first use.
func (v *Vocabulary) GetOrCreate(id string) (hdc.Vector, error) {
	if id == "" {
		return nil, types.E(types.KindUnknownConcept, "empty identifier")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if vec, ok := v.entries[id]; ok {
		return vec, nil
	}
	vec := v.codec.NewVector(id)
	v.entries[id] = vec
	v.order = append(v.order, id)
	return vec, nil
}

// Lookup returns the vector for id without allocating.
func (v *Vocabulary) Lookup(id string) (hdc.Vector, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	vec, ok := v.entries[id]
	return vec, ok
}

// Known reports whether id is registered.
func (v *Vocabulary) Known(id string) bool {
	_, ok := v.Lookup(id)
	return ok
}

// Reserved reports whether id carries the double-underscore prefix used by the
// pre-registered operator and bootstrap names.
func Reserved(id string) bool {
	return strings.HasPrefix(id, "__")
}

// Len returns the number of registered identifiers.
func (v *Vocabulary) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// IDs returns the registered identifiers in insertion order.
func (v *Vocabulary) IDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Codec returns the codec backing this vocabulary.
func (v *Vocabulary) Codec() hdc.Codec { return v.codec }
