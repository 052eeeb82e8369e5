package vocab

import (
	"testing"

	"sys2/internal/hdc"
	"sys2/internal/types"
)

func testCodec(t *testing.T) hdc.Codec {
	t.Helper()
	c, err := hdc.New(hdc.StrategyDense, 1024, 0, types.UnbindModeA)
	if err != nil {
		t.Fatalf("hdc.New error = %v", err)
	}
	return c
}

func TestGetOrCreateIdempotent(t *testing.T) {
	v := New(testCodec(t))
	a1, err := v.GetOrCreate("dog")
	if err != nil {
		t.Fatalf("GetOrCreate error = %v", err)
	}
	a2, err := v.GetOrCreate("dog")
	if err != nil {
		t.Fatalf("GetOrCreate error = %v", err)
	}
	if a1 != a2 {
		t.Error("repeated GetOrCreate returned a different vector")
	}
}

func TestGetOrCreateEmptyIdentifier(t *testing.T) {
	v := New(testCodec(t))
	if _, err := v.GetOrCreate(""); !types.IsKind(err, types.KindUnknownConcept) {
		t.Errorf("empty identifier: got %v, want UnknownConcept", err)
	}
}

// Two vocabularies over the same codec configuration agree on every vector.
func TestDeterministicAcrossInstances(t *testing.T) {
	codec := testCodec(t)
	v1 := New(codec)
	v2 := New(codec)
	a1, _ := v1.GetOrCreate("dog")
	a2, _ := v2.GetOrCreate("dog")
	sim, err := codec.Similarity(a1, a2)
	if err != nil {
		t.Fatalf("Similarity error = %v", err)
	}
	if sim < 0.999 {
		t.Errorf("cross-instance similarity = %f, want 1", sim)
	}
}

func TestReservedNamesPreRegistered(t *testing.T) {
	v := New(testCodec(t))
	for _, id := range []string{"__Entity", "__Relation", "___Bind", "___Bundle"} {
		if !v.Known(id) {
			t.Errorf("reserved name %s not pre-registered", id)
		}
	}
	if !Reserved("__Entity") || Reserved("dog") {
		t.Error("Reserved misclassifies names")
	}
}

func TestPositionsMemoizedAndPure(t *testing.T) {
	codec := testCodec(t)
	p1 := NewPositions(codec)
	p2 := NewPositions(codec)
	if p1.At(3) != p1.At(3) {
		t.Error("position not memoized within a registry")
	}
	sim, err := codec.Similarity(p1.At(3), p2.At(3))
	if err != nil {
		t.Fatalf("Similarity error = %v", err)
	}
	if sim < 0.999 {
		t.Errorf("Pos_3 differs across registries: similarity %f", sim)
	}
	cross, _ := codec.Similarity(p1.At(0), p1.At(1))
	if cross > 0.5 {
		t.Errorf("distinct positions too similar: %f", cross)
	}
}

func TestInsertionOrderTracked(t *testing.T) {
	v := New(testCodec(t))
	base := v.Len()
	_, _ = v.GetOrCreate("one")
	_, _ = v.GetOrCreate("two")
	ids := v.IDs()
	if len(ids) != base+2 || ids[base] != "one" || ids[base+1] != "two" {
		t.Errorf("insertion order not preserved: %v", ids[base:])
	}
}
