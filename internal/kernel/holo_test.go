package kernel

import (
	"fmt"
	"testing"

	"sys2/internal/hdc"
	"sys2/internal/types"
)

// buildBookBundle encodes n (key_i, book, idea_i) records as positioned
// products and superposes them into the fixture memory. Callers assert the
// decoy facts that populate the relation indices so cleanup has candidates.
func buildBookBundle(t *testing.T, f *fixture, book string, n int) {
	t.Helper()
	records := make([]hdc.Vector, 0, n)
	for i := 1; i <= n; i++ {
		rel, _ := f.vocab.GetOrCreate(fmt.Sprintf("key%d", i))
		subj, _ := f.vocab.GetOrCreate(book)
		obj, _ := f.vocab.GetOrCreate(fmt.Sprintf("idea%d", i))
		record, err := f.ops.BindAtPositions([]hdc.Vector{rel, subj, obj}, []int{0, 1, 2})
		if err != nil {
			t.Fatalf("BindAtPositions error = %v", err)
		}
		records = append(records, record)
	}
	bundle, err := f.ops.Bundle(records)
	if err != nil {
		t.Fatalf("Bundle error = %v", err)
	}
	f.memory = bundle
}

// Scenario: holographic cleanup over a ten-triple book bundle recovers the
// idea stored under a given key, above HDC_MATCH with a strict margin.
func TestHolographicCleanup(t *testing.T) {
	f := newFixture(t, types.SessionOptions{})
	buildBookBundle(t, f, "bookA", 10)
	// Candidate pool: the decoy book carries every idea in its key indices.
	for i := 1; i <= 10; i++ {
		f.assert(t, "bookB", "key7", fmt.Sprintf("idea%d", i))
	}

	res, err := f.kernel.Query(atom("bookA", "key7", "?idea"), types.QueryOpts{})
	if err != nil {
		t.Fatalf("Query error = %v", err)
	}
	if !res.Success {
		t.Fatal("holographic branch produced no result")
	}
	binding := res.Bindings["idea"]
	if binding.Answer != "idea7" {
		t.Errorf("answer = %s, want idea7", binding.Answer)
	}
	if binding.Method.Kind != types.MethodHolographic {
		t.Errorf("method = %s, want holographic", binding.Method)
	}
	th := f.ops.Codec().Thresholds()
	if !binding.HasSim || binding.Similarity < th.HDCMatch {
		t.Errorf("similarity %f below HDC_MATCH %f", binding.Similarity, th.HDCMatch)
	}
	if f.stats.HolographicDecodes == 0 {
		t.Error("holographic decode not counted")
	}
}

// A key absent from the bundle decodes to nothing: every candidate stays
// below HDC_MATCH and the branch returns the empty result.
func TestHolographicMissingKey(t *testing.T) {
	f := newFixture(t, types.SessionOptions{})
	buildBookBundle(t, f, "bookA", 10)
	for i := 1; i <= 10; i++ {
		f.assert(t, "bookB", "key99", fmt.Sprintf("idea%d", i))
	}

	res, err := f.kernel.Query(atom("bookA", "key99", "?idea"), types.QueryOpts{})
	if err != nil {
		t.Fatalf("Query error = %v", err)
	}
	if res.Success {
		t.Errorf("missing key decoded to %v, want empty result", res.Bindings)
	}
}

// Scenario: under holographic priority an exact fact still wins over any
// holographic similarity.
func TestExactWinsUnderHolographicPriority(t *testing.T) {
	f := newFixture(t, types.SessionOptions{ReasoningPriority: types.HolographicPriority})
	buildBookBundle(t, f, "bookA", 10)
	for i := 1; i <= 10; i++ {
		f.assert(t, "bookB", "key7", fmt.Sprintf("idea%d", i))
	}
	// The goal is also directly in the fact graph.
	f.assert(t, "bookA", "key7", "idea7")

	res, err := f.kernel.Query(atom("bookA", "key7", "?idea"), types.QueryOpts{})
	if err != nil {
		t.Fatalf("Query error = %v", err)
	}
	if !res.Success {
		t.Fatal("Query failed")
	}
	if got := res.Bindings["idea"].Method.Kind; got != types.MethodExact {
		t.Errorf("method = %v, want exact", res.Bindings["idea"].Method)
	}
}

// Holographic priority accepts a verified holographic answer when no
// symbolic derivation exists.
func TestHolographicPriorityVerifiedAnswer(t *testing.T) {
	f := newFixture(t, types.SessionOptions{ReasoningPriority: types.HolographicPriority})
	buildBookBundle(t, f, "bookA", 10)
	for i := 1; i <= 10; i++ {
		f.assert(t, "bookB", "key3", fmt.Sprintf("idea%d", i))
	}

	res, err := f.kernel.Query(atom("bookA", "key3", "?idea"), types.QueryOpts{})
	if err != nil {
		t.Fatalf("Query error = %v", err)
	}
	if !res.Success {
		t.Fatal("verified holographic answer rejected")
	}
	binding := res.Bindings["idea"]
	if binding.Answer != "idea3" || binding.Method.Kind != types.MethodHolographic {
		t.Errorf("got %s via %s, want idea3 via holographic", binding.Answer, binding.Method)
	}
}

// The candidate set unions the relation's own index with the isA members of
// the slot's expected types, so an answer that never appears under the
// queried relation is still cleanable.
func TestHolographicTypeDerivedCandidates(t *testing.T) {
	f := newFixture(t, types.SessionOptions{})
	buildBookBundle(t, f, "bookA", 10)
	// The relation's object index knows only idea1; the remaining ideas are
	// reachable solely as members of the expected type.
	f.assert(t, "bookB", "key5", "idea1")
	for i := 1; i <= 10; i++ {
		f.assert(t, fmt.Sprintf("idea%d", i), "isA", "concept")
	}

	res, err := f.kernel.Query(atom("bookA", "key5", "?idea"), types.QueryOpts{})
	if err != nil {
		t.Fatalf("Query error = %v", err)
	}
	if !res.Success {
		t.Fatal("type-derived candidate never reached cleanup")
	}
	binding := res.Bindings["idea"]
	if binding.Answer != "idea5" || binding.Method.Kind != types.MethodHolographic {
		t.Errorf("got %s via %s, want idea5 via holographic", binding.Answer, binding.Method)
	}
}

// A symbolic rule-derived answer beats a verified holographic answer on
// disagreement; the holographic confidence is attached for telemetry.
func TestSymbolicRuleWinsOverHolographicDisagreement(t *testing.T) {
	f := newFixture(t, types.SessionOptions{ReasoningPriority: types.HolographicPriority})
	buildBookBundle(t, f, "bookA", 10)
	for i := 1; i <= 9; i++ {
		f.assert(t, "bookB", "key2", fmt.Sprintf("idea%d", i))
	}
	f.assert(t, "bookC", "key2", "ideaRule")
	f.assert(t, "bookA", "isA", "book")
	_ = f.rules.Define(types.Rule{
		Name: "bookIdea",
		Head: atom("?b", "key2", "ideaRule"),
		Body: []types.Atom{atom("?b", "isA", "book")},
	})

	res, err := f.kernel.Query(atom("bookA", "key2", "?idea"), types.QueryOpts{})
	if err != nil {
		t.Fatalf("Query error = %v", err)
	}
	if !res.Success {
		t.Fatal("Query failed")
	}
	binding := res.Bindings["idea"]
	if binding.Answer != "ideaRule" || binding.Method.Kind != types.MethodRule {
		t.Errorf("got %s via %s, want ideaRule via rule", binding.Answer, binding.Method)
	}
	if !binding.HasSim {
		t.Error("holographic confidence not attached on disagreement")
	}
}

// The holographic branch stays quiet for goals with more than one hole and
// for empty memory.
func TestHolographicGating(t *testing.T) {
	f := newFixture(t, types.SessionOptions{})
	sc := newSearchCtx(0)

	cand, _, err := f.kernel.holographic(atom("bookA", "key7", "?idea"), sc)
	if err != nil || cand != nil {
		t.Errorf("empty memory: got (%v, %v), want (nil, nil)", cand, err)
	}

	buildBookBundle(t, f, "bookA", 10)
	cand, _, err = f.kernel.holographic(atom("?who", "key7", "?idea"), sc)
	if err != nil || cand != nil {
		t.Errorf("two holes: got (%v, %v), want (nil, nil)", cand, err)
	}
}
