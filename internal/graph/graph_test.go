package graph

import (
	"testing"

	"sys2/internal/scope"
	"sys2/internal/types"
)

func fact(s, r, o string) types.Fact {
	return types.Fact{Subject: s, Relation: r, Object: o, Polarity: types.Pos, Source: types.SourceAsserted}
}

func TestAssertAndDuplicate(t *testing.T) {
	j := &scope.Journal{}
	g := New(j)

	added, err := g.Assert(fact("dog", "isA", "mammal"))
	if err != nil || !added {
		t.Fatalf("Assert = (%v, %v), want (true, nil)", added, err)
	}
	added, err = g.Assert(fact("dog", "isA", "mammal"))
	if err != nil {
		t.Fatalf("duplicate Assert error = %v", err)
	}
	if added {
		t.Error("duplicate Assert reported added")
	}
	if g.Count() != 1 {
		t.Errorf("Count = %d, want 1", g.Count())
	}
}

func TestContradictionSignaled(t *testing.T) {
	j := &scope.Journal{}
	g := New(j)
	if _, err := g.Assert(fact("penguin", "canFly", "true")); err != nil {
		t.Fatalf("Assert error = %v", err)
	}
	neg := fact("penguin", "canFly", "true")
	neg.Polarity = types.Neg
	if _, err := g.Assert(neg); !types.IsKind(err, types.KindContradiction) {
		t.Errorf("conflicting polarity: got %v, want Contradiction", err)
	}
	// The conflicting fact must not have been stored.
	if g.Count() != 1 {
		t.Errorf("Count = %d after rejected contradiction, want 1", g.Count())
	}
}

func TestIndicesCoherentAfterRetract(t *testing.T) {
	j := &scope.Journal{}
	g := New(j)
	_, _ = g.Assert(fact("dog", "isA", "mammal"))
	_, _ = g.Assert(fact("dog", "likes", "bones"))
	_, _ = g.Assert(fact("cat", "isA", "mammal"))

	if n := g.Retract("dog", "isA", "mammal"); n != 1 {
		t.Fatalf("Retract removed %d, want 1", n)
	}
	if len(g.BySubject("dog")) != 1 {
		t.Errorf("subject index has %d entries, want 1", len(g.BySubject("dog")))
	}
	if len(g.ByRelation("isA")) != 1 {
		t.Errorf("relation index has %d entries, want 1", len(g.ByRelation("isA")))
	}
	if len(g.ByRelationObject("isA", "mammal")) != 1 {
		t.Errorf("relation-object index has %d entries, want 1", len(g.ByRelationObject("isA", "mammal")))
	}
}

func TestCascadeRemovesUnsupportedDerivations(t *testing.T) {
	j := &scope.Journal{}
	g := New(j)
	_, _ = g.Assert(fact("dog", "isA", "mammal"))
	_, _ = g.Assert(fact("mammal", "isA", "animal"))

	derived := fact("dog", "isA", "animal")
	derived.Source = types.SourceDerived
	premises := []types.FactKey{
		fact("dog", "isA", "mammal").Key(),
		fact("mammal", "isA", "animal").Key(),
	}
	if _, err := g.AssertDerived(derived, premises); err != nil {
		t.Fatalf("AssertDerived error = %v", err)
	}
	if !g.Has(derived.Key()) {
		t.Fatal("derived fact missing")
	}

	g.Retract("dog", "isA", "mammal")
	if g.Has(derived.Key()) {
		t.Error("derived fact survived loss of its only premise set")
	}
}

func TestDerivedSurvivesWithSecondPremiseSet(t *testing.T) {
	j := &scope.Journal{}
	g := New(j)
	_, _ = g.Assert(fact("dog", "isA", "mammal"))
	_, _ = g.Assert(fact("dog", "isA", "pet"))
	_, _ = g.Assert(fact("mammal", "isA", "animal"))
	_, _ = g.Assert(fact("pet", "isA", "animal"))

	derived := fact("dog", "isA", "animal")
	derived.Source = types.SourceDerived
	setA := []types.FactKey{fact("dog", "isA", "mammal").Key(), fact("mammal", "isA", "animal").Key()}
	setB := []types.FactKey{fact("dog", "isA", "pet").Key(), fact("pet", "isA", "animal").Key()}
	_, _ = g.AssertDerived(derived, setA)
	_, _ = g.AssertDerived(derived, setB)

	g.Retract("dog", "isA", "mammal")
	if !g.Has(derived.Key()) {
		t.Error("derived fact removed despite a surviving premise set")
	}
	g.Retract("dog", "isA", "pet")
	if g.Has(derived.Key()) {
		t.Error("derived fact survived with no premise sets left")
	}
}

func TestJournalRollbackRestoresGraph(t *testing.T) {
	j := &scope.Journal{}
	g := New(j)
	_, _ = g.Assert(fact("a", "r", "b"))

	mark := j.Mark()
	_, _ = g.Assert(fact("c", "r", "d"))
	g.Retract("a", "r", "b")
	if g.Count() != 1 {
		t.Fatalf("mid-transaction Count = %d, want 1", g.Count())
	}

	j.RollbackTo(mark)
	if g.Count() != 1 {
		t.Errorf("post-rollback Count = %d, want 1", g.Count())
	}
	if !g.Has(fact("a", "r", "b").Key()) {
		t.Error("rollback did not restore the retracted fact")
	}
	if g.Has(fact("c", "r", "d").Key()) {
		t.Error("rollback did not remove the asserted fact")
	}
	if len(g.BySubject("c")) != 0 {
		t.Error("secondary index retains rolled-back fact")
	}
}

func TestRuleTableOrdering(t *testing.T) {
	j := &scope.Journal{}
	rt := NewRuleTable(j)
	head := types.Atom{Subject: types.Hole("x"), Relation: types.Ident("isA"), Object: types.Hole("z")}
	body := []types.Atom{{Subject: types.Hole("x"), Relation: types.Ident("isA"), Object: types.Hole("y")}}

	if err := rt.Define(types.Rule{Name: "low", Head: head, Body: body, Priority: 0}); err != nil {
		t.Fatalf("Define error = %v", err)
	}
	if err := rt.Define(types.Rule{Name: "high", Head: head, Body: body, Priority: 5}); err != nil {
		t.Fatalf("Define error = %v", err)
	}
	if err := rt.Define(types.Rule{Name: "alsoLow", Head: head, Body: body, Priority: 0}); err != nil {
		t.Fatalf("Define error = %v", err)
	}

	order := rt.Ordered()
	if order[0].Name != "high" || order[1].Name != "low" || order[2].Name != "alsoLow" {
		t.Errorf("firing order = [%s %s %s], want [high low alsoLow]",
			order[0].Name, order[1].Name, order[2].Name)
	}

	if err := rt.Define(types.Rule{Name: "high", Head: head, Body: body}); !types.IsKind(err, types.KindParse) {
		t.Errorf("duplicate rule name: got %v, want Parse", err)
	}

	mark := j.Mark()
	_ = rt.Define(types.Rule{Name: "temp", Head: head, Body: body})
	j.RollbackTo(mark)
	if _, ok := rt.Get("temp"); ok {
		t.Error("rolled-back rule still defined")
	}
}

func TestDefaultsTable(t *testing.T) {
	j := &scope.Journal{}
	dt := NewDefaultsTable(j)
	err := dt.Define(types.Default{
		Type: "bird", Property: "canFly", Value: "true",
		Exceptions: map[string]struct{}{"penguin": {}},
	})
	if err != nil {
		t.Fatalf("Define error = %v", err)
	}
	ds := dt.ForProperty("canFly")
	if len(ds) != 1 || ds[0].Name != "bird_canFly" {
		t.Fatalf("ForProperty = %v", ds)
	}
	if !ds[0].Excepted("penguin") || ds[0].Excepted("robin") {
		t.Error("exception set misbehaves")
	}

	mark := j.Mark()
	_ = dt.Define(types.Default{Type: "fish", Property: "canSwim", Value: "true"})
	j.RollbackTo(mark)
	if len(dt.ForProperty("canSwim")) != 0 {
		t.Error("rolled-back default still present")
	}
}
