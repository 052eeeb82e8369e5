package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFactKeyAndOpposite(t *testing.T) {
	f := Fact{Subject: "dog", Relation: "isA", Object: "mammal", Polarity: Pos}
	key := f.Key()
	opp := key.Opposite()
	if opp.Polarity != Neg || opp.Subject != "dog" {
		t.Errorf("Opposite = %+v", opp)
	}
	if opp.Opposite() != key {
		t.Error("double Opposite is not the identity")
	}
}

func TestAtomHolesAndGround(t *testing.T) {
	a := Atom{Subject: Ident("dog"), Relation: Ident("isA"), Object: Hole("x")}
	if a.Ground() {
		t.Error("atom with hole reported ground")
	}
	if holes := a.Holes(); len(holes) != 1 || holes[0] != "x" {
		t.Errorf("Holes = %v", holes)
	}
	if a.String() != "dog isA ?x" {
		t.Errorf("String = %q", a.String())
	}
}

func TestMethodStringsAndRank(t *testing.T) {
	cases := []struct {
		m    Method
		want string
	}{
		{Exact(), "exact"},
		{ByRule("transIsA"), "rule(transIsA)"},
		{ByDefault("bird_canFly"), "default(bird_canFly)"},
		{Holographic(), "holographic"},
		{Abduced(), "abduced"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Errorf("String = %q, want %q", got, tc.want)
		}
	}
	if !(Exact().Rank() < ByRule("r").Rank() &&
		ByRule("r").Rank() < ByDefault("d").Rank() &&
		ByDefault("d").Rank() < Holographic().Rank()) {
		t.Error("method ranking out of order")
	}
}

func TestErrorFormatting(t *testing.T) {
	e := E(KindContradiction, "conflict on %s", "dog").At(3, 7).For("dog isA mammal")
	msg := e.Error()
	for _, want := range []string{"Contradiction", "conflict on dog", "(3:7)", "[dog isA mammal]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestErrorWrappingAndKinds(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(KindIO, cause, "persist failed")
	if !errors.Is(e, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	outer := fmt.Errorf("context: %w", e)
	if !IsKind(outer, KindIO) {
		t.Error("IsKind fails through wrapping")
	}
	if IsKind(outer, KindTimeout) {
		t.Error("IsKind matches the wrong kind")
	}
}

func TestRecoverable(t *testing.T) {
	if !Recoverable(E(KindUnknownConcept, "x"), false, false) {
		t.Error("lenient unknown concept should be recoverable")
	}
	if Recoverable(E(KindUnknownConcept, "x"), false, true) {
		t.Error("strict unknown concept should abort")
	}
	if Recoverable(E(KindContradiction, "x"), true, false) {
		t.Error("rejected contradiction should abort")
	}
	if !Recoverable(E(KindContradiction, "x"), false, false) {
		t.Error("tolerated contradiction should be recoverable")
	}
	if Recoverable(E(KindTimeout, "x"), false, false) {
		t.Error("timeout must always abort")
	}
	if Recoverable(errors.New("plain"), false, false) {
		t.Error("non-engine errors must abort")
	}
}

func TestOptionsNormalize(t *testing.T) {
	opts := SessionOptions{}.Normalize()
	if opts.HDCStrategy != "dense-binary" || opts.DepthLimit != 16 ||
		opts.ReasoningPriority != SymbolicPriority || opts.ExactUnbindMode != UnbindModeA ||
		opts.ReasoningProfile != "theoryDriven" {
		t.Errorf("Normalize = %+v", opts)
	}
	custom := SessionOptions{DepthLimit: 4, HDCStrategy: "exact"}.Normalize()
	if custom.DepthLimit != 4 || custom.HDCStrategy != "exact" {
		t.Errorf("Normalize clobbered explicit values: %+v", custom)
	}
}

func TestStatsAdd(t *testing.T) {
	a := Stats{SimilarityChecks: 1, RuleFirings: 2}
	a.Add(Stats{SimilarityChecks: 3, DefaultFirings: 4})
	if a.SimilarityChecks != 4 || a.RuleFirings != 2 || a.DefaultFirings != 4 {
		t.Errorf("Add = %+v", a)
	}
}
