// Package types provides the shared data model of the sys2 reasoning engine.
// This package exists to break import cycles between kernel, graph, scope and
// session. Types here are foundational data structures with no dependencies on
// the rest of the engine.
package types

import (
	"fmt"
	"strings"
)

// Polarity marks a fact as affirmed or denied.
type Polarity int

const (
	Pos Polarity = iota
	Neg
)

func (p Polarity) String() string {
	if p == Neg {
		return "neg"
	}
	return "pos"
}

// Source records how a fact entered the graph.
type Source int

const (
	SourceAsserted Source = iota
	SourceDerived
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceDerived:
		return "derived"
	case SourceDefault:
		return "default"
	default:
		return "asserted"
	}
}

// Fact is a typed relational fact. Facts are unique on
// (Subject, Relation, Object, Polarity).
type Fact struct {
	Subject  string
	Relation string
	Object   string
	Polarity Polarity
	Source   Source
}

// FactKey is the primary index key of a fact.
type FactKey struct {
	Subject  string
	Relation string
	Object   string
	Polarity Polarity
}

// Key returns the primary index key of the fact.
func (f Fact) Key() FactKey {
	return FactKey{Subject: f.Subject, Relation: f.Relation, Object: f.Object, Polarity: f.Polarity}
}

// Opposite returns the key of the conflicting-polarity fact.
func (k FactKey) Opposite() FactKey {
	if k.Polarity == Pos {
		k.Polarity = Neg
	} else {
		k.Polarity = Pos
	}
	return k
}

func (f Fact) String() string {
	if f.Polarity == Neg {
		return fmt.Sprintf("not(%s %s %s)", f.Subject, f.Relation, f.Object)
	}
	return fmt.Sprintf("%s %s %s", f.Subject, f.Relation, f.Object)
}

// Term is one slot of a goal or rule atom: either a ground identifier or a
// hole/variable written ?name.
type Term struct {
	Value  string
	IsHole bool
}

// Ident returns a ground term.
func Ident(v string) Term { return Term{Value: v} }

// Hole returns a variable term. The name excludes the leading '?'.
func Hole(name string) Term { return Term{Value: name, IsHole: true} }

func (t Term) String() string {
	if t.IsHole {
		return "?" + t.Value
	}
	return t.Value
}

// Atom is a triple pattern with holes permitted in any slot. Used for goals
// and for rule heads and bodies.
type Atom struct {
	Subject  Term
	Relation Term
	Object   Term
	Polarity Polarity
}

func (a Atom) String() string {
	s := fmt.Sprintf("%s %s %s", a.Subject, a.Relation, a.Object)
	if a.Polarity == Neg {
		return "not(" + s + ")"
	}
	return s
}

// Ground reports whether the atom has no holes.
func (a Atom) Ground() bool {
	return !a.Subject.IsHole && !a.Relation.IsHole && !a.Object.IsHole
}

// Holes returns the hole names of the atom, in slot order.
func (a Atom) Holes() []string {
	var out []string
	for _, t := range []Term{a.Subject, a.Relation, a.Object} {
		if t.IsHole {
			out = append(out, t.Value)
		}
	}
	return out
}

// Fact converts a ground atom into a fact with the given source.
func (a Atom) Fact(src Source) Fact {
	return Fact{
		Subject:  a.Subject.Value,
		Relation: a.Relation.Value,
		Object:   a.Object.Value,
		Polarity: a.Polarity,
		Source:   src,
	}
}

// Goal is an atom submitted to the kernel for proving or querying.
type Goal = Atom

// Rule is a horn-like rule head <= body with variables permitted in any slot.
// Higher priority fires first; ties break by insertion order.
type Rule struct {
	Name     string
	Head     Atom
	Body     []Atom
	Priority int
	Seq      int
}

func (r Rule) String() string {
	var body []string
	for _, b := range r.Body {
		body = append(body, b.String())
	}
	return fmt.Sprintf("%s: %s <= %s", r.Name, r.Head, strings.Join(body, ", "))
}

// Default is a typed, exception-guarded default. It fires as
// "subject Property Value" (positive, source=default) for subjects that are
// derivably of Type, are not listed as exceptions, and have no explicit fact
// on (subject, Property, *).
type Default struct {
	Name       string
	Type       string
	Property   string
	Value      string
	Exceptions map[string]struct{}
}

// Excepted reports whether subject is excluded from the default.
func (d Default) Excepted(subject string) bool {
	_, ok := d.Exceptions[subject]
	return ok
}

// MethodKind tags how an answer was derived.
type MethodKind int

const (
	MethodExact MethodKind = iota
	MethodRule
	MethodDefault
	MethodHolographic
	MethodAbduced
)

// Method is the derivation tag attached to answers and proof steps. Rule and
// default methods carry the firing rule/default name.
type Method struct {
	Kind MethodKind
	Name string
}

func Exact() Method             { return Method{Kind: MethodExact} }
func ByRule(name string) Method { return Method{Kind: MethodRule, Name: name} }
func ByDefault(name string) Method {
	return Method{Kind: MethodDefault, Name: name}
}
func Holographic() Method { return Method{Kind: MethodHolographic} }
func Abduced() Method     { return Method{Kind: MethodAbduced} }

func (m Method) String() string {
	switch m.Kind {
	case MethodExact:
		return "exact"
	case MethodRule:
		return fmt.Sprintf("rule(%s)", m.Name)
	case MethodDefault:
		return fmt.Sprintf("default(%s)", m.Name)
	case MethodHolographic:
		return "holographic"
	case MethodAbduced:
		return "abduced"
	}
	return "unknown"
}

// Rank orders methods for result ranking: exact > rule > default > holographic.
func (m Method) Rank() int {
	switch m.Kind {
	case MethodExact:
		return 0
	case MethodRule:
		return 1
	case MethodDefault:
		return 2
	case MethodHolographic:
		return 3
	default:
		return 4
	}
}

// ProofStep records one derivation step of a successful proof.
type ProofStep struct {
	Conclusion Fact
	Method     Method
	Premises   []Fact
	Similarity float32
	HasSim     bool
}

func (p ProofStep) String() string {
	s := fmt.Sprintf("%s [%s]", p.Conclusion, p.Method)
	if p.HasSim {
		s += fmt.Sprintf(" sim=%.3f", p.Similarity)
	}
	return s
}

// Binding is the value a query computed for one hole.
type Binding struct {
	Answer     string
	Method     Method
	Similarity float32
	HasSim     bool
	Steps      []ProofStep
}

// Solution is one complete assignment of holes for a query.
type Solution struct {
	Bindings map[string]Binding
}

// QueryResult is the outcome of a query call. Bindings holds the top-ranked
// solution; AllResults the full ranked list up to max_results.
type QueryResult struct {
	Success    bool
	Bindings   map[string]Binding
	AllResults []Solution
	Stats      Stats
	Errors     []*Error
}

// ProveResult is the outcome of a prove call.
type ProveResult struct {
	Valid  bool
	Proof  []ProofStep
	Stats  Stats
	Errors []*Error
}

// LearnResult is the outcome of executing a DSL program.
type LearnResult struct {
	Success    bool
	FactsAdded int
	ScopeBound int
	Errors     []*Error
}

// Stats holds the cumulative reasoning counters of a session. Counters are
// additive until Reset.
type Stats struct {
	SimilarityChecks    int64
	RuleFirings         int64
	DefaultFirings      int64
	HolographicDecodes  int64
	ExactUnbindChecks   int64
	ExactUnbindOutTerms int64
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.SimilarityChecks += other.SimilarityChecks
	s.RuleFirings += other.RuleFirings
	s.DefaultFirings += other.DefaultFirings
	s.HolographicDecodes += other.HolographicDecodes
	s.ExactUnbindChecks += other.ExactUnbindChecks
	s.ExactUnbindOutTerms += other.ExactUnbindOutTerms
}
