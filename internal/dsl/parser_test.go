package dsl

import (
	"testing"

	"sys2/internal/types"
)

func parseOne(t *testing.T, src string) Statement {
	t.Helper()
	stmts, errs := NewParser(true).Parse(src)
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", src, errs[0])
	}
	if len(stmts) != 1 {
		t.Fatalf("parse %q: %d statements, want 1", src, len(stmts))
	}
	return stmts[0]
}

func TestParseAssertAndDeny(t *testing.T) {
	s := parseOne(t, "assert dog isA mammal")
	if s.Kind != StmtAssert || s.Fact.Subject != "dog" || s.Fact.Relation != "isA" ||
		s.Fact.Object != "mammal" || s.Fact.Polarity != types.Pos {
		t.Errorf("assert parsed as %+v", s)
	}
	s = parseOne(t, "deny penguin canFly true")
	if s.Kind != StmtAssert || s.Fact.Polarity != types.Neg {
		t.Errorf("deny parsed as %+v", s)
	}
}

func TestParseRule(t *testing.T) {
	s := parseOne(t, "rule transIsA [priority 5]: ?x isA ?z <= ?x isA ?y, ?y isA ?z")
	if s.Kind != StmtDefineRule {
		t.Fatalf("kind = %v", s.Kind)
	}
	r := s.Rule
	if r.Name != "transIsA" || r.Priority != 5 {
		t.Errorf("rule = %+v", r)
	}
	if !r.Head.Subject.IsHole || r.Head.Subject.Value != "x" {
		t.Errorf("head subject = %+v", r.Head.Subject)
	}
	if len(r.Body) != 2 {
		t.Fatalf("body atoms = %d, want 2", len(r.Body))
	}
	if r.Body[1].Subject.Value != "y" || r.Body[1].Object.Value != "z" {
		t.Errorf("second body atom = %+v", r.Body[1])
	}
}

func TestParseDefault(t *testing.T) {
	s := parseOne(t, "default bird canFly true unless penguin, ostrich")
	d := s.Default
	if d.Type != "bird" || d.Property != "canFly" || d.Value != "true" {
		t.Errorf("default = %+v", d)
	}
	if len(d.Exceptions) != 2 {
		t.Errorf("exceptions = %v, want penguin and ostrich", d.Exceptions)
	}
}

func TestParseBind(t *testing.T) {
	s := parseOne(t, "@book = __Bundle($a, ideaOne)")
	if s.Kind != StmtBind || s.BindName != "book" || s.Persist {
		t.Fatalf("bind = %+v", s)
	}
	if s.Expr.Kind != ExprCall || s.Expr.Name != "__Bundle" || len(s.Expr.Args) != 2 {
		t.Fatalf("expr = %+v", s.Expr)
	}
	if s.Expr.Args[0].Kind != ExprRef || s.Expr.Args[0].Name != "a" {
		t.Errorf("first arg = %+v", s.Expr.Args[0])
	}
	if s.Expr.Args[1].Kind != ExprIdent || s.Expr.Args[1].Name != "ideaOne" {
		t.Errorf("second arg = %+v", s.Expr.Args[1])
	}

	s = parseOne(t, "@book:library = ___Bind($a, $b)")
	if !s.Persist || s.PersistName != "library" {
		t.Errorf("persist bind = %+v", s)
	}
}

func TestParseQueryProveLoadMacro(t *testing.T) {
	s := parseOne(t, "query dog isA ?x [max 5]")
	if s.Kind != StmtQuery || s.Opts.MaxResults != 5 || !s.Goal.Object.IsHole {
		t.Errorf("query = %+v", s)
	}
	s = parseOne(t, "prove dog isA animal")
	if s.Kind != StmtProve || !s.Goal.Ground() {
		t.Errorf("prove = %+v", s)
	}
	s = parseOne(t, `load "packs/base.sys2"`)
	if s.Kind != StmtLoad || s.Path != "packs/base.sys2" {
		t.Errorf("load = %+v", s)
	}
	s = parseOne(t, "macro transIsA(dog, animal)")
	if s.Kind != StmtCallMacro || s.MacroName != "transIsA" || len(s.MacroArgs) != 2 {
		t.Errorf("macro = %+v", s)
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	stmts, errs := NewParser(true).Parse(`
		# a comment
		assert dog isA mammal  # trailing comment

		assert cat isA mammal
	`)
	if len(errs) != 0 {
		t.Fatalf("errors = %v", errs)
	}
	if len(stmts) != 2 {
		t.Errorf("statements = %d, want 2", len(stmts))
	}
}

func TestErrorsCarryLineNumbers(t *testing.T) {
	_, errs := NewParser(true).Parse("assert dog isA mammal\nbogus statement here\n")
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want 1", errs)
	}
	if errs[0].Kind != types.KindParse || errs[0].Line != 2 {
		t.Errorf("error = %+v, want Parse at line 2", errs[0])
	}
}

func TestStrictUnknownOperator(t *testing.T) {
	_, errs := NewParser(true).Parse("@x = __Mystery(a)")
	if len(errs) != 1 || errs[0].Kind != types.KindUnknownOperator {
		t.Errorf("strict parse = %v, want UnknownOperator", errs)
	}
	_, errs = NewParser(false).Parse("@x = __Mystery(a)")
	if len(errs) != 0 {
		t.Errorf("lenient parse = %v, want no errors", errs)
	}
}

func TestOperatorArityChecked(t *testing.T) {
	_, errs := NewParser(true).Parse("@x = ___Bind(a)")
	if len(errs) != 1 || errs[0].Kind != types.KindParse {
		t.Errorf("arity error = %v, want Parse", errs)
	}
}

func TestProveRejectsHoles(t *testing.T) {
	_, errs := NewParser(true).Parse("prove dog isA ?x")
	if len(errs) != 1 || errs[0].Kind != types.KindParse {
		t.Errorf("prove with hole = %v, want Parse", errs)
	}
}
