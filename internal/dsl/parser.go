package dsl

import (
	"strconv"
	"strings"

	"sys2/internal/types"
)

// ReferenceParser is the bundled implementation of the parser contract. It
// parses the line-oriented .sys2 syntax:
//
//	assert dog isA mammal
//	deny penguin canFly true
//	retract dog isA mammal
//	rule transIsA [priority 5]: ?x isA ?z <= ?x isA ?y, ?y isA ?z
//	default bird canFly true unless penguin, ostrich
//	@book = __Bundle($a, ideaOne)
//	@book:library = __Sequence($x, $y)
//	macro transIsA(dog, animal)
//	load "packs/base.sys2"
//	query dog isA ?x [max 5]
//	prove dog isA animal
//
// '#' starts a comment. Strict mode turns recoverable issues into errors.
type ReferenceParser struct {
	Strict bool
}

// NewParser returns a reference parser in the given mode.
func NewParser(strict bool) *ReferenceParser {
	return &ReferenceParser{Strict: strict}
}

// Parse converts source text into a statement stream. Lenient mode skips
// malformed lines after recording the error; strict mode records every
// error as well, leaving the caller to decide whether to execute.
func (p *ReferenceParser) Parse(src string) ([]Statement, []*types.Error) {
	var stmts []Statement
	var errs []*types.Error
	for i, raw := range strings.Split(src, "\n") {
		line := i + 1
		text := raw
		if idx := strings.Index(text, "#"); idx >= 0 && !insideQuotes(text, idx) {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		stmt, err := p.parseLine(text, line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, errs
}

func insideQuotes(s string, idx int) bool {
	quoted := false
	for i := 0; i < idx; i++ {
		if s[i] == '"' {
			quoted = !quoted
		}
	}
	return quoted
}

func (p *ReferenceParser) parseLine(text string, line int) (Statement, error2) {
	switch {
	case strings.HasPrefix(text, "@"):
		return p.parseBind(text, line)
	}
	fields := splitFields(text)
	if len(fields) == 0 {
		return Statement{}, types.E(types.KindParse, "empty statement").At(line, 1)
	}
	switch fields[0] {
	case "assert":
		return p.parseAssert(fields[1:], types.Pos, line)
	case "deny":
		return p.parseAssert(fields[1:], types.Neg, line)
	case "retract":
		return p.parseRetract(fields[1:], line)
	case "rule":
		return p.parseRule(text, line)
	case "default":
		return p.parseDefault(fields[1:], line)
	case "macro":
		return p.parseMacro(text, line)
	case "load":
		return p.parseLoad(fields[1:], line)
	case "query":
		return p.parseQuery(fields[1:], line)
	case "prove":
		return p.parseProve(fields[1:], line)
	default:
		return Statement{}, types.E(types.KindParse, "unknown statement %q", fields[0]).At(line, 1).For(fields[0])
	}
}

// error2 keeps the *types.Error concrete type on internal signatures while
// satisfying the error interface at the boundary.
type error2 = *types.Error

// splitFields splits on whitespace, keeping quoted strings and bracketed or
// parenthesized groups intact.
func splitFields(text string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	quoted := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case quoted:
			cur.WriteRune(r)
		case r == '(' || r == '[':
			depth++
			cur.WriteRune(r)
		case r == ')' || r == ']':
			depth--
			cur.WriteRune(r)
		case (r == ' ' || r == '\t') && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func parseTerm(tok string) types.Term {
	if strings.HasPrefix(tok, "?") {
		return types.Hole(strings.TrimPrefix(tok, "?"))
	}
	return types.Ident(tok)
}

func validIdent(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func (p *ReferenceParser) triple(fields []string, line int) (types.Atom, error2) {
	if len(fields) != 3 {
		return types.Atom{}, types.E(types.KindParse, "expected a subject-relation-object triple, got %d tokens", len(fields)).At(line, 1)
	}
	var terms [3]types.Term
	for i, tok := range fields {
		t := parseTerm(tok)
		if !t.IsHole && !validIdent(t.Value) {
			return types.Atom{}, types.E(types.KindParse, "invalid identifier %q", tok).At(line, 1).For(tok)
		}
		terms[i] = t
	}
	return types.Atom{Subject: terms[0], Relation: terms[1], Object: terms[2]}, nil
}

func (p *ReferenceParser) parseAssert(fields []string, pol types.Polarity, line int) (Statement, error2) {
	atom, err := p.triple(fields, line)
	if err != nil {
		return Statement{}, err
	}
	if !atom.Ground() {
		return Statement{}, types.E(types.KindParse, "assert requires a ground triple").At(line, 1)
	}
	atom.Polarity = pol
	return Statement{Kind: StmtAssert, Fact: atom.Fact(types.SourceAsserted), Line: line, Col: 1}, nil
}

func (p *ReferenceParser) parseRetract(fields []string, line int) (Statement, error2) {
	atom, err := p.triple(fields, line)
	if err != nil {
		return Statement{}, err
	}
	if !atom.Ground() {
		return Statement{}, types.E(types.KindParse, "retract requires a ground triple").At(line, 1)
	}
	return Statement{Kind: StmtRetract, Fact: atom.Fact(types.SourceAsserted), Line: line, Col: 1}, nil
}

// parseRule handles: rule name [priority N]: head <= body1, body2
func (p *ReferenceParser) parseRule(text string, line int) (Statement, error2) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "rule"))
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return Statement{}, types.E(types.KindParse, "rule requires a ':' after its name").At(line, 1)
	}
	namePart := strings.TrimSpace(rest[:colon])
	body := strings.TrimSpace(rest[colon+1:])

	priority := 0
	if idx := strings.Index(namePart, "["); idx >= 0 {
		attr := strings.Trim(namePart[idx:], "[]")
		namePart = strings.TrimSpace(namePart[:idx])
		parts := strings.Fields(attr)
		if len(parts) == 2 && parts[0] == "priority" {
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return Statement{}, types.E(types.KindParse, "bad rule priority %q", parts[1]).At(line, 1)
			}
			priority = n
		} else {
			return Statement{}, types.E(types.KindParse, "bad rule attribute %q", attr).At(line, 1)
		}
	}
	if !validIdent(namePart) {
		return Statement{}, types.E(types.KindParse, "invalid rule name %q", namePart).At(line, 1).For(namePart)
	}

	arrow := strings.Index(body, "<=")
	if arrow < 0 {
		return Statement{}, types.E(types.KindParse, "rule requires '<=' between head and body").At(line, 1)
	}
	head, err := p.triple(splitFields(strings.TrimSpace(body[:arrow])), line)
	if err != nil {
		return Statement{}, err
	}
	var atoms []types.Atom
	for _, part := range strings.Split(body[arrow+2:], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		atom, err := p.triple(splitFields(part), line)
		if err != nil {
			return Statement{}, err
		}
		atoms = append(atoms, atom)
	}
	if len(atoms) == 0 {
		return Statement{}, types.E(types.KindParse, "rule %q has an empty body", namePart).At(line, 1).For(namePart)
	}
	return Statement{
		Kind: StmtDefineRule,
		Rule: types.Rule{Name: namePart, Head: head, Body: atoms, Priority: priority},
		Line: line, Col: 1,
	}, nil
}

// parseDefault handles: default type property value unless a, b
func (p *ReferenceParser) parseDefault(fields []string, line int) (Statement, error2) {
	if len(fields) < 3 {
		return Statement{}, types.E(types.KindParse, "default requires type, property and value").At(line, 1)
	}
	d := types.Default{
		Type:       fields[0],
		Property:   fields[1],
		Value:      fields[2],
		Exceptions: make(map[string]struct{}),
	}
	for _, tok := range []string{d.Type, d.Property, d.Value} {
		if !validIdent(tok) {
			return Statement{}, types.E(types.KindParse, "invalid identifier %q", tok).At(line, 1).For(tok)
		}
	}
	if len(fields) > 3 {
		if fields[3] != "unless" {
			return Statement{}, types.E(types.KindParse, "expected 'unless', got %q", fields[3]).At(line, 1)
		}
		for _, tok := range fields[4:] {
			for _, e := range strings.Split(tok, ",") {
				e = strings.TrimSpace(e)
				if e == "" {
					continue
				}
				if !validIdent(e) {
					return Statement{}, types.E(types.KindParse, "invalid exception %q", e).At(line, 1).For(e)
				}
				d.Exceptions[e] = struct{}{}
			}
		}
	}
	return Statement{Kind: StmtDefineDefault, Default: d, Line: line, Col: 1}, nil
}

// parseBind handles: @name = expr and @name:persistName = expr
func (p *ReferenceParser) parseBind(text string, line int) (Statement, error2) {
	eq := strings.Index(text, "=")
	if eq < 0 {
		return Statement{}, types.E(types.KindParse, "bind requires '='").At(line, 1)
	}
	dest := strings.TrimSpace(strings.TrimPrefix(text[:eq], "@"))
	persist := false
	persistName := ""
	if idx := strings.Index(dest, ":"); idx >= 0 {
		persist = true
		persistName = strings.TrimSpace(dest[idx+1:])
		dest = strings.TrimSpace(dest[:idx])
		if !validIdent(persistName) {
			return Statement{}, types.E(types.KindParse, "invalid persist name %q", persistName).At(line, 1).For(persistName)
		}
	}
	if !validIdent(dest) {
		return Statement{}, types.E(types.KindParse, "invalid bind destination %q", dest).At(line, 1).For(dest)
	}
	expr, err := p.parseExpr(strings.TrimSpace(text[eq+1:]), line)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Kind: StmtBind, BindName: dest, Persist: persist, PersistName: persistName,
		Expr: expr, Line: line, Col: 1,
	}, nil
}

func (p *ReferenceParser) parseExpr(text string, line int) (*Expr, error2) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, types.E(types.KindParse, "empty expression").At(line, 1)
	}
	if strings.HasPrefix(text, "$") {
		name := strings.TrimPrefix(text, "$")
		if !validIdent(name) {
			return nil, types.E(types.KindParse, "invalid scope reference %q", text).At(line, 1).For(text)
		}
		return &Expr{Kind: ExprRef, Name: name, Line: line}, nil
	}
	if open := strings.Index(text, "("); open >= 0 {
		name := strings.TrimSpace(text[:open])
		if !strings.HasSuffix(text, ")") {
			return nil, types.E(types.KindParse, "unterminated call %q", text).At(line, 1)
		}
		arity, known := KnownOperator(name)
		if !known && p.Strict {
			return nil, types.E(types.KindUnknownOperator, "unknown operator %q", name).At(line, 1).For(name)
		}
		var args []*Expr
		for _, part := range splitArgs(text[open+1 : len(text)-1]) {
			arg, err := p.parseExpr(part, line)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if known && arity >= 0 && len(args) != arity {
			return nil, types.E(types.KindParse, "%s expects %d arguments, got %d", name, arity, len(args)).At(line, 1).For(name)
		}
		if len(args) == 0 {
			return nil, types.E(types.KindParse, "%s expects at least one argument", name).At(line, 1).For(name)
		}
		return &Expr{Kind: ExprCall, Name: name, Args: args, Line: line}, nil
	}
	if !validIdent(text) {
		return nil, types.E(types.KindParse, "invalid identifier %q", text).At(line, 1).For(text)
	}
	return &Expr{Kind: ExprIdent, Name: text, Line: line}, nil
}

// splitArgs splits a comma-separated argument list at depth zero.
func splitArgs(text string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// parseMacro handles: macro name(arg1, arg2)
func (p *ReferenceParser) parseMacro(text string, line int) (Statement, error2) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "macro"))
	open := strings.Index(rest, "(")
	if open < 0 || !strings.HasSuffix(rest, ")") {
		return Statement{}, types.E(types.KindParse, "macro requires a call form name(args)").At(line, 1)
	}
	name := strings.TrimSpace(rest[:open])
	if !validIdent(name) {
		return Statement{}, types.E(types.KindParse, "invalid macro name %q", name).At(line, 1).For(name)
	}
	var args []string
	for _, part := range splitArgs(rest[open+1 : len(rest)-1]) {
		if !validIdent(part) {
			return Statement{}, types.E(types.KindParse, "invalid macro argument %q", part).At(line, 1).For(part)
		}
		args = append(args, part)
	}
	return Statement{Kind: StmtCallMacro, MacroName: name, MacroArgs: args, Line: line, Col: 1}, nil
}

func (p *ReferenceParser) parseLoad(fields []string, line int) (Statement, error2) {
	if len(fields) != 1 {
		return Statement{}, types.E(types.KindParse, "load requires a single quoted path").At(line, 1)
	}
	path := strings.Trim(fields[0], `"`)
	if path == "" {
		return Statement{}, types.E(types.KindParse, "load requires a non-empty path").At(line, 1)
	}
	return Statement{Kind: StmtLoad, Path: path, Line: line, Col: 1}, nil
}

func (p *ReferenceParser) parseQuery(fields []string, line int) (Statement, error2) {
	opts := types.QueryOpts{}
	if len(fields) > 3 {
		attr := strings.Trim(fields[len(fields)-1], "[]")
		parts := strings.Fields(attr)
		switch {
		case len(parts) == 2 && parts[0] == "max":
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return Statement{}, types.E(types.KindParse, "bad max results %q", parts[1]).At(line, 1)
			}
			opts.MaxResults = n
		case len(parts) == 2 && parts[0] == "timeout":
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return Statement{}, types.E(types.KindParse, "bad timeout %q", parts[1]).At(line, 1)
			}
			opts.TimeoutMS = n
		default:
			return Statement{}, types.E(types.KindParse, "bad query attribute %q", attr).At(line, 1)
		}
		fields = fields[:len(fields)-1]
	}
	atom, err := p.triple(fields, line)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: StmtQuery, Goal: atom, Opts: opts, Line: line, Col: 1}, nil
}

func (p *ReferenceParser) parseProve(fields []string, line int) (Statement, error2) {
	atom, err := p.triple(fields, line)
	if err != nil {
		return Statement{}, err
	}
	if !atom.Ground() {
		return Statement{}, types.E(types.KindParse, "prove requires a goal without holes").At(line, 1)
	}
	return Statement{Kind: StmtProve, Goal: atom, Line: line, Col: 1}, nil
}

// Check performs static validation of source text and returns the recorded
// errors. Strict mode additionally flags unknown operators.
func Check(src string, strict bool) []*types.Error {
	_, errs := NewParser(strict).Parse(src)
	return errs
}
