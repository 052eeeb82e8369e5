package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"sys2/internal/types"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"timeout", types.E(types.KindTimeout, "slow"), exitTimeout},
		{"contradiction", types.E(types.KindContradiction, "conflict"), exitContradiction},
		{"parse", types.E(types.KindParse, "bad"), exitParse},
		{"unknown operator", types.E(types.KindUnknownOperator, "op"), exitParse},
		{"io", types.E(types.KindIO, "disk"), exitGoalsFailed},
		{"plain error", errors.New("other"), exitGoalsFailed},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("%s: exitCode = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestExitCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := types.Wrap(types.KindTimeout, errors.New("deadline"), "query timed out")
	if got := exitCode(wrapped); got != exitTimeout {
		t.Errorf("wrapped timeout: exitCode = %d, want %d", got, exitTimeout)
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, types.Stats{SimilarityChecks: 3, RuleFirings: 2})
	out := buf.String()
	if !strings.Contains(out, "similarity checks:    3") || !strings.Contains(out, "rule firings:         2") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
	if strings.Contains(out, "exact unbind") {
		t.Error("exact counters printed while zero")
	}
}

func TestParseCLITerm(t *testing.T) {
	if term := parseCLITerm("?x"); !term.IsHole || term.Value != "x" {
		t.Errorf("parseCLITerm(?x) = %+v", term)
	}
	if term := parseCLITerm("dog"); term.IsHole || term.Value != "dog" {
		t.Errorf("parseCLITerm(dog) = %+v", term)
	}
}
