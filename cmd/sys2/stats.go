package main

import (
	"fmt"
	"io"

	"sys2/internal/types"
)

// Exit codes of the CLI surface.
const (
	exitOK            = 0
	exitGoalsFailed   = 1
	exitTimeout       = 2
	exitContradiction = 3
	exitParse         = 4
	exitInterrupted   = 130
)

// exitCode maps an engine error onto the CLI exit code contract.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	e, ok := types.AsError(err)
	if !ok {
		return exitGoalsFailed
	}
	switch e.Kind {
	case types.KindTimeout:
		return exitTimeout
	case types.KindContradiction:
		return exitContradiction
	case types.KindParse, types.KindUnknownOperator:
		return exitParse
	default:
		return exitGoalsFailed
	}
}

// printStats renders the cumulative reasoning counters.
func printStats(w io.Writer, stats types.Stats) {
	fmt.Fprintf(w, "similarity checks:    %d\n", stats.SimilarityChecks)
	fmt.Fprintf(w, "rule firings:         %d\n", stats.RuleFirings)
	fmt.Fprintf(w, "default firings:      %d\n", stats.DefaultFirings)
	fmt.Fprintf(w, "holographic decodes:  %d\n", stats.HolographicDecodes)
	if stats.ExactUnbindChecks > 0 || stats.ExactUnbindOutTerms > 0 {
		fmt.Fprintf(w, "exact unbind checks:  %d\n", stats.ExactUnbindChecks)
		fmt.Fprintf(w, "exact unbind terms:   %d\n", stats.ExactUnbindOutTerms)
	}
}
