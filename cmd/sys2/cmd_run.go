package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sys2/internal/dsl"
	"sys2/internal/session"
	"sys2/internal/types"
)

var (
	runShowStats bool
	runValidate  bool
)

var runCmd = &cobra.Command{
	Use:   "run [files or pack directories...]",
	Short: "Learn theories and execute their prove/query goals",
	Long: `Run loads the configured packs plus the given .sys2 files or pack
directories, learns their statements, and executes every embedded prove and
query goal. The exit code reports goal failures, timeouts, contradictions
and parse errors. Goals inside pack directories run during learning: their
query results are neither printed nor counted as failures.`,
	Args: cobra.MinimumNArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := session.New(cfg.ToOptions())
		if err != nil {
			return err
		}
		defer sess.Close()

		for _, dir := range cfg.Packs {
			if _, err := sess.LoadPack(dir, runValidate); err != nil {
				return err
			}
		}

		failed := 0
		for _, arg := range args {
			n, err := runTarget(sess, arg)
			if err != nil {
				return err
			}
			failed += n
		}

		if runShowStats {
			printStats(cmd.OutOrStdout(), sess.Stats())
		}
		if failed > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d goal(s) failed\n", failed)
			os.Exit(exitGoalsFailed)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runShowStats, "stats", false, "print reasoning statistics")
	runCmd.Flags().BoolVar(&runValidate, "validate", false, "treat missing pack files as errors")
}

// runTarget learns one file or pack directory, executing its goals. For a
// file it returns the number of failed prove and query goals; for a pack
// directory it returns the number of UnknownConcept errors the learn
// recorded, which include failed prove goals but not query goals.
func runTarget(sess *session.Session, target string) (int, error) {
	info, err := os.Stat(target)
	if err != nil {
		return 0, types.Wrap(types.KindIO, err, "stat %s", target)
	}
	if info.IsDir() {
		res, err := sess.LoadPack(target, runValidate)
		if err != nil {
			return 0, err
		}
		reportErrors(res.Errors)
		return countGoalFailures(res.Errors), nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return 0, types.Wrap(types.KindIO, err, "read %s", target)
	}
	sess.SetLoadDir(filepath.Dir(target))

	stmts, parseErrs := dsl.NewParser(cfg.Session.StrictIdentifiers).Parse(string(data))
	if len(parseErrs) > 0 {
		reportErrors(parseErrs)
		return 0, parseErrs[0]
	}

	// Mutating statements go through Learn; goals execute individually so
	// each failure is visible in the exit code.
	failed := 0
	var program []dsl.Statement
	for _, stmt := range stmts {
		switch stmt.Kind {
		case dsl.StmtProve:
			if err := flushLearn(sess, &program); err != nil {
				return failed, err
			}
			pr, err := sess.Prove(stmt.Goal, stmt.Opts)
			if err != nil {
				return failed, err
			}
			fmt.Print(session.DescribeResult("prove", pr, stmt.Goal))
			if !pr.Valid {
				failed++
			}
		case dsl.StmtQuery:
			if err := flushLearn(sess, &program); err != nil {
				return failed, err
			}
			qr, err := sess.Query(stmt.Goal, stmt.Opts)
			if err != nil {
				return failed, err
			}
			fmt.Print(session.DescribeResult("query", qr, stmt.Goal))
			if !qr.Success {
				failed++
			}
		default:
			program = append(program, stmt)
		}
	}
	if err := flushLearn(sess, &program); err != nil {
		return failed, err
	}
	return failed, nil
}

func flushLearn(sess *session.Session, program *[]dsl.Statement) error {
	if len(*program) == 0 {
		return nil
	}
	res, err := sess.Learn(*program)
	*program = (*program)[:0]
	if err != nil {
		return err
	}
	reportErrors(res.Errors)
	logger.Debug("learned program chunk",
		zap.Int("facts_added", res.FactsAdded),
		zap.Int("scope_bound", res.ScopeBound))
	return nil
}

func reportErrors(errs []*types.Error) {
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, "warning:", e)
	}
}

func countGoalFailures(errs []*types.Error) int {
	n := 0
	for _, e := range errs {
		if e.Kind == types.KindUnknownConcept {
			n++
		}
	}
	return n
}
