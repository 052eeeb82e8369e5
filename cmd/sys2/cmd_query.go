package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sys2/internal/session"
	"sys2/internal/types"
)

var (
	queryMax   int
	queryFrom  []string
	queryProve bool
)

var queryCmd = &cobra.Command{
	Use:   "query <subject> <relation> <object>",
	Short: "Learn the given sources and answer a single goal",
	Long: `Query learns the configured packs plus any --from sources, then answers
one goal. Holes are written ?name. With --prove the goal must be ground and
the full proof is printed.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := session.New(cfg.ToOptions())
		if err != nil {
			return err
		}
		defer sess.Close()

		for _, dir := range cfg.Packs {
			if _, err := sess.LoadPack(dir, false); err != nil {
				return err
			}
		}
		for _, src := range queryFrom {
			if _, err := runTarget(sess, src); err != nil {
				return err
			}
		}

		goal := types.Atom{
			Subject:  parseCLITerm(args[0]),
			Relation: parseCLITerm(args[1]),
			Object:   parseCLITerm(args[2]),
		}

		if queryProve {
			pr, err := sess.Prove(goal, types.QueryOpts{})
			if err != nil {
				return err
			}
			fmt.Print(session.DescribeResult("prove", pr, goal))
			if !pr.Valid {
				os.Exit(exitGoalsFailed)
			}
			return nil
		}

		qr, err := sess.Query(goal, types.QueryOpts{MaxResults: queryMax})
		if err != nil {
			return err
		}
		fmt.Print(session.DescribeResult("query", qr, goal))
		if !qr.Success {
			os.Exit(exitGoalsFailed)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryMax, "max", 0, "maximum number of results")
	queryCmd.Flags().StringSliceVar(&queryFrom, "from", nil, "source files or pack directories to learn first")
	queryCmd.Flags().BoolVar(&queryProve, "prove", false, "prove the ground goal and print its proof")
}

func parseCLITerm(tok string) types.Term {
	if strings.HasPrefix(tok, "?") {
		return types.Hole(strings.TrimPrefix(tok, "?"))
	}
	return types.Ident(tok)
}
