package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sys2/internal/dsl"
)

var checkLenient bool

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Statically validate .sys2 source files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bad := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			errs := dsl.Check(string(data), !checkLenient)
			if len(errs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				continue
			}
			bad++
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, e)
			}
		}
		if bad > 0 {
			os.Exit(exitParse)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkLenient, "lenient", false, "lenient validation mode")
}
