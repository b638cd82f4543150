package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <program.json>",
		Short: "Run the solver and report diagnostics only",
		Long: `The check command solves a declaration program and prints its
diagnostics without the layout table. The exit status is non-zero when any
fatal diagnostic was recorded, so it composes with build scripts.

Example:
  layoutctl check program.json
  layoutctl check program.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args)
		},
	}
	return cmd
}

func runCheck(args []string) error {
	sol, err := loadSolution(args[0])
	if err != nil {
		return err
	}

	report := sol.Report()
	if jsonOut {
		return printJSON(report)
	}
	for _, d := range report.Diagnostics {
		printInfo("%s\n", d)
	}
	if report.HasFatal() {
		return fmt.Errorf("%d diagnostic(s), fatal present", len(report.Diagnostics))
	}
	printVerbose("%d diagnostic(s), none fatal\n", len(report.Diagnostics))
	return nil
}
