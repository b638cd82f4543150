package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/layoutkit/pkg/types"
)

func init() {
	rootCmd.AddCommand(newRunsCmd())
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <program.json>",
		Short: "List free-byte runs per arena after solving",
		Long: `The runs command solves a declaration program and lists every
arena's maximal free-byte runs in ascending offset order.

Example:
  layoutctl runs program.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(args)
		},
	}
	return cmd
}

func runRuns(args []string) error {
	sol, err := loadSolution(args[0])
	if err != nil {
		return err
	}

	type arenaRuns struct {
		Arena string        `json:"arena"`
		Runs  []types.Range `json:"runs"`
	}
	var out []arenaRuns
	for _, name := range sol.ArenaNames() {
		ar, _ := sol.Arena(name)
		out = append(out, arenaRuns{Arena: name, Runs: ar.FreeRuns(types.Range{})})
	}

	if jsonOut {
		return printJSON(out)
	}
	for _, a := range out {
		printInfo("%s:\n", a.Arena)
		if len(a.Runs) == 0 {
			printInfo("  (no free runs)\n")
			continue
		}
		for _, r := range a.Runs {
			printInfo("  %-20s %d bytes\n", r, r.Len())
		}
	}
	return nil
}
