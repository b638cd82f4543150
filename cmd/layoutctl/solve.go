package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/layout/solve"
	"github.com/joshuapare/layoutkit/pkg/types"
)

var sanitize bool

func init() {
	rootCmd.AddCommand(newSolveCmd())
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve <program.json>",
		Short: "Resolve a declaration program into a layout table",
		Long: `The solve command reads a JSON declaration program, runs both solver
passes, and prints the resulting layout table plus any diagnostics.

Example:
  layoutctl solve program.json
  layoutctl solve program.json --json
  layoutctl solve program.json --sanitize`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(args)
		},
	}
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "Collect sanitizer guard metadata")
	return cmd
}

func loadSolution(path string) (*solve.Solution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	arenas, prog, err := graph.ParseFile(data)
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	}
	solver := solve.New(solve.Options{Logger: logger, Sanitize: sanitize})
	sol, err := solver.Solve(arenas, prog)
	if sol == nil {
		return nil, err
	}
	// Fatal diagnostics are part of the report; callers decide whether
	// a partial solution is still worth printing.
	return sol, nil
}

func runSolve(args []string) error {
	printVerbose("Solving program: %s\n", args[0])

	sol, err := loadSolution(args[0])
	if err != nil {
		return err
	}

	table := sol.Table()
	if jsonOut {
		out := struct {
			Table       map[string]types.LayoutEntry `json:"table"`
			Diagnostics []types.Diagnostic           `json:"diagnostics,omitempty"`
		}{Table: table, Diagnostics: sol.Report().Diagnostics}
		return printJSON(out)
	}

	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := table[ids[i]], table[ids[j]]
		if a.Arena != b.Arena {
			return a.Arena < b.Arena
		}
		if a.Base != b.Base {
			return a.Base < b.Base
		}
		return ids[i] < ids[j]
	})

	printInfo("Layout Table (%d entries):\n", len(table))
	for _, id := range ids {
		e := table[id]
		printInfo("  %-16s %-8s base=%-8d stride=%-6d elem=%-6d count=%-6d %s\n",
			id, e.Arena, e.Base, e.Stride, e.ElemSize, e.Count, e.Direction)
	}

	if diags := sol.Report().Diagnostics; len(diags) > 0 {
		printInfo("\nDiagnostics:\n")
		for _, d := range diags {
			printInfo("  %s\n", d)
		}
	}
	if sol.Report().HasFatal() {
		return fmt.Errorf("solve failed with fatal diagnostics")
	}
	return nil
}
