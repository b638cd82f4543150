package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/layoutkit/layout/view"
)

var (
	viewElemSize uint64
	viewAlias    bool
)

func init() {
	rootCmd.AddCommand(newViewCmd())
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <program.json> <id>",
		Short: "Reinterpret a placement's bytes under a new element size",
		Long: `The view command solves a declaration program, builds the occupancy
image of the arena owning <id>, and prints the placement's bytes
reinterpreted as elements of --elem bytes. Spread gaps are excluded: the
scoped view copies the elements out gap-free.

With --alias the view shares the raw footprint instead of copying; this
includes spread gaps and always emits the unsafe-alias warning.

Example:
  layoutctl view program.json packets --elem 2
  layoutctl view program.json packets --alias`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(args)
		},
	}
	cmd.Flags().Uint64Var(&viewElemSize, "elem", 0, "New element size in bytes (default: source element size)")
	cmd.Flags().BoolVar(&viewAlias, "alias", false, "Share the raw footprint instead of copying")
	return cmd
}

func runView(args []string) error {
	sol, err := loadSolution(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	entry, err := sol.Entry(id)
	if err != nil {
		return err
	}
	ar, ok := sol.Arena(entry.Arena)
	if !ok {
		return fmt.Errorf("no arena %q", entry.Arena)
	}

	// The solver tracks occupancy, not contents; render the occupancy
	// mask as the image so the view shows which bytes each element owns.
	img := make([]byte, entry.End())
	for _, r := range ar.Reservations() {
		for off := r.Range.Start; off < r.Range.End && off < uint64(len(img)); off++ {
			img[off] = 0xFF
		}
	}

	if viewAlias {
		a, warn, err := view.NewAlias(entry, img)
		if err != nil {
			return err
		}
		printInfo("Warning: %s\n", warn)
		printInfo("Alias of %s footprint %s (%d bytes):\n", id, entry.Footprint(), len(a.Bytes()))
		printHexRows(a.Bytes(), entry.Base)
		return nil
	}

	elem := viewElemSize
	if elem == 0 {
		elem = entry.ElemSize
	}
	v, err := view.NewScoped(entry, img, elem)
	if err != nil {
		return err
	}
	defer v.Close()

	printInfo("Scoped view of %s: %d element(s) of %d byte(s)\n", id, v.Count(), elem)
	for i := uint64(0); i < v.Count(); i++ {
		data, err := v.Elem(i)
		if err != nil {
			return err
		}
		printInfo("  [%d] % X\n", i, data)
	}
	if rem := entry.TotalBytes() % elem; rem != 0 {
		printVerbose("%d trailing byte(s) do not form a whole element\n", rem)
	}
	return nil
}

// printHexRows prints data as 16-byte hex rows labeled with arena offsets.
func printHexRows(data []byte, base uint64) {
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		printInfo("  %08x  % X\n", base+uint64(i), data[i:end])
	}
}
