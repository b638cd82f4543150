package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshuapare/layoutkit/internal/imgfile"
)

var (
	dumpDir    string
	dumpVerify bool
)

func init() {
	rootCmd.AddCommand(newDumpCmd())
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <program.json>",
		Short: "Write per-arena occupancy masks to disk",
		Long: `The dump command solves a declaration program and writes one mask
file per arena: byte i is 0xFF when offset i is occupied, 0x00 when free.
Downstream tooling diffs these masks across program revisions.

Example:
  layoutctl dump program.json --out-dir ./masks
  layoutctl dump program.json --out-dir ./masks --verify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	cmd.Flags().StringVar(&dumpDir, "out-dir", ".", "Directory for mask files")
	cmd.Flags().BoolVar(&dumpVerify, "verify", false, "Re-read each mask after writing")
	return cmd
}

func runDump(args []string) error {
	sol, err := loadSolution(args[0])
	if err != nil {
		return err
	}

	for _, name := range sol.ArenaNames() {
		ar, _ := sol.Arena(name)
		end := ar.Capacity()
		if end == 0 {
			end = ar.HighWater()
		}
		mask := make([]byte, end)
		for _, r := range ar.Reservations() {
			for off := r.Range.Start; off < r.Range.End; off++ {
				mask[off] = 0xFF
			}
		}

		path := filepath.Join(dumpDir, name+".mask")
		if err := imgfile.Write(path, mask); err != nil {
			return fmt.Errorf("failed to write mask for %s: %w", name, err)
		}
		printVerbose("Wrote %s (%d bytes)\n", path, len(mask))

		if dumpVerify {
			got, cleanup, err := imgfile.Map(path)
			if err != nil {
				return fmt.Errorf("failed to re-read %s: %w", path, err)
			}
			same := bytes.Equal(got, mask)
			if err := cleanup(); err != nil {
				return err
			}
			if !same {
				return fmt.Errorf("mask verification failed for %s", path)
			}
		}
	}
	printInfo("Dumped %d arena mask(s)\n", len(sol.ArenaNames()))
	return nil
}
