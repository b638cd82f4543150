package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joshuapare/layoutkit/layout/arena"
)

var vizWidth int

func init() {
	rootCmd.AddCommand(newVizCmd())
}

func newVizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz <program.json>",
		Short: "Render an occupancy map for every arena",
		Long: `The viz command solves a declaration program and draws each arena as
a fixed-width bar: one cell per byte bucket, colored per owning
declaration, with a legend underneath.

Example:
  layoutctl viz program.json
  layoutctl viz program.json --width 120`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViz(args)
		},
	}
	cmd.Flags().IntVar(&vizWidth, "width", 64, "Bar width in cells")
	return cmd
}

// ownerPalette cycles through distinct background colors per declaration.
var ownerPalette = []string{"63", "168", "35", "214", "39", "133", "178", "79"}

func runViz(args []string) error {
	sol, err := loadSolution(args[0])
	if err != nil {
		return err
	}

	for _, name := range sol.ArenaNames() {
		ar, _ := sol.Arena(name)
		printInfo("%s\n", renderArena(ar, vizWidth))
	}
	return nil
}

// renderArena draws one arena as a bar of width cells plus a legend.
func renderArena(ar *arena.Arena, width int) string {
	end := ar.Capacity()
	if end == 0 {
		end = ar.HighWater()
	}
	title := lipgloss.NewStyle().Bold(true).Render(ar.Name())
	if end == 0 {
		return title + " (empty)\n"
	}
	if width < 8 {
		width = 8
	}

	res := ar.Reservations()
	colors := make(map[string]string, len(res))
	var owners []string
	for _, r := range res {
		if _, ok := colors[r.Owner]; !ok {
			colors[r.Owner] = ownerPalette[len(owners)%len(ownerPalette)]
			owners = append(owners, r.Owner)
		}
	}

	freeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	var bar strings.Builder
	bytesPerCell := (end + uint64(width) - 1) / uint64(width)
	for cell := 0; cell < width; cell++ {
		off := uint64(cell) * bytesPerCell
		if off >= end {
			break
		}
		owner, occupied := ar.Occupant(off)
		if !occupied || noColor {
			if occupied {
				bar.WriteByte('#')
			} else {
				bar.WriteString(freeStyle.Render("."))
			}
			continue
		}
		style := lipgloss.NewStyle().Background(lipgloss.Color(colors[owner]))
		bar.WriteString(style.Render(" "))
	}

	var legend strings.Builder
	for _, owner := range owners {
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(colors[owner])).Render("  ")
		if noColor {
			swatch = "##"
		}
		legend.WriteString("  " + swatch + " " + owner + "\n")
	}

	return title + "\n" + bar.String() + "\n" + legend.String()
}
