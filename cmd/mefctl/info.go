package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/astrokit/mefkit/mef"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Report a MEF file's extension structure",
		Long: `The info command opens a multi-extension FITS file and reports its
science extensions with their pixel planes, attached payloads, and
free-floating tables.

Example:
  mefctl info n20170609.fits
  mefctl info n20170609.fits --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

func runInfo(args []string) error {
	path := args[0]

	p, err := mef.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	rep, err := p.Describe()
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}

	if jsonOut {
		return printJSON(rep)
	}

	printInfo("File: %s\n", rep.Filename)
	if stat, err := os.Stat(path); err == nil {
		printInfo("Size: %.1f KB\n", float64(stat.Size())/1024)
	}
	printInfo("\nPixel extensions:\n")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Name", "Ver", "Content", "Dims", "Type", "Tables"})
	for _, e := range rep.Extensions {
		for i, pl := range e.Planes {
			if i == 0 {
				t.AppendRow(table.Row{
					e.Index, e.Name, e.Ver, pl.Content, pl.Dims, pl.DataType,
					strings.Join(e.Tables, ", "),
				})
				continue
			}
			t.AppendRow(table.Row{"", "", "", pl.Content, pl.Dims, pl.DataType, ""})
		}
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	if len(rep.Tables) > 0 {
		printInfo("\nOther extensions:\n")
		for _, tbl := range rep.Tables {
			printInfo("  %-12s table  %d rows x %d cols\n", tbl.Name, tbl.Rows, tbl.Cols)
		}
	}
	return nil
}
