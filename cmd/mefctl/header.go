package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astrokit/mefkit/mef"
)

func init() {
	rootCmd.AddCommand(newHeaderCmd())
}

func newHeaderCmd() *cobra.Command {
	var extIndex int

	cmd := &cobra.Command{
		Use:   "header <file>",
		Short: "Dump a header's keyword cards",
		Long: `The header command prints the primary header of a MEF file, or the
header of a single extension when --ext is given.

Example:
  mefctl header n20170609.fits
  mefctl header n20170609.fits --ext 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeader(args[0], extIndex)
		},
	}
	cmd.Flags().IntVar(&extIndex, "ext", -1, "Extension index (default: primary header)")
	return cmd
}

func runHeader(path string, extIndex int) error {
	p, err := mef.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	var store *mef.KeywordStore
	if extIndex < 0 {
		store = p.PHUKeywords()
	} else {
		s, err := p.Ext(extIndex)
		if err != nil {
			return fmt.Errorf("failed to select extension %d: %w", extIndex, err)
		}
		store = s.ExtKeywords()
	}

	if jsonOut {
		out := map[string]any{}
		for _, key := range store.Keywords()[0] {
			if v, err := store.Value(key); err == nil {
				out[key] = v
			}
		}
		return printJSON(out)
	}
	store.Show(os.Stdout)
	return nil
}
