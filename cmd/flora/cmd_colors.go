package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flora-advisor/internal/palette"
	"flora-advisor/internal/ui"
)

func colorsCmd() *cobra.Command {
	var (
		scheme  string
		asJSON  bool
		allOpts bool
	)

	cmd := &cobra.Command{
		Use:   "colors <house-color>",
		Short: "Show the flower colors derived from a house color",
		Example: `  flora colors "#ff0000" --scheme complementary
  flora colors 0a0a0a --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := palette.ParseHex(args[0])
			if err != nil {
				return err
			}

			schemes := palette.Schemes
			if !allOpts {
				sc, err := palette.ParseScheme(scheme)
				if err != nil {
					return err
				}
				schemes = []palette.Scheme{sc}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					Base   string   `json:"base"`
					Scheme string   `json:"scheme"`
					Colors []string `json:"colors"`
				}
				rows := make([]row, 0, len(schemes))
				for _, sc := range schemes {
					rows = append(rows, row{Base: base.Hex(), Scheme: sc.Label(), Colors: palette.Derive(base, sc).Hex()})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if len(rows) == 1 {
					return enc.Encode(rows[0])
				}
				return enc.Encode(rows)
			}

			pairs := []ui.KV{{Key: "House", Value: ui.Swatch(base)}}
			for _, sc := range schemes {
				colors := palette.Derive(base, sc)
				cells := make([]string, len(colors))
				for i, c := range colors {
					cells[i] = ui.Swatch(c)
				}
				pairs = append(pairs, ui.KV{Key: sc.Label(), Value: strings.Join(cells, "  ")})
			}
			_, err = fmt.Fprint(out, ui.RenderSummary(pairs))
			return err
		},
	}

	cmd.Flags().StringVarP(&scheme, "scheme", "s", "Similar", "Color scheme: Similar, Complementary or Analogous")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVarP(&allOpts, "all", "a", false, "Show every scheme")
	return cmd
}
