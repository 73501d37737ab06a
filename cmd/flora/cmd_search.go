package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"flora-advisor/internal/advisor"
	"flora-advisor/internal/catalog"
	"flora-advisor/internal/export"
	"flora-advisor/internal/palette"
	"flora-advisor/internal/ui"
)

func searchCmd(g *globalFlags) *cobra.Command {
	var (
		req    advisor.Request
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find plants for a house color",
		Example: `  flora search --color "#ff0000" --scheme analogous --sun "Full Sun"
  flora search --color 336699 --format xlsx --out plants.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			switch format {
			case "table", "csv", "xlsx", "json":
			default:
				return fmt.Errorf("unknown format %q (table, csv, xlsx, json)", format)
			}
			if format == "xlsx" && out == "" {
				return fmt.Errorf("--format xlsx needs --out")
			}

			cfg, err := g.loadConfig(true)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, cfg.Timeout())
			defer cancelTimeout()

			res, err := newAdvisor(cfg).Recommend(ctx, req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if err := writeResult(w, format, res); err != nil {
				return err
			}
			if out != "" {
				ui.LogStatus("success", fmt.Sprintf("Wrote %d plants to %s", len(res.Plants), out))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.HouseColor, "color", advisor.DefaultHouseColor, "House color as hex (#rrggbb or #rgb)")
	f.StringVarP(&req.Scheme, "scheme", "s", "Similar", "Color scheme: Similar, Complementary or Analogous")
	f.IntVarP(&req.Count, "count", "n", 0, "Plants per flower color (default from config)")
	f.StringVar(&req.SunLevel, "sun", "", "Sun level: "+strings.Join(advisor.SunLevels, ", "))
	f.StringVar(&req.WaterFrequency, "water", "", "Watering: "+strings.Join(advisor.WaterFrequencies, ", "))
	f.StringVar(&req.PlantCycle, "cycle", "", "Plant cycle: "+strings.Join(advisor.PlantCycles, ", "))
	f.StringVar(&req.GrowthRate, "growth", "", "Growth rate: "+strings.Join(advisor.GrowthRates, ", "))
	f.StringVarP(&format, "format", "f", "table", "Output format: table, csv, xlsx, json")
	f.StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}

func writeResult(w io.Writer, format string, res *advisor.Result) error {
	switch format {
	case "csv":
		return export.WriteCSV(w, res.Plants)
	case "xlsx":
		return export.WriteXLSX(w, res.Plants)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		_, err := fmt.Fprint(w, renderResult(res))
		return err
	}
}

// renderResult formats a result for the terminal: a summary block followed
// by a table of plants.
func renderResult(res *advisor.Result) string {
	var b strings.Builder

	swatches := make([]string, 0, len(res.Colors))
	for _, h := range res.Colors {
		swatches = append(swatches, swatch(h))
	}

	b.WriteString("\n")
	b.WriteString(ui.RenderSummary([]ui.KV{
		{Key: "House color", Value: swatch(res.BaseColor)},
		{Key: "Scheme", Value: res.Scheme},
		{Key: "Flower colors", Value: strings.Join(swatches, "  ")},
		{Key: "Plants", Value: strconv.Itoa(res.Stats.Count)},
		{Key: "Avg name length", Value: strconv.FormatFloat(res.Stats.AverageNameLength, 'f', 1, 64)},
	}))
	b.WriteString("\n")

	if len(res.Plants) == 0 {
		b.WriteString("  " + ui.Warn("%s", advisor.NoPlantsMessage) + "\n")
		return b.String()
	}

	rows := make([]map[string]string, len(res.Plants))
	for i, p := range res.Plants {
		image := ui.Muted("none")
		if p.HasImage() {
			image = ui.Success("yes")
		}
		rows[i] = map[string]string{
			"color":      swatch(p.QueryColor),
			"common":     p.CommonName,
			"scientific": p.ScientificName,
			"cycle":      p.Cycle,
			"watering":   p.Watering,
			"sunlight":   p.Sunlight,
			"image":      image,
		}
	}
	b.WriteString(ui.RenderTable(ui.RenderTableOptions{
		Columns: []ui.TableColumn{
			{Key: "color", Header: ""},
			{Key: "common", Header: "Common Name", MaxWidth: 28},
			{Key: "scientific", Header: "Scientific Name", MaxWidth: 28},
			{Key: "cycle", Header: "Cycle"},
			{Key: "watering", Header: "Watering"},
			{Key: "sunlight", Header: "Sunlight", MaxWidth: 24},
			{Key: "image", Header: "Image", Align: ui.AlignCenter},
		},
		Rows:    rows,
		Border:  ui.BorderUnicode,
		Padding: 1,
	}))
	return b.String()
}

func swatch(hex string) string {
	c, err := palette.ParseHex(hex)
	if err != nil {
		return catalog.NotAvailable
	}
	return ui.Swatch(c)
}
