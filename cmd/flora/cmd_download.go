package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flora-advisor/internal/export"
	"flora-advisor/internal/ui"
)

func downloadCmd(g *globalFlags) *cobra.Command {
	var (
		out      string
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Dump the whole plant catalog to CSV",
		Long: `Walks every page of the plant catalog species list and writes one CSV row
per plant. Free catalog keys have a small daily quota, so --max-pages is
useful for a partial dump.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(true)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-pages") {
				maxPages = cfg.Catalog.MaxPages
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			ui.LogSection("Catalog dump")
			progress := ui.NewProgress("Downloading catalog", maxPages)
			rows, err := export.DumpCatalog(ctx, newCatalog(cfg), f, maxPages, progress)
			if err != nil {
				ui.LogStatus("warn", fmt.Sprintf("Stopped after %d rows", rows))
				return err
			}
			ui.LogStatus("success", fmt.Sprintf("Saved %d plants to %s", rows, out))
			ui.PrintFooter("Search the dump offline or load it into a spreadsheet.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "perenual_plants.csv", "CSV output file")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Stop after this many pages (0 = all, default from config)")
	return cmd
}
