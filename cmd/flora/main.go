// Package main is the flora command: a garden planner that matches flowers
// to the color of a house.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"flora-advisor/internal/advisor"
	"flora-advisor/internal/catalog"
	"flora-advisor/internal/config"
	"flora-advisor/internal/photos"
	"flora-advisor/internal/ui"
)

// Set with -ldflags "-X main.version=...".
var (
	version   = "dev"
	buildTime = "unknown"
)

const appName = "flora"

func main() {
	// .env is optional; deployments usually set real environment variables.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		ui.LogStatus("error", err.Error())
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debug      bool
	quiet      bool
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Find flowers that suit the color of your house",
		Long: `Flora derives flower colors from a house color (similar, complementary
or analogous), queries the Perenual plant catalog for each color and shows the
matching plants in the terminal or in a small web app.

API keys are read from the environment (or a .env file):
  PERENUAL_API_KEY      plant catalog key (required for catalog commands)
  UNSPLASH_ACCESS_KEY   optional, fills in missing plant photos`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.SetOutput(cmd.ErrOrStderr())
			if g.debug {
				ui.SetDebug(true)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "flora.yaml", "Config file path (JSON or YAML)")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "Skip the banner")

	cmd.AddCommand(
		serveCmd(g),
		searchCmd(g),
		colorsCmd(),
		downloadCmd(g),
		hashPasswordCmd(),
		usersCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s, %s)\n", appName, version, buildTime, runtime.Version())
		},
	}
}

// loadConfig loads and validates configuration and applies its log level.
func (g *globalFlags) loadConfig(needsCatalog bool) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg.AllowMissingKey = !needsCatalog
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Env.DebugLogging() || strings.EqualFold(cfg.Env.LogLevel, "debug") {
		ui.SetDebug(true)
	}
	if !g.quiet {
		ui.PrintBanner(version)
		env := ui.Success("PRODUCTION")
		if cfg.Env.IsDevelopment() {
			env = ui.Warn("DEVELOPMENT")
		}
		ui.LogStatus("info", "Environment: "+env)
	}
	return cfg, nil
}

func newCatalog(cfg *config.Config) *catalog.Client {
	return catalog.NewClient(catalog.Options{
		BaseURL:   cfg.Catalog.BaseURL,
		APIKey:    cfg.Env.PerenualAPIKey,
		RateLimit: rate.Limit(cfg.Catalog.RateLimitRPS),
		Burst:     cfg.Catalog.Burst,
	})
}

func newAdvisor(cfg *config.Config) *advisor.Advisor {
	var photoSearch advisor.PhotoSearcher
	if cfg.Photos.Enabled && cfg.Env.UnsplashAccessKey != "" {
		photoSearch = photos.NewClient(photos.Options{
			BaseURL:   cfg.Photos.BaseURL,
			AccessKey: cfg.Env.UnsplashAccessKey,
		})
		ui.LogStatus("debug", "Photo search enabled")
	}

	return advisor.New(newCatalog(cfg), photoSearch, advisor.Options{
		DefaultCount:     cfg.DefaultCount,
		MaxCount:         cfg.MaxCount,
		PhotoConcurrency: cfg.Photos.Concurrency,
	})
}
