package main

import (
	"context"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"flora-advisor/internal/auth"
	"flora-advisor/internal/config"
	"flora-advisor/internal/ui"
	"flora-advisor/internal/web"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web app",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(true)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides config and FLORA_LISTEN)")
	return cmd
}

func serve(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ui.LogSection("Web app")
	opts := web.Options{
		Config:  cfg,
		Advisor: newAdvisor(cfg),
	}
	if cfg.Env.AuthEnabled {
		users, err := auth.NewUserStore(cfg.Env.UsersFile)
		if err != nil {
			return err
		}
		opts.Users = users
		ui.LogStatus("info", "Basic auth: "+strconv.Itoa(users.UserCount())+" users from "+cfg.Env.UsersFile)
	}
	if cfg.Env.RateLimitRPM > 0 {
		opts.Limiter = auth.NewIPRateLimiter(auth.PerMinute(cfg.Env.RateLimitRPM), cfg.Env.RateLimitRPM)
		ui.LogStatus("info", "Rate limit: "+strconv.Itoa(cfg.Env.RateLimitRPM)+" requests/min per IP")
	}

	metrics := web.NewMetricsServer(cfg.MetricsListen)
	metrics.Start()
	metricsAddr := cfg.MetricsListen
	if strings.HasPrefix(metricsAddr, ":") {
		metricsAddr = "localhost" + metricsAddr
	}
	ui.LogStatus("info", "Metrics: http://"+metricsAddr+"/metrics")

	go func() {
		<-ctx.Done()
		ui.LogGracefulShutdown()
		if err := metrics.Shutdown(context.Background()); err != nil {
			ui.LogStatus("warn", "Metrics shutdown: "+err.Error())
		}
	}()

	if err := web.NewServer(opts).Start(ctx); err != nil {
		return err
	}
	ui.PrintFooter("Goodbye")
	return nil
}
