package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/click2vector/internal/server"
	"github.com/sells-group/click2vector/internal/session"
	"github.com/sells-group/click2vector/internal/sheets"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the map point-collection web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		registry := session.NewRegistry(
			time.Duration(cfg.Session.TTLMinutes)*time.Minute,
			cfg.Session.MaxSessions,
			cfg.Session.MaxPoints,
		)
		registry.StartJanitor(time.Minute)
		defer registry.Close()

		fetcher := sheets.NewFetcher(
			sheets.WithRateLimit(cfg.Sheets.RateLimitRPS),
			sheets.WithMaxBodyBytes(cfg.Sheets.MaxBodyBytes),
			sheets.WithTimeout(time.Duration(cfg.Sheets.TimeoutSecs)*time.Second),
		)

		return server.New(cfg, registry, fetcher).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
