package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dbehnke/fsdclient/internal/config"
	"github.com/dbehnke/fsdclient/internal/database"
	"github.com/dbehnke/fsdclient/internal/logging"
	"github.com/dbehnke/fsdclient/internal/serverlist"
)

const VERSION = "1.0.0"

var (
	configFile string
	debug      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fsdclient",
		Short:        "FSD network client for ATIS stations",
		Version:      VERSION,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", getDefaultConfig(), "configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")

	root.AddCommand(newConnectCmd(), newServersCmd(), newRosterCmd())
	return root
}

// loadConfig reads and validates the configuration file
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig(configFile)
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	opts := logging.OptionsFromConfig("fsdclient", cfg)
	if debug {
		opts.Level = "debug"
	}
	log, closer, err := logging.New(opts)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	return log, func() { _ = closer.Close() }, nil
}

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect the configured ATIS station to the network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := NewClient(cfg, log)
			if err != nil {
				return err
			}
			log.Info().Str("version", VERSION).Str("config", configFile).Msg("fsdclient starting")
			err = client.Run(ctx)
			log.Info().Msg("fsdclient stopped")
			return err
		},
	}
}

func newServersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List the network's FSD servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			fetcher := serverlist.NewFetcherWithConfig(log, serverlist.FetcherConfig{
				BestServerURL: cfg.GetBestServerURL(),
				StatusURL:     cfg.GetStatusURL(),
			})
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			servers, err := fetcher.Servers(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range servers {
				fmt.Fprintf(out, "%-12s %-28s %s\n", s.Ident, s.Address, s.Location)
			}
			return nil
		},
	}
}

func newRosterCmd() *cobra.Command {
	var (
		limit int
		since time.Duration
		purge bool
	)
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Show stations recorded while connected",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			db, err := database.NewDB(database.Config{Path: cfg.GetDatabasePath(), Debug: cfg.GetDatabaseDebug()}, &log)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := database.NewStationRepository(db.GetDB())

			cutoff := time.Now().Add(-since)
			out := cmd.OutOrStdout()
			if purge {
				n, err := repo.PurgeOlderThan(cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "purged %s stations\n", humanize.Comma(n))
				return nil
			}

			stations, err := repo.GetRecentlySeen(cutoff, limit)
			if err != nil {
				return err
			}
			for _, s := range stations {
				fmt.Fprintf(out, "%-40s %s\n", s.String(), humanize.Time(s.LastSeen))
			}
			stats, err := repo.GetStatistics()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s stations (%s ATC, %s pilots)\n",
				humanize.Comma(stats.Total), humanize.Comma(stats.ATC), humanize.Comma(stats.Pilots))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum stations to list")
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "only stations seen within this window")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete stations not seen within the window instead of listing")
	return cmd
}

// getDefaultConfig returns the default configuration file path
func getDefaultConfig() string {
	if _, err := os.Stat("fsdclient.toml"); err == nil {
		return "fsdclient.toml"
	}

	systemConfig := "/etc/fsdclient.toml"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig
	}

	return "fsdclient.toml"
}
