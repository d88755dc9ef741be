package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/star/horizon/internal/config"
)

// app is shared by every subcommand once the root pre-run has loaded settings.
type app struct {
	v          *viper.Viper
	configFile string
	settings   *config.Settings
	level      slog.Level
	logger     *slog.Logger
}

func (a *app) newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: a.level}))
}

func main() {
	if err := rootCommand(&app{v: viper.New()}).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "horizon",
		Short:        "Schwarzschild horizon calculator",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().Float64("reference-speed", 0, "Override the reference speed in km/s (default: speed of light)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := a.v.BindPFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
			return fmt.Errorf("error binding flags: %w", err)
		}
		if f := cmd.Flags().Lookup("reference-speed"); f != nil && f.Changed {
			if err := a.v.BindPFlag("calculator.reference_speed", f); err != nil {
				return fmt.Errorf("error binding flags: %w", err)
			}
		}

		settings, err := config.Load(a.v, a.configFile)
		if err != nil {
			return err
		}
		level, err := config.ParseLevel(settings.Log.Level)
		if err != nil {
			return err
		}

		a.settings = settings
		a.level = level
		a.logger = a.newLogger(os.Stderr)
		return nil
	}

	root.AddCommand(
		serveCommand(a),
		evalCommand(a),
		sweepCommand(a),
		defaultsCommand(a),
	)
	return root
}
