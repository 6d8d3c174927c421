package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/config"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/container"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/logger"
)

const app = "matchctl"

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "matchctl runs matching engine operations against the configured stores",
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "env file with service configuration")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	for _, name := range []string{"env-file", "debug", "json"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			log.Fatalf("binding %s flag: %v", name, err)
		}
	}
}

func newLogger() (*zap.Logger, error) {
	format, level := "console", "warn"
	if viper.GetBool("json") {
		format = "json"
	}
	if viper.GetBool("debug") {
		level = "debug"
	}
	return logger.New(format, level)
}

// withContainer builds the service graph from the env file, runs fn and
// releases every connection afterwards.
func withContainer(ctx context.Context, fn func(c *container.Container) error) error {
	cfg, err := config.LoadFrom(viper.GetString("env-file"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	lg, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	c, err := container.NewContainer(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			lg.Error("closing container", zap.Error(err))
		}
	}()

	return fn(c)
}
