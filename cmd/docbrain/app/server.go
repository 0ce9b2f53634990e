// Package app provides the docbrain server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kart-io/docbrain/cmd/docbrain/app/options"
	"github.com/kart-io/docbrain/internal/docbrain"
)

const commandDesc = `DocBrain document Q&A service

Users register, upload PDF or plain text documents, and ask
natural-language questions answered from their own documents.

This server provides:
  - Document chunking and TF-IDF vectorization
  - Cosine-similarity retrieval across a user's documents
  - Generative answering grounded on retrieved chunks
  - Session tokens and per-user API keys`

// NewCommand creates the root docbrain command.
func NewCommand() *cobra.Command {
	opts := options.NewServerOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:          docbrain.Name,
		Short:        "DocBrain document Q&A service",
		Long:         commandDesc,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			version.PrintAndExitIfRequested()
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return loadConfig(configFile, opts)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	opts.AddFlags(cmd.Flags())
	version.AddFlags(cmd.PersistentFlags())

	return cmd
}

// loadConfig merges the config file and environment over defaults.
// Explicit flags win because they are bound into viper.
func loadConfig(configFile string, opts *options.ServerOptions) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(docbrain.Name)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/" + docbrain.Name)
	}

	viper.SetEnvPrefix(strings.ToUpper(docbrain.Name))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			logger.Infow("config file changed, restart to apply", "file", e.Name)
		})
	}

	if err := viper.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg, err := opts.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := setupSignalContext()

	server, err := cfg.NewServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return server.Run(ctx)
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
