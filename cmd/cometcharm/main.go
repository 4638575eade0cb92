package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danhigham/cometcharm/internal/calls"
	"github.com/danhigham/cometcharm/internal/chat"
	"github.com/danhigham/cometcharm/internal/config"
	"github.com/danhigham/cometcharm/internal/credentials"
	"github.com/danhigham/cometcharm/internal/device"
	"github.com/danhigham/cometcharm/internal/domain"
	"github.com/danhigham/cometcharm/internal/session"
	"github.com/danhigham/cometcharm/internal/state"
	"github.com/danhigham/cometcharm/internal/storage"
	"github.com/danhigham/cometcharm/internal/ui"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "cometcharm",
		Short:         "Terminal client for CometChat",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "Path to the config file")

	rootCmd.AddCommand(newConfigCommand(), newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// profileDir holds the database and log next to the config file, so an
// alternate --config is a separate profile.
func profileDir() string {
	return filepath.Dir(configPath)
}

func dbPath() string {
	return filepath.Join(profileDir(), "cometcharm.db")
}

func logPath() string {
	return filepath.Join(profileDir(), "cometcharm.log")
}

// newLogger writes to a file so the TUI owns the terminal.
func newLogger(level, path string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = lvl
	logCfg.OutputPaths = []string{path}
	logCfg.ErrorOutputPaths = []string{path}
	return logCfg.Build()
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config from %s: %w", configPath, err)
	}

	logger, err := newLogger(cfg.LogLevel, logPath())
	if err != nil {
		return err
	}
	defer logger.Sync()

	kv, err := storage.Open(dbPath())
	if err != nil {
		return err
	}
	defer kv.Close()

	client := chat.NewRESTClient(chat.Options{
		BaseURL:     cfg.API.BaseURL,
		RealtimeURL: cfg.API.RealtimeURL,
		Sessions:    kv,
		Logger:      logger,
	})
	defer client.Close()

	creds := credentials.NewStore(kv)
	store := state.New(nil)

	accounts := make([]domain.User, 0, len(cfg.SampleUsers))
	for _, u := range cfg.SampleUsers {
		accounts = append(accounts, domain.User{UID: u.UID, Name: u.Name})
	}

	device.RequestPermissions(logger)

	admission := calls.NewAdmission(client,
		calls.WithDelay(cfg.BusyRejectDelay),
		calls.WithLogger(logger),
	)
	defer admission.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	app := ui.NewApp(ctx, ui.Deps{
		Bootstrap:   session.NewBootstrap(creds, cfg.Defaults, client, logger, cfg.InitTimeout),
		Credentials: creds,
		Client:      client,
		Admission:   admission,
		Store:       store,
		Accounts:    accounts,
		Logger:      logger,
	})

	logger.Info("Starting", zap.String("version", version), zap.String("config", configPath))
	if err := app.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// openCredentials opens the durable store for the config subcommands.
func openCredentials() (*credentials.Store, func() error, error) {
	kv, err := storage.Open(dbPath())
	if err != nil {
		return nil, nil, err
	}
	return credentials.NewStore(kv), kv.Close, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
