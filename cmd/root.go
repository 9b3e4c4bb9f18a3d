// Package cmd implements the spendline CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/config"
	"github.com/spendline/spendline/internal/logging"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/workspace"
)

var (
	flagAPIURL    string
	flagEphemeral bool
	flagQuiet     bool
	flagLogLevel  string
)

// cfg is the effective configuration, resolved before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:               "spendline",
	Short:             "Personal expense tracker client",
	Long:              "Track expenses, monthly reports and notifications against a spendline server.",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Server base URL (overrides config and "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "Keep the session in memory only")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadSettings resolves .env, the config file and flags, then sets up logging.
func loadSettings(_ *cobra.Command, _ []string) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	c, err := config.Load()
	if err != nil {
		return err
	}
	if flagAPIURL != "" {
		c.API.BaseURL = flagAPIURL
	}
	if flagLogLevel != "" {
		c.Log.Level = flagLogLevel
	}
	cfg = c
	return logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// openWorkspace opens the workspace and restores any persisted session.
// The caller must Close it.
func openWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	ws, err := workspace.Open(cfg, workspace.Options{Ephemeral: flagEphemeral})
	if err != nil {
		return nil, err
	}
	ws.Start(ctx)
	return ws, nil
}

// signedIn is openWorkspace for commands that need a user.
func signedIn(ctx context.Context) (*workspace.Workspace, model.User, error) {
	ws, err := openWorkspace(ctx)
	if err != nil {
		return nil, model.User{}, err
	}
	u, ok := ws.Session.User()
	if !ok {
		_ = ws.Close()
		return nil, model.User{}, workspace.ErrSignedOut
	}
	return ws, u, nil
}

// progress prints a status line to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}
