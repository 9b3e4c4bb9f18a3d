package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/config"
	"github.com/spendline/spendline/internal/gateway"
	"github.com/spendline/spendline/internal/store"
)

var flagConfigForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&flagConfigForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL: %s\n", cfg.API.BaseURL)
	fmt.Printf("    Timeout:  %s\n", cfg.Timeout())
	exportPath := cfg.API.ExportPath
	if exportPath == "" {
		exportPath = gateway.DefaultExportPath
	}
	fmt.Printf("    Export:   %s\n", exportPath)
	fmt.Println()

	fmt.Println("  [Session]")
	statePath := cfg.Session.StatePath
	if statePath == "" {
		statePath = store.DefaultPath()
	}
	if flagEphemeral {
		fmt.Println("    State: in memory (--ephemeral)")
	} else {
		fmt.Printf("    State: %s\n", statePath)
	}
	fmt.Println()

	fmt.Println("  [Profile]")
	if cfg.Profile.MaxMonthlyBudget > 0 {
		fmt.Printf("    Budget ceiling: $%.0f\n", cfg.Profile.MaxMonthlyBudget)
	} else {
		fmt.Println("    Budget ceiling: none")
	}
	fmt.Println()

	fmt.Println("  [List]")
	fmt.Printf("    Sort: %s %s\n", cfg.List.SortBy, cfg.List.SortOrder)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	if !config.Exists() {
		fmt.Println("  Run `spendline config init` to write a config file.")
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if config.Exists() && !flagConfigForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", config.Path())
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("  Wrote %s\n", config.Path())
	return nil
}
