package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/logging"
	"github.com/spendline/spendline/internal/tui"
	"github.com/spendline/spendline/internal/workspace"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// Log lines on stderr would tear the alt screen; errors show in the status bar.
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, io.Discard); err != nil {
		return err
	}

	// The app restores the session itself so the loading screen shows meanwhile.
	ws, err := workspace.Open(cfg, workspace.Options{Ephemeral: flagEphemeral})
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	p := tea.NewProgram(tui.NewApp(ws), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
