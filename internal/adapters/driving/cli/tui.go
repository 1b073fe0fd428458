package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

var tuiTopK int

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for docqa.

Ask questions, read answers with their sources and manage the indexed
documents with keyboard navigation.

Controls:
  Enter    - Ask
  ↑/k, ↓/j - Navigate sources
  n        - New question
  d        - Delete document
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve per question")
	rootCmd.AddCommand(tuiCmd)
}

// newTUIApp builds the TUI over the configured services.
func newTUIApp(cmd *cobra.Command) (*tui.App, error) {
	if err := ensureServices(cmd); err != nil {
		return nil, err
	}

	app, err := tui.NewApp(tui.NewPorts(qaService, retrievalService))
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app.WithContext(ctx).WithTopK(tuiTopK).WithStatus(statusLine), nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newTUIApp(cmd)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
