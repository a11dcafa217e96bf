package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/modelsearch/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [query]",
	Short: "Browse results interactively",
	Long: `Open the interactive browser. An optional query is searched right away.

Keys: enter search/details, tab switch focus, 1-9 toggle tags, s sort,
+/- limit, d download floor, c clear filters, q quit.`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadCLI()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := buildStack(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	m := tui.NewModel(st.session, cfg.Profile.Host, cfg.Backend.Timeout())
	if len(args) > 0 {
		m = m.WithQuery(strings.Join(args, " "))
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
