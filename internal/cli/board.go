package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskboard/internal/board"
	"taskboard/internal/client"
	"taskboard/internal/tui"
)

func newBoardCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the terminal task board",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			b := board.New(client.New(cfg.APIURL))
			p := tea.NewProgram(tui.NewModel(cmd.Context(), b), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&root.apiURL, "api", "", "API base URL (overrides API_URL)")
	return cmd
}
