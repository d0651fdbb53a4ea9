package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReportCommand(root *rootOptions) *cobra.Command {
	var (
		userID uint
		send   bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the task digest or one user's summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cfg, root.logLevel())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if userID != 0 {
				summary, err := a.summaries.UserSummary(ctx, userID, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary.Text)
				return nil
			}

			if send {
				notifier, err := buildNotifier(cfg)
				if err != nil {
					return err
				}
				return sendDigest(ctx, a.summaries, notifier)
			}
			text, err := a.summaries.Digest(ctx, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id to summarize")
	cmd.Flags().BoolVar(&send, "send", false, "deliver the digest through the configured notifiers")
	return cmd
}
