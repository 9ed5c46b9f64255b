package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNoticeCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notice",
		Aliases: []string{"aviso"},
		Short:   "Dispatch customer notices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "send <notice-id>",
		Short: "Email a notice to its customer and mark it sent",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(open, func(cmd *cobra.Command, args []string, b *Backend) error {
			n, err := b.Notices.Send(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("send notice: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q sent at %s\n", okStyle.Render("✓"), n.Title, n.SentAt.Format("2006-01-02 15:04"))
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "mark-sent <notice-id>",
		Short: "Record a notice as delivered without sending mail",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(open, func(cmd *cobra.Command, args []string, b *Backend) error {
			n, err := b.Notices.MarkSent(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("mark notice sent: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q marked sent at %s\n", okStyle.Render("✓"), n.Title, n.SentAt.Format("2006-01-02 15:04"))
			return nil
		}),
	})
	return cmd
}
