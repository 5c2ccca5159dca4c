package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/bootstrap"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMembersCommand(opts *RootOptions) *cobra.Command {
	var (
		feedID  string
		history bool
	)
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List a feed's memberships, bypassing feed permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Short())
			defer cancel()

			return opts.withStore(ctx, func(ctx context.Context, deps bootstrap.DBDeps, _ *zap.Logger) error {
				if _, err := deps.Store.Feed(ctx, feedID); err != nil {
					return fmt.Errorf("feed %s: %w", feedID, journalerr.ErrFeedNotFound)
				}
				rows, err := deps.Store.ListMemberships(ctx, feedID, history)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), rows, func(w io.Writer) error {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "USER\tSTATUS\tJOINED\tENDED")
					for _, m := range rows {
						ended := "-"
						if m.EndedAt != nil {
							ended = m.EndedAt.UTC().Format(time.RFC3339)
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.UserID, m.Status, m.CreatedAt.UTC().Format(time.RFC3339), ended)
					}
					return tw.Flush()
				})
			})
		},
	}
	cmd.Flags().StringVar(&feedID, "feed", "", "feed id")
	cmd.Flags().BoolVar(&history, "history", false, "include expelled and departed memberships")
	_ = cmd.MarkFlagRequired("feed")
	return cmd
}
