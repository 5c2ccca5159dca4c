package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dalemusser/tripjournal/internal/app/bootstrap"
	"github.com/dalemusser/tripjournal/internal/app/sequence"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sequenceResult struct {
	FeedID    string      `json:"feed_id"`
	Date      models.Date `json:"date"`
	Current   int64       `json:"current"`
	Next      int64       `json:"next"`
	Allocated bool        `json:"allocated"`
}

func newNextSequenceCommand(opts *RootOptions) *cobra.Command {
	var (
		feedID   string
		date     string
		allocate bool
	)
	cmd := &cobra.Command{
		Use:   "next-sequence",
		Short: "Show the sequence the allocator will hand out next for a feed and date",
		Long: "Prints the last issued and the next sequence for (feed, date).\n" +
			"With --allocate the next value is consumed, leaving a gap in the bucket.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := models.ParseDate(date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Short())
			defer cancel()

			return opts.withStore(ctx, func(ctx context.Context, deps bootstrap.DBDeps, _ *zap.Logger) error {
				alloc := sequence.New(deps.Store, nil)
				res := sequenceResult{FeedID: feedID, Date: d}

				if allocate {
					v, err := alloc.Next(ctx, feedID, d)
					if err != nil {
						return err
					}
					res.Current, res.Next, res.Allocated = v, v+1, true
				} else {
					v, err := alloc.Current(ctx, feedID, d)
					if err != nil {
						return err
					}
					res.Current, res.Next = v, v+1
				}

				return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) error {
					if res.Allocated {
						_, err := fmt.Fprintf(w, "allocated %d for %s/%s\n", res.Current, feedID, d)
						return err
					}
					_, err := fmt.Fprintf(w, "%s/%s: current=%d next=%d\n", feedID, d, res.Current, res.Next)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&feedID, "feed", "", "feed id")
	cmd.Flags().StringVar(&date, "date", "", "calendar date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&allocate, "allocate", false, "consume the next value")
	_ = cmd.MarkFlagRequired("feed")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
