package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dalemusser/tripjournal/internal/app/bootstrap"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSchemaCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create tables, collections and indexes for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Long())
			defer cancel()

			return opts.withStore(ctx, func(ctx context.Context, deps bootstrap.DBDeps, logger *zap.Logger) error {
				cfg := opts.AppConfig()
				if err := bootstrap.EnsureSchema(ctx, nil, cfg, deps, logger); err != nil {
					return err
				}
				result := map[string]string{"driver": deps.Driver, "status": "ok"}
				return opts.print(cmd.OutOrStdout(), result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "schema ready (%s)\n", deps.Driver)
					return err
				})
			})
		},
	}
}
