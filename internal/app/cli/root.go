// Package cli implements journalctl, the operator CLI for tripjournal.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/tripjournal/internal/app/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds the global flags. Store flags default to the same
// TRIPJOURNAL_* variables the server reads.
type RootOptions struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
	SQLitePath    string
	Format        string
	Verbose       bool
}

// AppConfig maps the flags onto the server's store configuration.
func (o *RootOptions) AppConfig() bootstrap.AppConfig {
	return bootstrap.AppConfig{
		StoreDriver:      o.Driver,
		MongoURI:         o.MongoURI,
		MongoDatabase:    o.MongoDatabase,
		MongoMaxPoolSize: 4,
		PostgresDSN:      o.PostgresDSN,
		SQLitePath:       o.SQLitePath,
		AuditLog:         "off",
	}
}

func (o *RootOptions) logger() *zap.Logger {
	if !o.Verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// withStore validates the store flags, opens the store, runs fn and closes it.
func (o *RootOptions) withStore(ctx context.Context, fn func(ctx context.Context, deps bootstrap.DBDeps, logger *zap.Logger) error) error {
	cfg := o.AppConfig()
	logger := o.logger()
	defer func() { _ = logger.Sync() }()

	if err := bootstrap.ValidateConfig(nil, cfg, logger); err != nil {
		return err
	}
	deps, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := deps.Store.Close(context.Background()); cerr != nil {
			logger.Warn("close store", zap.Error(cerr))
		}
	}()
	return fn(ctx, deps, logger)
}

func (o *RootOptions) print(w io.Writer, v any, text func(w io.Writer) error) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// NewRootCommand creates the journalctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "journalctl",
		Short:         "Operator tooling for the trip journal store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.Driver, "driver", envOr("TRIPJOURNAL_STORE_DRIVER", bootstrap.DriverMongo), "store backend (mongo|postgres|sqlite)")
	pf.StringVar(&opts.MongoURI, "mongo-uri", envOr("TRIPJOURNAL_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&opts.MongoDatabase, "mongo-database", envOr("TRIPJOURNAL_MONGO_DATABASE", "trip_journal"), "MongoDB database name")
	pf.StringVar(&opts.PostgresDSN, "postgres-dsn", envOr("TRIPJOURNAL_POSTGRES_DSN", ""), "PostgreSQL DSN")
	pf.StringVar(&opts.SQLitePath, "sqlite-path", envOr("TRIPJOURNAL_SQLITE_PATH", "tripjournal.db"), "SQLite database file")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "log store activity to stderr")

	cmd.AddCommand(newSchemaCommand(opts))
	cmd.AddCommand(newNextSequenceCommand(opts))
	cmd.AddCommand(newMembersCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
