package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, rootOpts, func(ctx context.Context, m migrator) error {
				applied, err := m.Up(ctx)
				if err != nil {
					return err
				}
				return printVersions(cmd.OutOrStdout(), "applied", applied)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			return withMigrator(cmd, rootOpts, func(ctx context.Context, m migrator) error {
				reverted, err := m.Down(ctx, steps)
				if err != nil {
					return err
				}
				return printVersions(cmd.OutOrStdout(), "reverted", reverted)
			})
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to revert")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, rootOpts, func(ctx context.Context, m migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
				for _, s := range statuses {
					applied := "pending"
					if s.Applied && s.AppliedAt != nil {
						applied = s.AppliedAt.Format(time.RFC3339)
					} else if s.Applied {
						applied = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Version, s.Name, applied)
				}
				return tw.Flush()
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, m migrator) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, _ := newLogger(cfg, cmd)

	store, err := openBackend(cmd.Context(), cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = store.Close() }()

	return fn(cmd.Context(), store.Migrator)
}

func printVersions(w io.Writer, verb string, versions []string) error {
	if len(versions) == 0 {
		_, err := fmt.Fprintf(w, "nothing %s\n", verb)
		return err
	}
	for _, v := range versions {
		if _, err := fmt.Fprintf(w, "%s %s\n", verb, v); err != nil {
			return err
		}
	}
	return nil
}
