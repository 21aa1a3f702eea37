// Package main contains the cli implementation of dbforge. It uses cobra
// for cli tool implementation, mirroring the teacher's cmd/smf layout.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	_ "github.com/fluxef/dbforge/internal/driver/mysql"
	_ "github.com/fluxef/dbforge/internal/driver/postgres"
	"github.com/fluxef/dbforge/internal/orchestrator"
)

type extractFlags struct {
	source     string
	schemaPath string
	configPath string
	verbose    bool
}

type migrateFlags struct {
	source           string
	schemaPath       string
	target           string
	configPath       string
	dryRun           bool
	allowDestructive bool
	verbose          bool
}

type replicateFlags struct {
	source      string
	target      string
	configPath  string
	dryRun      bool
	haltOnError bool
	verify      bool
	verbose     bool
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dbforge",
		Short: "Cross-engine database schema converter and data replicator",
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(replicateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	flags := &extractFlags{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a live database schema into a portable JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.source == "" {
				return fmt.Errorf("extract: --source is required")
			}
			if flags.schemaPath == "" {
				return fmt.Errorf("extract: --schema is required")
			}
			o := orchestrator.New(cmd.OutOrStdout(), flags.verbose)
			return o.Extract(context.Background(), flags.source, flags.schemaPath, flags.configPath)
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", "", "Source database connection URL")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Path to write the JSON schema snapshot")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to a TOML configuration file")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print per-table progress")

	return cmd
}

func migrateCmd() *cobra.Command {
	flags := &migrateFlags{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Compute and apply a structural diff against a target database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.source == "" && flags.schemaPath == "" {
				return fmt.Errorf("migrate: one of --source or --schema is required")
			}
			if flags.target == "" {
				return fmt.Errorf("migrate: --target is required")
			}
			o := orchestrator.New(cmd.OutOrStdout(), flags.verbose)
			_, err := o.Migrate(context.Background(), orchestrator.MigrateOptions{
				SourceURL:        flags.source,
				SchemaPath:       flags.schemaPath,
				TargetURL:        flags.target,
				ConfigPath:       flags.configPath,
				DryRun:           flags.dryRun,
				AllowDestructive: flags.allowDestructive,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", "", "Source database connection URL")
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "Path to a JSON schema snapshot")
	cmd.Flags().StringVar(&flags.target, "target", "", "Target database connection URL")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to a TOML configuration file")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print generated SQL without executing it")
	cmd.Flags().BoolVar(&flags.allowDestructive, "allow-destructive", false, "Allow DROP TABLE/COLUMN/INDEX statements")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print per-table progress")

	return cmd
}

func replicateCmd() *cobra.Command {
	flags := &replicateFlags{}
	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Create the target structure and stream row data from source to target",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.source == "" {
				return fmt.Errorf("replicate: --source is required")
			}
			if flags.target == "" {
				return fmt.Errorf("replicate: --target is required")
			}
			o := orchestrator.New(cmd.OutOrStdout(), flags.verbose)
			_, err := o.Replicate(context.Background(), orchestrator.ReplicateOptions{
				SourceURL:   flags.source,
				TargetURL:   flags.target,
				ConfigPath:  flags.configPath,
				DryRun:      flags.dryRun,
				HaltOnError: flags.haltOnError,
				Verify:      flags.verify,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", "", "Source database connection URL")
	cmd.Flags().StringVar(&flags.target, "target", "", "Target database connection URL (must be empty)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to a TOML configuration file")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print generated SQL without executing it")
	cmd.Flags().BoolVar(&flags.haltOnError, "halt-on-error", false, "Abort on the first row-insert failure instead of logging and continuing")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "Verify each table by re-streaming both sides after write")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print per-table progress")

	return cmd
}
