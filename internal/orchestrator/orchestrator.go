// Package orchestrator composes the engine-neutral subsystems into the three
// user-visible modes (spec.md §4.5): Extract, Migrate, and Replicate. It
// validates mode preconditions before touching any connection and prints
// dry-run SQL and progress to an io.Writer supplied by the caller, the same
// shape as the teacher's apply.Applier taking an out io.Writer field.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/replicate"
	"github.com/fluxef/dbforge/internal/schema"
	"github.com/fluxef/dbforge/internal/sorter"
)

// Version is the forge_version recorded in extracted snapshot metadata.
const Version = "0.1.0"

const (
	dryRunStart = "--- DRY RUN START ---"
	dryRunEnd   = "--- DRY RUN END ---"
)

// Orchestrator exposes the three command modes. Out receives dry-run SQL
// listings and (when Verbose) per-table progress lines; it is never read.
type Orchestrator struct {
	Out     io.Writer
	Verbose bool
}

// New returns an Orchestrator writing progress and dry-run SQL to out.
func New(out io.Writer, verbose bool) *Orchestrator {
	return &Orchestrator{Out: out, Verbose: verbose}
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.Verbose {
		fmt.Fprintf(o.Out, format+"\n", args...)
	}
}

// Extract opens sourceURL, introspects its schema, stamps extraction
// metadata, and writes the snapshot as indented JSON to schemaPath,
// overwriting any existing file (spec.md §4.5).
func (o *Orchestrator) Extract(ctx context.Context, sourceURL, schemaPath, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	src, err := driver.Open(ctx, sourceURL)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	o.logf("introspecting source schema...")
	s, err := src.Introspect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("extract: introspect: %w", err)
	}

	s.Metadata.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	s.Metadata.ForgeVersion = Version
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
		}
	}
	s.Metadata.ConfigFile = configPath

	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("extract: encode snapshot: %w", err)
	}
	if err := os.WriteFile(schemaPath, data, 0o644); err != nil {
		return fmt.Errorf("extract: write %q: %w", schemaPath, err)
	}

	o.logf("wrote schema snapshot with %d table(s) to %s", len(s.Tables), schemaPath)
	return nil
}

// MigrateOptions configures Migrate (spec.md §4.5).
type MigrateOptions struct {
	SourceURL        string
	SchemaPath       string
	TargetURL        string
	ConfigPath       string
	DryRun           bool
	AllowDestructive bool
}

// Migrate computes and applies a structural diff against target, moving no
// data. Desired comes from SchemaPath if set, otherwise from introspecting
// SourceURL (one of the two is required). The target need not be empty.
func (o *Orchestrator) Migrate(ctx context.Context, opts MigrateOptions) ([]string, error) {
	if strings.TrimSpace(opts.SourceURL) == "" && strings.TrimSpace(opts.SchemaPath) == "" {
		return nil, &driver.PreconditionError{Reason: "migrate: one of --source or --schema is required"}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	desired, err := o.resolveDesiredSchema(ctx, opts.SourceURL, opts.SchemaPath, cfg)
	if err != nil {
		return nil, err
	}

	sorted, err := sorter.Sort(desired)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	desired.Tables = sorted

	tgt, err := driver.Open(ctx, opts.TargetURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tgt.Close() }()

	o.logf("diffing desired schema against target...")
	stmts, err := tgt.DiffAndApply(ctx, desired, cfg, opts.DryRun, opts.AllowDestructive)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if opts.DryRun {
		o.printDryRun(stmts)
	}
	return stmts, nil
}

func (o *Orchestrator) resolveDesiredSchema(ctx context.Context, sourceURL, schemaPath string, cfg *config.Config) (*schema.Schema, error) {
	if strings.TrimSpace(schemaPath) != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("migrate: read schema %q: %w", schemaPath, err)
		}
		return schema.Decode(data)
	}

	src, err := driver.Open(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	o.logf("introspecting source schema...")
	return src.Introspect(ctx, cfg)
}

// ReplicateOptions configures Replicate (spec.md §4.5).
type ReplicateOptions struct {
	SourceURL   string
	TargetURL   string
	ConfigPath  string
	DryRun      bool
	HaltOnError bool
	Verify      bool
}

// ReplicateReport summarises a completed (or partially completed) run.
type ReplicateReport struct {
	Tables []replicate.TableReport
}

// Replicate validates the directional pair and target emptiness, creates the
// full structure in target, then streams row data table-by-table with
// optional post-write verification (spec.md §4.5, §4.4).
func (o *Orchestrator) Replicate(ctx context.Context, opts ReplicateOptions) (*ReplicateReport, error) {
	if err := validateDirectionalPair(opts.SourceURL, opts.TargetURL); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	tgt, err := driver.Open(ctx, opts.TargetURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tgt.Close() }()

	empty, err := tgt.IsEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("replicate: check target emptiness: %w", err)
	}
	if !empty {
		return nil, &driver.PreconditionError{Reason: "replicate: target database is not empty"}
	}

	src, err := driver.Open(ctx, opts.SourceURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	o.logf("introspecting source schema...")
	desired, err := src.Introspect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("replicate: introspect source: %w", err)
	}

	sorted, err := sorter.Sort(desired)
	if err != nil {
		return nil, fmt.Errorf("replicate: %w", err)
	}
	desired.Tables = sorted

	o.logf("creating target structure...")
	stmts, err := tgt.DiffAndApply(ctx, desired, cfg, opts.DryRun, true)
	if err != nil {
		return nil, fmt.Errorf("replicate: create target structure: %w", err)
	}
	if opts.DryRun {
		o.printDryRun(stmts)
	}

	verifyEnabled := opts.Verify || cfg.General.VerifyAfterWrite
	errLog := NewFileErrorLog()

	report := &ReplicateReport{}
	for _, t := range desired.Tables {
		if o.Verbose {
			count, cerr := src.RowCount(ctx, t.Name)
			if cerr == nil {
				o.logf("replicating %s (%d row(s))...", t.Name, count)
			} else {
				o.logf("replicating %s...", t.Name)
			}
		}

		tr, err := replicate.ReplicateTable(ctx, src, tgt, t, cfg, opts.DryRun, opts.HaltOnError, verifyEnabled, errLog)
		if tr != nil {
			report.Tables = append(report.Tables, *tr)
		}
		if err != nil {
			return report, fmt.Errorf("replicate: table %q: %w", t.Name, err)
		}
		o.logf("replicated %d row(s) into %s", tr.RowsInserted, t.Name)
	}

	return report, nil
}

// validateDirectionalPair rejects PostgreSQL->MySQL and unknown URL schemes
// before any connection attempt (spec.md §4.5, §7 kind 5, §8 boundary
// behaviour "PostgreSQL->MySQL replication is rejected before any connection
// attempt").
func validateDirectionalPair(sourceURL, targetURL string) error {
	srcEngine, err := driver.ParseEngine(sourceURL)
	if err != nil {
		return err
	}
	tgtEngine, err := driver.ParseEngine(targetURL)
	if err != nil {
		return err
	}
	if srcEngine == driver.PostgreSQL && tgtEngine == driver.MySQL {
		return &driver.PreconditionError{Reason: "replicate: PostgreSQL to MySQL replication is not supported"}
	}
	return nil
}

func (o *Orchestrator) printDryRun(stmts []string) {
	fmt.Fprintln(o.Out, dryRunStart)
	for _, s := range stmts {
		fmt.Fprintln(o.Out, s)
	}
	fmt.Fprintln(o.Out, dryRunEnd)
}
