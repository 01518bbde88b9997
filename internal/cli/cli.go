// Package cli implements the bb-migrate and bl-migrate commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/samber/lo"

	"github.com/laws-africa/akn-migrate/internal/check"
	"github.com/laws-africa/akn-migrate/internal/config"
	"github.com/laws-africa/akn-migrate/internal/fetcher"
	"github.com/laws-africa/akn-migrate/internal/logging"
	"github.com/laws-africa/akn-migrate/internal/parser"
	"github.com/laws-africa/akn-migrate/internal/pipeline"
	"github.com/laws-africa/akn-migrate/internal/schema"
	"github.com/laws-africa/akn-migrate/internal/storage"
	"github.com/laws-africa/akn-migrate/internal/store"
	"github.com/laws-africa/akn-migrate/internal/stylesheet"
	"github.com/laws-africa/akn-migrate/internal/transform"
)

// Options are shared by both commands.
type Options struct {
	Config    string `short:"c" long:"config" description:"path to config file (yaml or json)"`
	LogLevel  string `long:"log-level" description:"log level (debug, info, warn, error)"`
	LogFormat string `long:"log-format" description:"log format (text, json)"`
	Workers   int    `long:"workers" description:"works migrated in parallel"`

	Work                  string `long:"work" description:"migrate one work, by FRBR URI"`
	Place                 string `long:"place" description:"migrate every work in a place code, eg za or za-cpt"`
	CountryWithLocalities string `long:"country-with-localities" description:"migrate a country and every locality in it"`

	Commit           bool   `long:"commit" description:"persist changes, otherwise roll back"`
	NoChecks         bool   `long:"no-checks" description:"skip validation, fingerprint and stability checks"`
	PrintEidMappings bool   `long:"print-eid-mappings" description:"print eId mappings as JSON on stdout"`
	SkipList         string `long:"skip-list" description:"semicolon separated work FRBR URIs to skip"`
}

// BBOptions are the bb-migrate flags.
type BBOptions struct {
	Options
	NoVersions bool `long:"no-versions" description:"do not migrate historical versions"`
}

// BLOptions are the bl-migrate flags.
type BLOptions struct {
	Options
	UserID int64 `long:"user-id" description:"user credited with the new revision"`
}

var errScope = errors.New("only one of --work, --place and --country-with-localities may be given")

// Scope turns the selector flags into a store scope. No selector means
// every work.
func (o *Options) Scope() (store.Scope, error) {
	given := lo.Compact([]string{o.Work, o.Place, o.CountryWithLocalities})
	if len(given) > 1 {
		return store.Scope{}, errScope
	}
	if o.Place != "" {
		if _, _, err := store.ParsePlace(o.Place); err != nil {
			return store.Scope{}, err
		}
	}
	return store.Scope{Work: o.Work, Place: o.Place, Country: o.CountryWithLocalities}, nil
}

// Skip splits --skip-list into work URIs.
func (o *Options) Skip() []string {
	return lo.Compact(lo.Map(strings.Split(o.SkipList, ";"), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// Parse reads args into opts. A help request returns a *flags.Error of
// type flags.ErrHelp.
func Parse(args []string, opts any) error {
	_, err := flags.ParseArgs(opts, args)
	return err
}

// IsHelp reports whether err came from a --help request.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

// RunBB migrates slaw documents to the bluebell shape.
func RunBB(ctx context.Context, args []string, stdout io.Writer) error {
	opts := &BBOptions{}
	if err := Parse(args, opts); err != nil {
		return err
	}
	return run(ctx, &opts.Options, stdout, func(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, pipeline.Options) {
		m := transform.NewSlawToBluebell(transform.Platform{
			ID:     cfg.Platform.ID,
			Href:   cfg.Platform.Href,
			ShowAs: cfg.Platform.ShowAs,
		})
		m.Logger = logger
		return &pipeline.Runner{Migration: m}, pipeline.Options{
			MigrateVersions: !opts.NoVersions,
		}
	})
}

// RunBL turns definition paragraphs back into blockLists. Invalid or
// changed documents are skipped, and each migrated document is stored
// as a new revision.
func RunBL(ctx context.Context, args []string, stdout io.Writer) error {
	opts := &BLOptions{}
	if err := Parse(args, opts); err != nil {
		return err
	}
	return run(ctx, &opts.Options, stdout, func(_ *config.Config, logger *slog.Logger) (*pipeline.Runner, pipeline.Options) {
		m := transform.NewDefsParaToBlocklist()
		m.Logger = logger
		return &pipeline.Runner{
				Migration: m,
				Policy:    pipeline.Policy{InvalidIsFatal: true, MismatchIsFatal: true},
			}, pipeline.Options{
				RecordRevision: true,
				UserID:         opts.UserID,
			}
	})
}

type buildFunc func(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, pipeline.Options)

func run(ctx context.Context, o *Options, stdout io.Writer, build buildFunc) error {
	if o.Config == "" {
		o.Config = config.DefaultPath()
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	if o.Workers > 0 {
		cfg.Workers = o.Workers
	}
	logger := logging.BuildLogger(cfg.LogLevel, cfg.LogFormat)

	scope, err := o.Scope()
	if err != nil {
		return err
	}

	validator, err := buildValidator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	runner, popts := build(cfg, logger)
	runner.Store = db
	runner.Validator = validator
	runner.Workers = cfg.WorkerCount()
	runner.Logger = logger
	runner.Artifacts = storage.NewFSStorage(cfg.ReportPath(), cfg.DiffBaseURL)
	if cfg.ParserBinary != "" {
		runner.Stability = &check.Stability{Parser: parser.NewExec(cfg.ParserBinary), Sheets: stylesheet.Compile()}
	} else {
		logger.Warn("no parser_binary configured, stability checks disabled")
	}

	popts.Commit = o.Commit
	popts.Check = !o.NoChecks
	popts.SkipList = o.Skip()

	report, err := runner.Migrate(ctx, scope, popts)
	if err != nil {
		return err
	}

	for _, m := range report.Manual {
		logger.Info("needs manual migration", "doc", m.DocID, "work", m.Work, "reason", m.Reason)
	}
	if !report.Committed {
		logger.Info("dry run, changes rolled back")
	}

	if o.PrintEidMappings {
		data, err := report.EidMappingsJSON()
		if err != nil {
			return fmt.Errorf("encode eid mappings: %w", err)
		}
		if _, err := fmt.Fprintln(stdout, string(data)); err != nil {
			return err
		}
	}
	return nil
}

// buildValidator compiles the configured XSD, fetching it first when a
// schema_url is set. xmllint is used instead when xmllint_binary is
// configured, and the structural checks when there is no schema.
func buildValidator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (schema.Validator, error) {
	if cfg.SchemaPath == "" {
		logger.Warn("no schema_path configured, using structural validation only")
		return schema.Structural{}, nil
	}
	path := cfg.SchemaPath
	if cfg.SchemaURL != "" {
		f := fetcher.New()
		f.Logger = logger
		var err error
		path, err = f.FetchSchema(ctx, cfg.SchemaURL, cfg.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("fetch schema: %w", err)
		}
	}
	if cfg.XMLLintBinary != "" {
		return schema.NewXMLLint(cfg.XMLLintBinary, path), nil
	}
	v, err := schema.LoadXSD(path)
	if err != nil {
		return nil, err
	}
	return v, nil
}
