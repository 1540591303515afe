// Package generator runs the fhir-delphi pipeline: select a loader for the
// requested release, load the specification, dump the loaded definitions,
// optionally record them in a SQLite catalog and generate the Pascal units.
package generator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
	"github.com/andrewkroh/go-fhir-delphi/defsql"
	"github.com/andrewkroh/go-fhir-delphi/dumper"
	"github.com/andrewkroh/go-fhir-delphi/internal/logger"
	"github.com/andrewkroh/go-fhir-delphi/internal/pascal"
	"github.com/andrewkroh/go-fhir-delphi/loader"
)

// ErrInvalidVersion is returned when the version discriminator is not an
// integer.
var ErrInvalidVersion = errors.New("version must be an integer")

// ErrMissingDir is returned when the source or output directory is empty.
var ErrMissingDir = errors.New("source and output directories are required")

// Config holds all configuration for a generator run.
type Config struct {
	SourceDir   string // Specification build directory.
	OutputDir   string // Directory receiving the .pas units.
	Version     string // Release discriminator. "3" selects DSTU3, anything else DSTU2.
	DumpPath    string // Intermediate dump file. Defaults to DefaultDumpPath().
	AugmentFile string // Optional augment.yml.
	UnitMapFile string // Optional unitmap.yml.
	CatalogFile string // Optional SQLite catalog written from the definitions.
}

// DefaultDumpPath returns the dump location used when Config.DumpPath is
// empty.
func DefaultDumpPath() string {
	return filepath.Join(os.TempDir(), "pascal.txt")
}

// DSTU returns the integer release number of the version discriminator.
func (c Config) DSTU() (int, error) {
	n, err := strconv.Atoi(c.Version)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersion, c.Version)
	}
	return n, nil
}

// Validate checks the configuration without touching the filesystem.
func (c Config) Validate() error {
	if c.SourceDir == "" || c.OutputDir == "" {
		return ErrMissingDir
	}
	_, err := c.DSTU()
	return err
}

// CodeGenerator turns loaded definitions into target source code.
type CodeGenerator interface {
	Generate(defs *definitions.Definitions, version string, genDate time.Time, dstu int) error
}

// LoaderFactory returns the loader for a version discriminator.
type LoaderFactory func(version string, opts ...loader.Option) loader.Loader

// Option configures a Run.
type Option func(*runner)

type runner struct {
	stdout    io.Writer
	log       logrus.FieldLogger
	newLoader LoaderFactory
	codegen   CodeGenerator
}

// WithStdout sets where the start banner and completion line are printed.
// Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(r *runner) { r.stdout = w }
}

// WithLogger sets the logger passed to the loader and Pascal generator.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *runner) { r.log = log }
}

// WithLoaderFactory replaces loader.ForVersion.
func WithLoaderFactory(f LoaderFactory) Option {
	return func(r *runner) { r.newLoader = f }
}

// WithCodeGenerator replaces the Pascal generator. Augment and unit map
// files are ignored when set.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(r *runner) { r.codegen = g }
}

// Run executes the full pipeline described by cfg.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	r := &runner{
		stdout:    os.Stdout,
		newLoader: loader.ForVersion,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Discard()
	}

	// 1. Check arguments before anything is read.
	if err := cfg.Validate(); err != nil {
		return err
	}
	dstu, _ := cfg.DSTU()

	// 2. Prepare the code generator, loading optional YAML configs.
	codegen := r.codegen
	if codegen == nil {
		var err error
		if codegen, err = newPascalGenerator(cfg, r.log); err != nil {
			return err
		}
	}

	fmt.Fprintf(r.stdout, "Generate pascal code for dstu%s in %s from %s\n", cfg.Version, cfg.OutputDir, cfg.SourceDir)

	// 3. Load definitions.
	ld := r.newLoader(cfg.Version, loader.WithLogger(r.log))
	defs, err := ld.LoadDefinitions(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("loading definitions from %s: %w", cfg.SourceDir, err)
	}

	// 4. Dump definitions.
	dumpPath := cfg.DumpPath
	if dumpPath == "" {
		dumpPath = DefaultDumpPath()
	}
	if err := dumper.WriteFile(dumpPath, defs); err != nil {
		return err
	}
	fields := logrus.Fields{"path": dumpPath}
	if fi, err := os.Stat(dumpPath); err == nil {
		fields["size"] = humanize.Bytes(uint64(fi.Size()))
	}
	r.log.WithFields(fields).Info("Wrote definitions dump.")

	// 5. Write the catalog (optional).
	if cfg.CatalogFile != "" {
		if err := writeCatalog(ctx, cfg.CatalogFile, defs); err != nil {
			return fmt.Errorf("writing catalog: %w", err)
		}
		r.log.WithField("path", cfg.CatalogFile).Info("Wrote definitions catalog.")
	}

	// 6. Generate.
	if err := codegen.Generate(defs, defs.Version, defs.GenDate, dstu); err != nil {
		return fmt.Errorf("generating pascal code: %w", err)
	}

	fmt.Fprintln(r.stdout, "Done")
	return nil
}

func newPascalGenerator(cfg Config, log logrus.FieldLogger) (*pascal.Generator, error) {
	opts := []pascal.Option{pascal.WithLogger(log)}

	if cfg.AugmentFile != "" {
		aug, err := pascal.LoadAugmentations(cfg.AugmentFile)
		if err != nil {
			return nil, fmt.Errorf("loading augmentations: %w", err)
		}
		opts = append(opts, pascal.WithAugmentations(aug))
	}

	if cfg.UnitMapFile != "" {
		um, err := pascal.LoadUnitMap(cfg.UnitMapFile)
		if err != nil {
			return nil, fmt.Errorf("loading unit map: %w", err)
		}
		opts = append(opts, pascal.WithUnitMap(um))
	}

	return pascal.NewGenerator(cfg.OutputDir, opts...), nil
}

// writeCatalog replaces path with a fresh SQLite catalog of defs. The
// "sqlite" driver must be registered by the caller.
func writeCatalog(ctx context.Context, path string, defs *definitions.Definitions) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	return defsql.WriteDefinitions(ctx, db, defs)
}
