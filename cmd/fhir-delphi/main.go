// Command fhir-delphi loads a FHIR specification build and generates
// Delphi source units from it.
//
// Usage:
//
//	fhir-delphi [flags] <source-dir> <output-dir> <version>
//
// A version of 3 reads a DSTU3 build; any other integer reads DSTU2.
// Every flag can also be set through a FHIR_DELPHI_ environment variable,
// e.g. FHIR_DELPHI_LOG_LEVEL=debug.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/andrewkroh/go-fhir-delphi/internal/generator"
	"github.com/andrewkroh/go-fhir-delphi/internal/logger"
)

const envPrefix = "FHIR_DELPHI"

// ExitError carries the process exit status for an error. Usage errors
// exit with 2.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func usageError(msg string) *ExitError {
	return &ExitError{Code: 2, Message: msg}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := execute(ctx, args, stdout, stderr)
	if err == nil {
		return 0
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(stderr, "error: %v\n", err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("fhir-delphi", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: fhir-delphi [flags] <source-dir> <output-dir> <version>")
		flags.PrintDefaults()
	}
	flags.String("dump", generator.DefaultDumpPath(), "Path of the intermediate definitions dump")
	flags.String("augment", "", "Path to augment.yml (optional)")
	flags.String("unitmap", "", "Path to unitmap.yml (optional)")
	flags.String("catalog", "", "Write a SQLite catalog of the definitions to this file (optional)")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", logger.FormatText, "Log format (text or json)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError(err.Error())
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	if flags.NArg() != 3 {
		flags.Usage()
		return usageError(fmt.Sprintf("expected 3 arguments, got %d", flags.NArg()))
	}

	cfg := generator.Config{
		SourceDir:   flags.Arg(0),
		OutputDir:   flags.Arg(1),
		Version:     flags.Arg(2),
		DumpPath:    v.GetString("dump"),
		AugmentFile: v.GetString("augment"),
		UnitMapFile: v.GetString("unitmap"),
		CatalogFile: v.GetString("catalog"),
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err.Error())
	}

	log, err := logger.New(stderr, v.GetString("log-level"), v.GetString("log-format"))
	if err != nil {
		return usageError(err.Error())
	}

	return generator.Run(ctx, cfg, generator.WithStdout(stdout), generator.WithLogger(log))
}
