// Package cli implements the saidx command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hupe1980/saidx"
)

const usage = `saidx: suffix array index over transcript sequences

Usage:
  saidx index   -t <fasta>... -i <index> [-k 31] [-n] [-p] [-x 4]
  saidx search  -i <index> [-hits N] [-json] <pattern>...
  saidx publish -i <index> -o <destination> [-j 4] [-io-limit bytes/s]

Index locations are directories, s3://bucket/prefix or
minio://host:port/bucket/prefix (credentials from MINIO_ACCESS_KEY and
MINIO_SECRET_KEY).
`

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Run executes one command and returns the process exit code.
func Run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	if len(argv) == 0 {
		fmt.Fprint(stderr, usage)
		return ExitUsage
	}

	var cmd func(context.Context, []string, io.Writer, io.Writer) error
	switch argv[0] {
	case "index":
		cmd = runIndex
	case "search":
		cmd = runSearch
	case "publish":
		cmd = runPublish
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return ExitOK
	default:
		fmt.Fprintf(stderr, "saidx: unknown command %q\n\n%s", argv[0], usage)
		return ExitUsage
	}

	err := cmd(ctx, argv[1:], stdout, stderr)
	var ue *usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, flag.ErrHelp):
		return ExitOK
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "saidx %s: %v\n", argv[0], ue.err)
		return ExitUsage
	default:
		fmt.Fprintf(stderr, "saidx %s: %v\n", argv[0], err)
		return ExitError
	}
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// newFlagSet returns a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("saidx "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, argv []string) error {
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &usageError{err: err}
	}
	return nil
}

// stringSlice allows repeatable string flags.
type stringSlice []string

func (s *stringSlice) String() string     { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error { *s = append(*s, v); return nil }

// logFlags are shared by all commands.
type logFlags struct {
	verbose bool
	quiet   bool
	json    bool
}

func (l *logFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&l.verbose, "v", false, "debug logging")
	fs.BoolVar(&l.quiet, "q", false, "only log warnings and errors")
	fs.BoolVar(&l.json, "log-json", false, "log as JSON")
}

func (l *logFlags) logger(stderr io.Writer) *saidx.Logger {
	level := slog.LevelInfo
	switch {
	case l.verbose:
		level = slog.LevelDebug
	case l.quiet:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.json {
		return saidx.NewLogger(slog.NewJSONHandler(stderr, opts))
	}
	return saidx.NewLogger(slog.NewTextHandler(stderr, opts))
}
