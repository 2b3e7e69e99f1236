// Package options builds the immutable process-level configuration from
// command-line arguments and environment overrides. It touches no global
// state; daemonization and logging act on the returned config later.
package options

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/nconfd/nconfd/internal/logging"
)

// EnvVerbose supplies the default verbosity level, consulted only when
// the -v flag is absent.
const EnvVerbose = "NCONFD_VERBOSE"

// ErrHelp reports an explicit help request.
var ErrHelp = pflag.ErrHelp

// Config is the process-level configuration. It is built once at startup
// and never mutated afterwards.
type Config struct {
	Foreground bool
	Verbosity  logging.Level
}

// Parse builds the process configuration from args and environment
// lookups. A help request returns ErrHelp; unrecognized flags return a
// parse error. Either way the caller prints usage and exits before any
// subsystem is touched.
func Parse(args []string, getenv func(string) string) (Config, error) {
	verbose := int(logging.MinLevel)
	if raw := getenv(EnvVerbose); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			verbose = v
		}
	}

	fs := pflag.NewFlagSet("nconfd", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	foreground := fs.BoolP("foreground", "f", false, "run in foreground")
	fs.IntVarP(&verbose, "verbose", "v", verbose, "verbose output level")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return Config{
		Foreground: *foreground,
		Verbosity:  logging.Clamp(verbose),
	}, nil
}

// Usage prints the option summary for the given program name.
func Usage(w io.Writer, progname string) {
	fmt.Fprintf(w, "Usage: %s [-fh] [-v level]\n", progname)
	fmt.Fprintln(w, " -f,--foreground        run in foreground")
	fmt.Fprintln(w, " -h,--help              display help")
	fmt.Fprintln(w, " -v,--verbose level     verbose output level")
}
