package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/ensure/internal/app"
)

// EnvLogLevel overrides the log level when --log-level is not given.
const EnvLogLevel = "ENSURE_LOG_LEVEL"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ensure", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
ensure - Resolve a graph of idempotent provisioning units.

Usage:
  ensure [options] UNIT [ARGS...]
  ensure --list

Arguments:
  UNIT
    Name of the unit to resolve, e.g. "pkg/git" or "pkg.git".
    The reserved name "selftest" runs the built-in self-test suite.
  ARGS
    Values bound to the unit's args.

Options:
`)
		flagSet.PrintDefaults()
	}

	var roots stringList
	configFlag := flagSet.String("config", "", "Path to a config file (.yaml, .yml or .toml).")
	flagSet.Var(&roots, "root", "Unit search root. Repeat to search several roots in order.")
	listFlag := flagSet.Bool("list", false, "List available units and exit.")
	shellFlag := flagSet.String("shell", "", "Shell used for script actions. Defaults to /bin/sh.")
	logFileFlag := flagSet.String("log-file", "", "File receiving action output and logs.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	noColorFlag := flagSet.Bool("no-color", false, "Disable colored tree markers.")
	timestampsFlag := flagSet.Bool("timestamps", false, "Prefix messages with the time they were emitted.")
	reportURLFlag := flagSet.String("report-url", "", "Stream tree events to this socket.io server, e.g. http://localhost:3000/socket.io/.")
	reportNamespaceFlag := flagSet.String("report-namespace", "", "socket.io namespace used with --report-url.")
	reportInsecureFlag := flagSet.Bool("report-insecure", false, "Skip TLS certificate verification for --report-url.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	cfg := app.Config{
		Roots:      roots,
		List:       *listFlag,
		Shell:      *shellFlag,
		LogFile:    *logFileFlag,
		LogFormat:  *logFormatFlag,
		LogLevel:   *logLevelFlag,
		NoColor:    *noColorFlag,
		Timestamps: *timestampsFlag,

		ReportURL:       *reportURLFlag,
		ReportNamespace: *reportNamespaceFlag,
		ReportInsecure:  *reportInsecureFlag,
	}
	if flagSet.NArg() > 0 {
		cfg.Unit = flagSet.Arg(0)
		cfg.Args = flagSet.Args()[1:]
	}
	slog.Debug("Unit determined.", "unit", cfg.Unit, "args", cfg.Args)

	if cfg.Unit == "" && !cfg.List {
		slog.Debug("No unit provided, printing usage.")
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "missing unit name"}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv(EnvLogLevel)
	}

	fileConfig, err := loadConfigFile(*configFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	cfg.Merge(fileConfig)

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// loadConfigFile loads the named config file, or the first default config
// file in the working directory. No file at all is not an error.
func loadConfigFile(path string) (*app.FileConfig, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, ok := app.FindConfigFile(cwd)
		if !ok {
			return nil, nil
		}
		path = found
	}
	slog.Debug("Loading config file.", "path", path)
	return app.LoadConfigFile(path)
}
