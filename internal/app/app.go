package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/ensure/internal/loader"
	"github.com/specialistvlad/ensure/internal/logsink"
	"github.com/specialistvlad/ensure/internal/selftest"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	config *Config
	logger *slog.Logger
	sink   *logsink.Sink
	loader *loader.Loader
}

// NewApp is the constructor for the main application. The tree is rendered
// to outW; raw action output and logs go to the configured log file.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	sink, err := logsink.Open(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	return newApp(outW, cfg, sink), nil
}

// NewAppWithSink is NewApp with an already opened log sink. Tests use it to
// capture logs in memory.
func NewAppWithSink(outW io.Writer, cfg *Config, sink *logsink.Sink) *App {
	return newApp(outW, cfg, sink)
}

func newApp(outW io.Writer, cfg *Config, sink *logsink.Sink) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, sink)
	logger.Debug("Logger configured successfully.", "log_file", cfg.LogFile)

	var roots []loader.Root
	if cfg.Unit == selftest.RootName {
		roots = append(roots, selftest.Root())
	}
	for _, dir := range cfg.Roots {
		roots = append(roots, loader.DirRoot(dir))
	}
	logger.Debug("Search roots configured.", "roots", cfg.Roots)

	return &App{
		outW:   outW,
		config: cfg,
		logger: logger,
		sink:   sink,
		loader: loader.New(roots...),
	}
}

// Loader returns the application's loader. This is primarily for testing.
func (a *App) Loader() *loader.Loader {
	return a.loader
}

// Close releases the log sink.
func (a *App) Close() error {
	if err := a.sink.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
