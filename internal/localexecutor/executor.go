// Package localexecutor runs the external actions behind check and remediate
// operations as local processes.
package localexecutor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/logsink"
)

// DefaultShell interprets script actions.
const DefaultShell = "/bin/sh"

// Environment variables exported to every action.
const (
	EnvUnit      = "ENSURE_UNIT"
	EnvOriginDir = "ENSURE_ORIGIN_DIR"
	EnvRunDir    = "ENSURE_RUN_DIR"
)

// Action describes a single external process.
type Action struct {
	// Unit is the owning unit's name, exported as ENSURE_UNIT.
	Unit string
	// Kind is "check" or "remediate"; it only tags the log output.
	Kind string
	// Command is an argv to execute directly. Mutually exclusive with Script.
	Command []string
	// Script is run by the shell with Args bound to $1, $2, ...
	Script string
	// Args are the unit's bound arguments.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// OriginDir is exported as ENSURE_ORIGIN_DIR.
	OriginDir string
	// Env is added on top of the inherited environment.
	Env map[string]string
}

// Executor runs actions and routes their output to a log sink.
type Executor struct {
	sink    *logsink.Sink
	shell   string
	runDir  string
	environ func() []string
}

// New creates an executor. An empty shell selects DefaultShell.
func New(sink *logsink.Sink, shell, runDir string) *Executor {
	if sink == nil {
		sink = logsink.Discard()
	}
	if shell == "" {
		shell = DefaultShell
	}
	return &Executor{
		sink:    sink,
		shell:   shell,
		runDir:  runDir,
		environ: os.Environ,
	}
}

// Run executes the action and reports whether it exited successfully. Any
// failure, including one to start the process, is reported as false; the
// details only go to the log sink. No timeout is applied.
func (e *Executor) Run(ctx context.Context, a Action) bool {
	logger := ctxlog.FromContext(ctx).With("unit", a.Unit, "action", a.Kind)

	var cmd *exec.Cmd
	switch {
	case len(a.Command) > 0:
		cmd = exec.CommandContext(ctx, a.Command[0], a.Command[1:]...)
	case a.Script != "":
		argv := append([]string{"-c", a.Script, a.Unit}, a.Args...)
		cmd = exec.CommandContext(ctx, e.shell, argv...)
	default:
		logger.Error("Action has neither command nor script.")
		return false
	}

	cmd.Dir = a.Dir
	cmd.Env = e.env(a)

	out := e.sink.Prefixed(a.Unit + " " + a.Kind)
	defer out.Flush()
	cmd.Stdout = out
	cmd.Stderr = out

	logger.Debug("Starting action.", "argv", cmd.Args, "dir", cmd.Dir)
	err := cmd.Run()
	if err == nil {
		logger.Debug("Action succeeded.")
		return true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("Action exited with non-zero status.", "exit_code", exitErr.ExitCode())
	} else {
		logger.Warn("Action could not be run.", "error", err)
		e.sink.Printf("%s %s | %v", a.Unit, a.Kind, err)
	}
	return false
}

func (e *Executor) env(a Action) []string {
	env := e.environ()
	env = append(env,
		EnvUnit+"="+a.Unit,
		EnvOriginDir+"="+a.OriginDir,
	)
	if e.runDir != "" {
		env = append(env, EnvRunDir+"="+e.runDir)
	}

	keys := make([]string, 0, len(a.Env))
	for k := range a.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+a.Env[k])
	}
	return env
}

// String renders the action for logs and error messages.
func (a Action) String() string {
	if len(a.Command) > 0 {
		return strings.Join(a.Command, " ")
	}
	return a.Script
}
