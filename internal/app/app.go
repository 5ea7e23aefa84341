// Package app wires configuration, logging, and the session runtime behind the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/warbler/internal/audio"
	"github.com/rbright/warbler/internal/cli"
	"github.com/rbright/warbler/internal/config"
	"github.com/rbright/warbler/internal/doctor"
	"github.com/rbright/warbler/internal/logging"
	"github.com/rbright/warbler/internal/render"
	"github.com/rbright/warbler/internal/session"
	"github.com/rbright/warbler/internal/version"
)

const binaryName = "warbler"

// Runner executes one CLI invocation. Recorder and Classifier override the
// PulseAudio and HTTP implementations when set.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Recorder   session.Recorder
	Classifier session.Classifier
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	switch {
	case parsed.ShowHelp:
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	case parsed.Command == cli.CommandVersion:
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	env, err := r.bootstrap(parsed)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer env.close()

	env.logger.Info("command start",
		"command", parsed.Command,
		"config", env.loaded.Path,
		"log", env.logPath,
		"version", version.Version,
	)

	switch parsed.Command {
	case cli.CommandRecord:
		return r.commandRecord(ctx, env.cfg, env.logger)
	case cli.CommandClassify:
		return r.commandClassify(ctx, env.cfg, env.logger, parsed.File)
	case cli.CommandStop:
		return r.commandStop(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandDoctor:
		return r.commandDoctor(ctx, env.loaded)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// environment is the per-invocation state every runtime command shares.
type environment struct {
	loaded  config.Loaded
	cfg     config.Config
	logger  *slog.Logger
	logPath string
	close   func()
}

// bootstrap loads config, opens the JSONL log at the configured level, and
// reports config warnings on stderr.
func (r Runner) bootstrap(parsed cli.Parsed) (environment, error) {
	loaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		return environment{}, err
	}

	logRuntime, err := logging.New(loaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: logging disabled: %v\n", err)
		logRuntime = logging.Discard()
	}

	env := environment{
		loaded:  loaded,
		cfg:     loaded.Config,
		logger:  logRuntime.Logger,
		logPath: logRuntime.Path,
		close:   func() { _ = logRuntime.Close() },
	}
	if r.Logger != nil {
		env.logger = r.Logger
	}
	if parsed.JSON {
		env.cfg.Output.JSON = true
	}

	for _, w := range loaded.Warnings {
		if w.Line > 0 {
			fmt.Fprintf(r.Stderr, "warning: line %d: %s\n", w.Line, w.Message)
		} else {
			fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		}
		env.logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	return env, nil
}

func (r Runner) commandDoctor(ctx context.Context, loaded config.Loaded) int {
	report := doctor.Run(ctx, loaded)
	fmt.Fprintln(r.Stdout, report.String())
	if !report.OK() {
		return 1
	}
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	if err := render.Devices(r.Stdout, devices); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
