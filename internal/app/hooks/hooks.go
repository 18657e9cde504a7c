// Package hooks runs configured shell commands when playback stops.
package hooks

import (
	"io"
	"os"
	"os/exec"

	zlog "github.com/rs/zerolog/log"
)

// Runner executes a list of shell commands.
type Runner struct {
	Stage    string   // Name used in log messages, e.g. "on_stopped"
	Commands []string // Shell commands run with sh -c
	Stdout   io.Writer
	Stderr   io.Writer
}

// NewRunner creates a runner writing command output to the process streams.
func NewRunner(stage string, commands []string) *Runner {
	return &Runner{
		Stage:    stage,
		Commands: commands,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Run executes every command in order. Failures are logged and do not stop
// the remaining commands. It returns the number of commands that failed.
func (r *Runner) Run() int {
	if len(r.Commands) == 0 {
		return 0
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", r.Stage, len(r.Commands))

	failed := 0
	for _, hook := range r.Commands {
		zlog.Info().Msgf("Executing hook: %s", hook)
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
			failed++
		}
	}
	return failed
}

// Listener returns a func suitable for playback.Tracker.AddStoppedListener.
func (r *Runner) Listener() func() {
	return func() {
		_ = r.Run()
	}
}
