package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"snapshot-compare/internal/snapshot"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

// CommandRunner runs the project's test command with the generate-all flag
// set so that every snapshot test writes its current image.
type CommandRunner struct {
	Command []string
	Dir     string
	// EnvName defaults to snapshot.GenerateEnv.
	EnvName string
	// FailOnExitCode turns a non-zero exit status into an error. By default
	// only a command that cannot be started is an error, since failing tests
	// still write their images.
	FailOnExitCode bool
	Stdout, Stderr io.Writer
	Log            logr.Logger
}

var _ snapshot.TestRunner = (*CommandRunner)(nil)

func (r *CommandRunner) GenerateAllTests(ctx context.Context) error {
	if len(r.Command) == 0 {
		return xerrors.New("no test command configured")
	}

	envName := r.EnvName
	if envName == "" {
		envName = snapshot.GenerateEnv
	}

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), envName+"="+snapshot.GenerateAllMode)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	r.Log.V(1).Info("running test command", "command", r.Command, "dir", r.Dir)
	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		r.Log.Info("test command exited with failures", "exitCode", exitErr.ExitCode())
		if !r.FailOnExitCode {
			return nil
		}
	}
	if err != nil {
		return xerrors.Errorf("failed to run %s: %w", r.Command[0], err)
	}
	return nil
}
