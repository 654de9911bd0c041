package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// ExitFailure is returned when the child could not be started.
const ExitFailure = 1

// Runner starts the Junie binary with the launcher's standard streams.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Signals are forwarded to the child while it runs.
	Signals []os.Signal
	Logger  zerolog.Logger
}

// NewRunner returns a Runner wired to the process's own stdio that forwards
// SIGINT and SIGTERM.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		Logger:  logger.With().Str("component", "launcher").Logger(),
	}
}

// Run executes exe with args and waits for it. The returned code is the
// child's exit code, or 128+signal when the child was killed by a signal.
// When the child cannot be started Run returns ExitFailure and the error.
// Cancelling ctx sends SIGTERM to the child.
func (r *Runner) Run(ctx context.Context, exe string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}

	r.Logger.Debug().Str("binary", exe).Strs("args", args).Msg("starting junie")

	if err := cmd.Start(); err != nil {
		return ExitFailure, fmt.Errorf("start %s: %w", exe, err)
	}

	if len(r.Signals) > 0 {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, r.Signals...)
		done := make(chan struct{})
		defer func() {
			signal.Stop(sigCh)
			close(done)
		}()

		go func() {
			for {
				select {
				case sig := <-sigCh:
					r.Logger.Debug().Str("signal", sig.String()).Msg("forwarding signal")
					if err := cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
						r.Logger.Warn().Err(err).Msg("failed to forward signal")
					}
				case <-done:
					return
				}
			}
		}()
	}

	err := cmd.Wait()
	code := exitCode(cmd.ProcessState)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// I/O copy failures when stdio is not an *os.File
			r.Logger.Warn().Err(err).Msg("child finished with error")
		}
	}
	return code, nil
}

// exitCode maps a finished process to the code the launcher exits with.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return ExitFailure
	}
	if code := state.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ExitFailure
}
