package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// TaskRunner holds the metadata for a specific command.
type TaskRunner struct {
	Executable string
	Arguments  []string

	cmd      *exec.Cmd
	log      io.Writer
	okmsg    string
	errmsg   string
	quiet    bool
	allowerr bool
	exitcode int
}

// Cmd builds a command runner for a specific Executable.
// Relative executables are resolved against the current directory before any
// [WithDir] option changes where the command runs.
func Cmd(ctx context.Context, executable string, opts ...RunnerOpt) (*TaskRunner, error) {
	executable = resolveExecutable(executable)

	cmd := exec.CommandContext(ctx, executable)

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	r := TaskRunner{
		Executable: executable,
		cmd:        cmd,
		log:        color.Error,
		exitcode:   -1,
	}

	for _, opt := range opts {
		err := opt(&r)
		if err != nil {
			return nil, err
		}
	}

	cmd.Args = append([]string{executable}, r.Arguments...)

	return &r, nil
}

// Exec a command returning its error and pretty printing the ok and error messages.
func (r *TaskRunner) Exec() error {
	var err error

	start := time.Now()
	defer func() {
		if r.quiet {
			return
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			color.New(color.FgRed).Fprintf(r.log, " ✘ %s\n\n", elapsed)
			return
		}
		color.New(color.FgGreen).Fprintf(r.log, " ✔ %s\n\n", elapsed)
	}()

	if !r.quiet {
		logstep(r.log, r.String())
	}

	err = r.cmd.Run()
	r.exitcode = exitCode(err)

	if !r.allowerr && err != nil {
		if !r.quiet && r.errmsg != "" {
			color.New(color.FgRed).Fprintln(r.log, r.errmsg)
		}
		return fmt.Errorf("%s: %w", r.Executable, err)
	}

	if !r.quiet && r.okmsg != "" {
		color.New(color.FgGreen).Fprintln(r.log, r.okmsg)
	}

	return nil
}

// ExitCode returns the exit code of the last [TaskRunner.Exec].
// It's -1 if the command didn't run or couldn't be started.
func (r *TaskRunner) ExitCode() int {
	return r.exitcode
}

// String returns the command line as it gets executed.
func (r *TaskRunner) String() string {
	return strings.TrimSpace(fmt.Sprint(filepath.Base(r.Executable), " ", strings.Join(r.Arguments, " ")))
}

// Run is a helper function to avoid repetition while gracefully handling errors.
func Run(ctx context.Context, program string, opts ...RunnerOpt) error {
	rnr, err := Cmd(ctx, program, opts...)
	if err != nil {
		return err
	}

	return rnr.Exec()
}

func resolveExecutable(executable string) string {
	if filepath.IsAbs(executable) {
		return executable
	}

	if strings.ContainsRune(executable, filepath.Separator) || strings.ContainsRune(executable, '/') {
		if abs, err := filepath.Abs(executable); err == nil {
			return abs
		}
		return executable
	}

	if found, err := exec.LookPath(executable); err == nil {
		if abs, err := filepath.Abs(found); err == nil {
			return abs
		}
		return found
	}

	return executable
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exiterr *exec.ExitError
	if errors.As(err, &exiterr) {
		return exiterr.ExitCode()
	}

	return -1
}

// fancy-ish log of a task step.
func logstep(w io.Writer, text string) {
	fmt.Fprintln(
		w,
		color.MagentaString(" ⌘"),
		color.New(color.Bold).Sprint(text),
	)
}

// RunnerOpt allows customizing the behavior of the command runner.
type RunnerOpt func(r *TaskRunner) error

// WithEnv sets up environment variables for the command.
func WithEnv(vars ...string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.cmd.Env = os.Environ()
		for _, vrb := range vars {
			items := strings.SplitN(vrb, "=", 2)
			if len(items) != 2 || items[0] == "" {
				return fmt.Errorf("invalid env format; %s doesn't match NAME=value expectation", vrb)
			}
			r.cmd.Env = append(r.cmd.Env, vrb)
		}
		return nil
	}
}

// WithArgs command arguments.
func WithArgs(args ...string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.Arguments = args
		return nil
	}
}

// WithOKMsg sets a message to be printed when the command finishes successfully.
func WithOKMsg(msg string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.okmsg = msg
		return nil
	}
}

// WithErrMsg sets a message to be printed when the command fails.
func WithErrMsg(msg string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.errmsg = msg
		return nil
	}
}

// WithDir sets the directory where the command should be run inside.
func WithDir(dir string) RunnerOpt {
	return func(r *TaskRunner) error {
		if dir == "" {
			return nil
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve dir %s: %w", dir, err)
		}
		r.cmd.Dir = abs
		return nil
	}
}

// WithoutNoise silences all output for the command; useful when handling that on the caller side.
func WithoutNoise() RunnerOpt {
	return func(r *TaskRunner) error {
		r.quiet = true
		r.cmd.Stdout = nil
		r.cmd.Stderr = nil

		return nil
	}
}

// WithStdOut set up stdout writer.
func WithStdOut(w io.Writer) RunnerOpt {
	return func(r *TaskRunner) error {
		r.cmd.Stdout = w
		return nil
	}
}

// WithStdErr set up stderr writer.
func WithStdErr(w io.Writer) RunnerOpt {
	return func(r *TaskRunner) error {
		r.cmd.Stderr = w
		return nil
	}
}

// WithStdIn set up stdin reader.
func WithStdIn(read io.Reader) RunnerOpt {
	return func(r *TaskRunner) error {
		r.cmd.Stdin = read
		return nil
	}
}

// WithLogWriter sets where the step line and timing footer are printed.
func WithLogWriter(w io.Writer) RunnerOpt {
	return func(r *TaskRunner) error {
		r.log = w
		return nil
	}
}

// WithAllowErrors allow errors in the command.
// The exit code is still available through [TaskRunner.ExitCode].
func WithAllowErrors() RunnerOpt {
	return func(r *TaskRunner) error {
		r.allowerr = true
		return nil
	}
}
