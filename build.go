package deploy

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// BuildEnv is what a [BuildFunc] gets to know about the build it has to run.
type BuildEnv struct {
	// WorkDir is where the build runs and where the binary must end up.
	WorkDir string
	// Entry is the source the program is built from, e.g. "shelf.go".
	Entry string
	// Output is the filename of the binary, e.g. "shelf" or "shelf.exe".
	Output string
	// Log receives the build output.
	Log io.Writer
}

// BuildResult is the outcome of an external build. A failed build is not an
// error by itself; the caller decides whether it's fatal.
type BuildResult struct {
	Command  string
	ExitCode int
	Err      error
}

// OK returns true if the build succeeded.
func (r BuildResult) OK() bool {
	return r.Err == nil
}

func (r BuildResult) String() string {
	if r.OK() {
		return fmt.Sprintf("%s: ok", r.Command)
	}
	return fmt.Sprintf("%s: exit code %d: %s", r.Command, r.ExitCode, r.Err)
}

// BuildFunc produces the binary described by the env.
type BuildFunc func(ctx context.Context, env BuildEnv) BuildResult

// GoBuild builds the entry with the go toolchain, outputting the binary inside the
// working directory.
// The go build command can be customized with build tags and ldflags via GoBuildOpt arguments.
func GoBuild(opts ...GoBuildOpt) BuildFunc {
	var conf buildconf

	for _, opt := range opts {
		opt(&conf)
	}

	return func(ctx context.Context, env BuildEnv) BuildResult {
		args := []string{"build", "-o", env.Output}

		if len(conf.tags) > 0 {
			args = append(args, "-tags", strings.Join(conf.tags, ","))
		}

		if len(conf.ldflags) > 0 {
			flags := make([]string, 0, len(conf.ldflags))
			for _, flag := range conf.ldflags {
				flags = append(flags, fmt.Sprintf("-X '%s'", flag))
			}
			args = append(args, "-ldflags", strings.Join(flags, " "))
		}

		args = append(args, env.Entry)

		runopts := []RunnerOpt{
			WithArgs(args...),
			WithDir(env.WorkDir),
			WithAllowErrors(),
		}
		if env.Log != nil {
			runopts = append(runopts, WithLogWriter(env.Log), WithStdOut(env.Log), WithStdErr(env.Log))
		}

		rnr, err := Cmd(ctx, "go", runopts...)
		if err != nil {
			return BuildResult{Command: "go " + strings.Join(args, " "), ExitCode: -1, Err: err}
		}

		res := BuildResult{Command: rnr.String()}
		_ = rnr.Exec()

		res.ExitCode = rnr.ExitCode()
		switch res.ExitCode {
		case 0:
		case -1:
			res.Err = fmt.Errorf("go build could not be started")
		default:
			res.Err = fmt.Errorf("go build exited with code %d", res.ExitCode)
		}

		return res
	}
}

type buildconf struct {
	tags    []string
	ldflags []string
}

type GoBuildOpt func(c *buildconf)

// WithGoBuildTags allows specifying build tags for the go build command.
func WithGoBuildTags(tags ...string) GoBuildOpt {
	return func(c *buildconf) {
		c.tags = tags
	}
}

// WithGoBuildLDFlags allows specifying ldflags for the go build command.
// Each flag is passed as a -X assignment, e.g. "main.version=1.2.3".
func WithGoBuildLDFlags(flags ...string) GoBuildOpt {
	return func(c *buildconf) {
		c.ldflags = flags
	}
}
