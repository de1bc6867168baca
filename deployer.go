// Package deploy builds a program and installs the resulting binary into a
// fixed, platform-specific directory, replacing any previously installed copy.
//
// A deploy is a linear pipeline:
//
//	detect → build → ensure dir → remove stale → install → [reload profile] → report
//
// Any stage failure aborts the deploy. Two things do not abort it unless asked:
// a failed build (see [WithStrictBuild]) and a platform without install layout
// (see [WithStrictPlatform]).
//
// Deploys don't coordinate with each other; running two at once against the
// same directories can leave either binary installed, or none.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"

	"github.com/aexvir/deploy/fsops"
	"github.com/aexvir/deploy/platform"
)

// SuccessMessage is printed once the deploy went through.
const SuccessMessage = "Executable successfully deployed!"

// DefaultProgram is the program deployed when none is configured.
const DefaultProgram = "shelf"

var (
	// ErrBuildFailed is returned when the build fails and [WithStrictBuild] is set.
	ErrBuildFailed = errors.New("build failed")
	// ErrUnsupportedPlatform is returned for platforms without install layout when
	// [WithStrictPlatform] is set.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Deployer builds a program and installs it.
type Deployer struct {
	osname     string
	workdir    string
	program    string
	entry      string
	installdir string

	build    BuildFunc
	reloader ProfileReloader

	strictbuild    bool
	strictplatform bool
	copyfallback   bool

	hooks []PipelineOpt

	out io.Writer
	log io.Writer
}

// Report describes what a deploy did.
type Report struct {
	Platform platform.Platform
	// Layout is the zero value on platforms without install layout.
	Layout platform.Layout
	Build  BuildResult

	// DirExisted is true if the install directory was there before the deploy.
	DirExisted bool
	// RemovedStale is true if a previously installed binary was deleted.
	RemovedStale bool
	// InstalledPath is empty if nothing was installed.
	InstalledPath string
	// ProfileErr holds the failure of the profile reload, which is never fatal.
	ProfileErr error
}

// New constructs a deployer for the host platform.
func New(opts ...Option) *Deployer {
	d := Deployer{
		osname:   runtime.GOOS,
		program:  DefaultProgram,
		build:    GoBuild(),
		reloader: ReloadProfile(),
		out:      color.Output,
		log:      color.Error,
	}

	for _, opt := range opts {
		opt(&d)
	}

	if d.entry == "" {
		d.entry = d.program + ".go"
	}

	return &d
}

// Deploy runs the whole pipeline.
// The report is returned even when the deploy fails, holding whatever got done.
func (d *Deployer) Deploy(ctx context.Context) (*Report, error) {
	workdir := d.workdir
	if workdir == "" {
		workdir = "."
	}

	workdir, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	report := Report{Platform: platform.Detect(d.osname)}
	layout, haslayout := platform.DefaultLayout(report.Platform, d.program)

	stages := []Stage{
		{Name: "detect platform", Run: d.detect(&report, &layout, haslayout)},
		{Name: "build " + d.entry, Run: d.runBuild(&report, workdir)},
	}

	if haslayout {
		stages = append(stages,
			Stage{Name: "ensure install directory", Run: d.ensureDirectory(&report, &layout)},
			Stage{Name: "remove stale binary", Run: d.removeStale(&report, &layout)},
			Stage{Name: "install binary", Run: d.install(&report, &layout, workdir)},
		)
	}

	if report.Platform.IsPosix() && d.reloader != nil {
		stages = append(stages, Stage{Name: "reload shell profile", Run: d.reloadProfile(&report)})
	}

	stages = append(stages, Stage{Name: "report", Run: d.reportSuccess})

	popts := append([]PipelineOpt{WithPipelineLog(d.log)}, d.hooks...)
	err = NewPipeline(popts...).Execute(ctx, stages...)
	return &report, err
}

func (d *Deployer) detect(report *Report, layout *platform.Layout, haslayout bool) Task {
	return func(_ context.Context) error {
		logdetail(d.log, fmt.Sprintf("%s is %s", d.osname, report.Platform))

		if !haslayout {
			if d.strictplatform {
				return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, d.osname)
			}
			logwarn(d.log, fmt.Sprintf("no install location known for %s; nothing will be installed", d.osname))
			return nil
		}

		if d.installdir != "" {
			dir, err := layout.Resolve(d.installdir)
			if err != nil {
				return fmt.Errorf("invalid install directory %q: %w", d.installdir, err)
			}
			layout.Dir = dir
		}

		report.Layout = *layout
		logdetail(d.log, fmt.Sprintf("installing to %s", layout.InstalledPath()))
		return nil
	}
}

func (d *Deployer) runBuild(report *Report, workdir string) Task {
	return func(ctx context.Context) error {
		output := d.program
		if report.Platform.IsWindows() {
			output += ".exe"
		}

		report.Build = d.build(ctx, BuildEnv{
			WorkDir: workdir,
			Entry:   d.entry,
			Output:  output,
			Log:     d.log,
		})

		if report.Build.OK() {
			return nil
		}

		if d.strictbuild {
			return fmt.Errorf("%w: %s", ErrBuildFailed, report.Build)
		}

		logwarn(d.log, fmt.Sprintf("%s; continuing with whatever binary is in %s", report.Build, workdir))
		return nil
	}
}

func (d *Deployer) ensureDirectory(report *Report, layout *platform.Layout) Task {
	return func(_ context.Context) error {
		existed, err := fsops.EnsureDirectory(layout.Dir, fsops.WithLog(d.log))
		report.DirExisted = existed
		return err
	}
}

func (d *Deployer) removeStale(report *Report, layout *platform.Layout) Task {
	return func(_ context.Context) error {
		removed, err := fsops.RemoveStale(layout.Dir, layout.Filename(), report.DirExisted, fsops.WithLog(d.log))
		report.RemovedStale = removed
		return err
	}
}

func (d *Deployer) install(report *Report, layout *platform.Layout, workdir string) Task {
	return func(_ context.Context) error {
		opts := []fsops.Option{fsops.WithLog(d.log)}
		if d.copyfallback {
			opts = append(opts, fsops.WithCopyFallback())
		}

		target := layout.InstalledPath()
		if err := fsops.Move(filepath.Join(workdir, layout.Filename()), target, opts...); err != nil {
			return err
		}

		report.InstalledPath = target
		return nil
	}
}

func (d *Deployer) reloadProfile(report *Report) Task {
	return func(ctx context.Context) error {
		if err := d.reloader(ctx); err != nil {
			report.ProfileErr = err
			logwarn(d.log, fmt.Sprintf("shell profile reload failed: %s", err))
		}
		return nil
	}
}

func (d *Deployer) reportSuccess(_ context.Context) error {
	_, err := fmt.Fprintln(d.out, SuccessMessage)
	return err
}

// Deploy builds and installs the default program on the host with default settings.
func Deploy(ctx context.Context) error {
	_, err := New().Deploy(ctx)
	return err
}
