package deploy

import (
	"io"
)

type Option func(d *Deployer)

// WithOS overrides the os identifier the platform is detected from.
// Matching is case-insensitive, so "Linux" and "linux" are equivalent.
func WithOS(osname string) Option {
	return func(d *Deployer) {
		d.osname = osname
	}
}

// WithWorkDir sets the directory holding the program sources and, after the
// build, the binary. Defaults to the current directory.
func WithWorkDir(dir string) Option {
	return func(d *Deployer) {
		d.workdir = dir
	}
}

// WithProgram sets the name of the program being deployed. Defaults to "shelf".
func WithProgram(name string) Option {
	return func(d *Deployer) {
		d.program = name
	}
}

// WithEntry sets the build entry relative to the working directory.
// Defaults to the program name with a .go extension.
func WithEntry(entry string) Option {
	return func(d *Deployer) {
		d.entry = entry
	}
}

// WithInstallDir replaces the platform install directory.
// The value is resolved as a template against the install layout, so
// "/opt/{{.Name}}" becomes "/opt/shelf".
func WithInstallDir(format string) Option {
	return func(d *Deployer) {
		d.installdir = format
	}
}

// WithBuild replaces the go build invocation.
func WithBuild(build BuildFunc) Option {
	return func(d *Deployer) {
		d.build = build
	}
}

// WithStrictBuild aborts the deploy when the build fails instead of carrying on
// with whatever binary is lying in the working directory.
func WithStrictBuild() Option {
	return func(d *Deployer) {
		d.strictbuild = true
	}
}

// WithStrictPlatform fails the deploy on platforms without an install layout
// instead of reporting success without doing anything.
func WithStrictPlatform() Option {
	return func(d *Deployer) {
		d.strictplatform = true
	}
}

// WithCopyFallback lets the install step copy the binary when the install
// directory is on a different filesystem than the working directory.
func WithCopyFallback() Option {
	return func(d *Deployer) {
		d.copyfallback = true
	}
}

// WithoutProfileReload skips re-sourcing the shell startup file on posix-like systems.
func WithoutProfileReload() Option {
	return func(d *Deployer) {
		d.reloader = nil
	}
}

// WithProfileReloader replaces the shell profile reload step.
func WithProfileReloader(reloader ProfileReloader) Option {
	return func(d *Deployer) {
		d.reloader = reloader
	}
}

// WithPreDeployFunc runs hook before the first stage of the deploy.
func WithPreDeployFunc(hook Task) Option {
	return func(d *Deployer) {
		d.hooks = append(d.hooks, WithPreExecFunc(hook))
	}
}

// WithPostDeployFunc runs hook once every stage of the deploy succeeded.
func WithPostDeployFunc(hook Task) Option {
	return func(d *Deployer) {
		d.hooks = append(d.hooks, WithPostExecFunc(hook))
	}
}

// WithOutput sets where the success message is written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Deployer) {
		d.out = w
	}
}

// WithLog sets where progress is written. Defaults to stderr.
func WithLog(w io.Writer) Option {
	return func(d *Deployer) {
		d.log = w
	}
}
