package deploy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aexvir/deploy/platform"
)

// fakeBuild writes a binary with the given content into the working directory,
// the way go build would.
func fakeBuild(content string) BuildFunc {
	return func(_ context.Context, env BuildEnv) BuildResult {
		path := filepath.Join(env.WorkDir, env.Output)
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return BuildResult{Command: "fake", ExitCode: 1, Err: err}
		}
		return BuildResult{Command: "fake"}
	}
}

func failedBuild(_ context.Context, _ BuildEnv) BuildResult {
	return BuildResult{Command: "fake", ExitCode: 1, Err: errors.New("compile error")}
}

type fixture struct {
	workdir    string
	installdir string
	out        *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return fixture{
		workdir:    t.TempDir(),
		installdir: filepath.Join(t.TempDir(), "shelf"),
		out:        &bytes.Buffer{},
	}
}

func (f fixture) deployer(osname string, opts ...Option) *Deployer {
	base := []Option{
		WithOS(osname),
		WithWorkDir(f.workdir),
		WithInstallDir(f.installdir),
		WithoutProfileReload(),
		WithOutput(f.out),
		WithLog(io.Discard),
	}
	return New(append(base, opts...)...)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDeployPosix(t *testing.T) {
	f := newFixture(t)

	report, err := f.deployer("linux", WithBuild(fakeBuild("v1"))).Deploy(context.Background())
	require.NoError(t, err)

	installed := filepath.Join(f.installdir, "shelf")
	assert.Equal(t, platform.Posix, report.Platform)
	assert.False(t, report.DirExisted)
	assert.False(t, report.RemovedStale)
	assert.Equal(t, installed, report.InstalledPath)

	assert.DirExists(t, f.installdir)
	assert.Equal(t, "v1", readFile(t, installed))
	assert.NoFileExists(t, filepath.Join(f.workdir, "shelf"))
	assert.Equal(t, SuccessMessage+"\n", f.out.String())
}

func TestDeployRerunReplacesStaleBinary(t *testing.T) {
	f := newFixture(t)

	_, err := f.deployer("darwin", WithBuild(fakeBuild("v1"))).Deploy(context.Background())
	require.NoError(t, err)

	report, err := f.deployer("darwin", WithBuild(fakeBuild("v2"))).Deploy(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DirExisted)
	assert.True(t, report.RemovedStale)

	entries, err := os.ReadDir(f.installdir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "shelf", entries[0].Name())
	assert.Equal(t, "v2", readFile(t, filepath.Join(f.installdir, "shelf")))
	assert.Equal(t, SuccessMessage+"\n"+SuccessMessage+"\n", f.out.String())
}

func TestDeployWindowsNaming(t *testing.T) {
	f := newFixture(t)

	report, err := f.deployer("Windows", WithBuild(fakeBuild("win"))).Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, platform.Windows, report.Platform)
	assert.Equal(t, "shelf.exe", report.Layout.Filename())
	assert.Equal(t, "win", readFile(t, filepath.Join(f.installdir, "shelf.exe")))
	assert.NoFileExists(t, filepath.Join(f.workdir, "shelf.exe"))
}

func TestDeployUnknownPlatform(t *testing.T) {
	t.Run("reports success without touching the filesystem",
		func(t *testing.T) {
			f := newFixture(t)

			report, err := f.deployer("freebsd", WithBuild(fakeBuild("bsd"))).Deploy(context.Background())
			require.NoError(t, err)

			assert.Equal(t, platform.Other, report.Platform)
			assert.Empty(t, report.InstalledPath)
			assert.NoDirExists(t, f.installdir)
			assert.FileExists(t, filepath.Join(f.workdir, "shelf"))
			assert.Equal(t, SuccessMessage+"\n", f.out.String())
		},
	)

	t.Run("fails when strict",
		func(t *testing.T) {
			f := newFixture(t)

			_, err := f.deployer("freebsd", WithBuild(fakeBuild("bsd")), WithStrictPlatform()).Deploy(context.Background())
			assert.ErrorIs(t, err, ErrUnsupportedPlatform)
			assert.Empty(t, f.out.String())
		},
	)
}

func TestDeployFailedBuild(t *testing.T) {
	t.Run("carries on with a stale binary in the working directory",
		func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, os.WriteFile(filepath.Join(f.workdir, "shelf"), []byte("old build"), 0o755))

			report, err := f.deployer("linux", WithBuild(failedBuild)).Deploy(context.Background())
			require.NoError(t, err)

			assert.False(t, report.Build.OK())
			assert.Equal(t, "old build", readFile(t, filepath.Join(f.installdir, "shelf")))
			assert.Equal(t, SuccessMessage+"\n", f.out.String())
		},
	)

	t.Run("fails at the install step when nothing was built",
		func(t *testing.T) {
			f := newFixture(t)

			report, err := f.deployer("linux", WithBuild(failedBuild)).Deploy(context.Background())
			assert.Error(t, err)
			assert.ErrorIs(t, err, os.ErrNotExist)
			assert.Empty(t, report.InstalledPath)
			assert.Empty(t, f.out.String())
		},
	)

	t.Run("strict build aborts before touching the install directory",
		func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, os.WriteFile(filepath.Join(f.workdir, "shelf"), []byte("old build"), 0o755))

			_, err := f.deployer("linux", WithBuild(failedBuild), WithStrictBuild()).Deploy(context.Background())
			assert.ErrorIs(t, err, ErrBuildFailed)
			assert.NoDirExists(t, f.installdir)
			assert.FileExists(t, filepath.Join(f.workdir, "shelf"))
			assert.Empty(t, f.out.String())
		},
	)
}

func TestDeployMissingInstallParent(t *testing.T) {
	f := newFixture(t)
	f.installdir = filepath.Join(t.TempDir(), "missing", "shelf")

	_, err := f.deployer("linux", WithBuild(fakeBuild("v1"))).Deploy(context.Background())
	assert.Error(t, err)
	assert.FileExists(t, filepath.Join(f.workdir, "shelf"))
	assert.Empty(t, f.out.String())
}

func TestDeployProfileReload(t *testing.T) {
	t.Run("runs on posix and failures are not fatal",
		func(t *testing.T) {
			f := newFixture(t)
			calls := 0

			report, err := f.deployer(
				"linux",
				WithBuild(fakeBuild("v1")),
				WithProfileReloader(func(_ context.Context) error {
					calls++
					return errors.New("no bashrc")
				}),
			).Deploy(context.Background())

			require.NoError(t, err)
			assert.Equal(t, 1, calls)
			assert.EqualError(t, report.ProfileErr, "no bashrc")
			assert.Equal(t, SuccessMessage+"\n", f.out.String())
		},
	)

	t.Run("never runs on windows",
		func(t *testing.T) {
			f := newFixture(t)
			calls := 0

			_, err := f.deployer(
				"windows",
				WithBuild(fakeBuild("v1")),
				WithProfileReloader(func(_ context.Context) error { calls++; return nil }),
			).Deploy(context.Background())

			require.NoError(t, err)
			assert.Zero(t, calls)
		},
	)
}

func TestDeployInstallDirTemplate(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()

	report, err := f.deployer(
		"linux",
		WithBuild(fakeBuild("v1")),
		WithProgram("tool"),
		WithInstallDir(filepath.Join(root, "{{.Name}}-bin")),
	).Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "tool-bin", "tool"), report.InstalledPath)
	assert.FileExists(t, report.InstalledPath)
}

func TestNewDefaults(t *testing.T) {
	d := New()

	assert.Equal(t, DefaultProgram, d.program)
	assert.Equal(t, "shelf.go", d.entry)
	assert.NotNil(t, d.build)
	assert.NotNil(t, d.reloader)

	d = New(WithProgram("tool"), WithoutProfileReload())
	assert.Equal(t, "tool.go", d.entry)
	assert.Nil(t, d.reloader)
}

func TestDeployLogWriter(t *testing.T) {
	f := newFixture(t)
	var log bytes.Buffer

	_, err := f.deployer("linux", WithBuild(fakeBuild("v1")), WithLog(&log)).Deploy(context.Background())
	require.NoError(t, err)

	assert.Contains(t, log.String(), "creating "+f.installdir)
	assert.Contains(t, log.String(), "moving "+filepath.Join(f.workdir, "shelf"))

	_, err = f.deployer("linux", WithBuild(fakeBuild("v2")), WithLog(&log)).Deploy(context.Background())
	require.NoError(t, err)
	assert.Contains(t, log.String(), "removing stale "+filepath.Join(f.installdir, "shelf"))
}

func TestDeployHooks(t *testing.T) {
	t.Run("wrap the stages",
		func(t *testing.T) {
			f := newFixture(t)
			var calls []string

			_, err := f.deployer(
				"linux",
				WithBuild(func(ctx context.Context, env BuildEnv) BuildResult {
					calls = append(calls, "build")
					return fakeBuild("v1")(ctx, env)
				}),
				WithPreDeployFunc(func(_ context.Context) error { calls = append(calls, "pre"); return nil }),
				WithPostDeployFunc(func(_ context.Context) error { calls = append(calls, "post"); return nil }),
			).Deploy(context.Background())

			require.NoError(t, err)
			assert.Equal(t, []string{"pre", "build", "post"}, calls)
		},
	)

	t.Run("failing pre hook stops the deploy",
		func(t *testing.T) {
			f := newFixture(t)

			_, err := f.deployer(
				"linux",
				WithBuild(fakeBuild("v1")),
				WithPreDeployFunc(func(_ context.Context) error { return errors.New("no modules") }),
			).Deploy(context.Background())

			assert.ErrorContains(t, err, "no modules")
			assert.NoFileExists(t, filepath.Join(f.workdir, "shelf"))
			assert.Empty(t, f.out.String())
		},
	)
}
