// Command shelfdeploy builds shelf and installs it into the platform install
// directory. Without flags it deploys shelf from the current directory.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aexvir/deploy"
	"github.com/aexvir/deploy/gomod"
)

var (
	workdir         string
	program         string
	fromModule      bool
	entry           string
	installDir      string
	strict          bool
	strictPlatform  bool
	copyFallback    bool
	noProfileReload bool
	tags            []string
	ldflags         []string

	rootCmd = &cobra.Command{
		Use:   "shelfdeploy",
		Short: "Build shelf and install the binary",
		Long: `Build shelf and install the binary into the platform install directory,
replacing a previously installed copy.

  windows         C:\shelf\shelf.exe
  linux, darwin   /bin/shelf/shelf

Other platforms are built but nothing gets installed unless --strict-platform
turns that into an error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&workdir, "dir", "C", "", "directory holding the program sources (default: current directory)")
	flags.StringVarP(&program, "program", "p", deploy.DefaultProgram, "name of the program to build and install")
	flags.BoolVar(&fromModule, "from-module", false, "name the program after the module path in go.mod")
	flags.StringVar(&entry, "entry", "", "build entry relative to --dir (default: <program>.go)")
	flags.StringVar(&installDir, "install-dir", "", "override the install directory; supports {{.Name}}")
	flags.BoolVar(&strict, "strict", false, "abort when the build fails")
	flags.BoolVar(&strictPlatform, "strict-platform", false, "fail on platforms without install directory")
	flags.BoolVar(&copyFallback, "copy-fallback", false, "copy the binary when the install directory is on another filesystem")
	flags.BoolVar(&noProfileReload, "no-profile-reload", false, "don't re-source the shell startup file")
	flags.StringSliceVar(&tags, "tags", nil, "build tags passed to go build")
	flags.StringSliceVar(&ldflags, "ldflags", nil, "-X assignments passed to go build, e.g. main.version=1.0.0")

	rootCmd.MarkFlagsMutuallyExclusive("program", "from-module")
}

func run(cmd *cobra.Command, _ []string) error {
	opts := []deploy.Option{
		deploy.WithWorkDir(workdir),
		deploy.WithBuild(
			deploy.GoBuild(
				deploy.WithGoBuildTags(tags...),
				deploy.WithGoBuildLDFlags(ldflags...),
			),
		),
	}

	name := program
	if fromModule {
		dir := workdir
		if dir == "" {
			dir = "."
		}
		modname, err := gomod.ProgramFromModule(dir)
		if err != nil {
			return fmt.Errorf("failed to read program name from go.mod: %w", err)
		}
		name = modname
	}
	opts = append(opts, deploy.WithProgram(name))

	if entry != "" {
		opts = append(opts, deploy.WithEntry(entry))
	}
	if installDir != "" {
		opts = append(opts, deploy.WithInstallDir(installDir))
	}
	if strict {
		opts = append(opts, deploy.WithStrictBuild())
	}
	if strictPlatform {
		opts = append(opts, deploy.WithStrictPlatform())
	}
	if copyFallback {
		opts = append(opts, deploy.WithCopyFallback())
	}
	if noProfileReload {
		opts = append(opts, deploy.WithoutProfileReload())
	}

	_, err := deploy.New(opts...).Deploy(cmd.Context())
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "shelfdeploy:", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
