package deploy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Shell is the interactive shell whose startup file gets re-sourced after a deploy.
type Shell struct {
	// Name is the executable, e.g. "bash".
	Name string
	// RC is the startup file, e.g. "~/.bashrc".
	RC string
}

// DetectShell identifies the user's shell from a path such as $SHELL.
// Anything that isn't zsh is treated as bash.
func DetectShell(shellPath string) Shell {
	if strings.Contains(filepath.Base(shellPath), "zsh") {
		return Shell{Name: "zsh", RC: "~/.zshrc"}
	}
	return Shell{Name: "bash", RC: "~/.bashrc"}
}

// Command is the command line that re-sources the startup file.
func (s Shell) Command() []string {
	return []string{s.Name, "-c", "source " + s.RC}
}

// ProfileReloader refreshes the user's shell environment after a deploy.
type ProfileReloader func(ctx context.Context) error

// ReloadProfile re-sources the startup file of the shell found in $SHELL.
//
// The shell runs as a child process, so whatever it sources dies with it and
// neither this process nor the parent shell see any change. It's kept as a
// hint for users who expect the step to happen, and its failure is never fatal.
func ReloadProfile() ProfileReloader {
	return func(ctx context.Context) error {
		cmd := DetectShell(os.Getenv("SHELL")).Command()
		return Run(ctx, cmd[0], WithArgs(cmd[1:]...), WithoutNoise())
	}
}
