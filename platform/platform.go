// Package platform maps the host operating system to the install layout
// used when deploying a binary.
package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Platform is the family of operating systems sharing an install convention.
type Platform string

const (
	Windows Platform = "windows"
	Posix   Platform = "posix-like"
	Other   Platform = "other"
)

// Detect returns the platform for an os identifier such as runtime.GOOS
// or the output of uname. Matching is case-insensitive.
func Detect(osname string) Platform {
	switch strings.ToLower(osname) {
	case "windows":
		return Windows
	case "linux", "darwin":
		return Posix
	default:
		return Other
	}
}

// Host returns the platform of the running process.
func Host() Platform {
	return Detect(runtime.GOOS)
}

// IsWindows returns true if the platform is Windows.
func (p Platform) IsWindows() bool {
	return p == Windows
}

// IsPosix returns true if the platform is linux or darwin.
func (p Platform) IsPosix() bool {
	return p == Posix
}

// Layout describes where a program gets installed.
type Layout struct {
	// Dir is the install directory.
	Dir string
	// Name of the program, without extension.
	Name string
	// Extension is ".exe" on windows and empty everywhere else.
	Extension string
}

// Filename is the final name of the binary, extension included.
func (l Layout) Filename() string {
	return l.Name + l.Extension
}

// InstalledPath is the install directory joined with the binary filename.
func (l Layout) InstalledPath() string {
	return filepath.Join(l.Dir, l.Filename())
}

// DefaultLayout returns the fixed install layout for the given platform.
// There is no layout for [Other], in which case ok is false.
func DefaultLayout(p Platform, program string) (layout Layout, ok bool) {
	switch p {
	case Windows:
		return Layout{Dir: `C:\` + program, Name: program, Extension: ".exe"}, true
	case Posix:
		return Layout{Dir: "/bin/" + program, Name: program}, true
	default:
		return Layout{}, false
	}
}
