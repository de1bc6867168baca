// Package gomod reads metadata out of the go.mod of the program being deployed.
package gomod

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ProgramFromModule returns the program name implied by the go.mod found in dir,
// which is the last element of the module path with any major version suffix
// stripped; "github.com/foo/shelf/v2" names the program "shelf".
func ProgramFromModule(dir string) (string, error) {
	file := filepath.Join(dir, "go.mod")

	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}

	modpath := modfile.ModulePath(data)
	if modpath == "" {
		return "", fmt.Errorf("no module directive in %s", file)
	}

	prefix, _, ok := module.SplitPathVersion(modpath)
	if !ok {
		return "", fmt.Errorf("invalid module path %q in %s", modpath, file)
	}

	name := path.Base(prefix)
	if name == "." || name == "/" {
		return "", errors.New("module path doesn't name a program")
	}

	return name, nil
}
