//go:build !windows

package fsops

import "syscall"

var errCrossDevice error = syscall.EXDEV
