package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ErrCrossDevice is returned by [Move] when source and destination live on
// different filesystems and the copy fallback wasn't enabled.
var ErrCrossDevice = errors.New("source and destination are on different devices")

//nolint:gochecknoglobals // Test seam for os.Rename().
var rename = os.Rename

type conf struct {
	log          io.Writer
	copyfallback bool
}

func newconf(opts []Option) conf {
	c := conf{log: color.Error}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option customizes the filesystem operations.
type Option func(c *conf)

// WithLog sets where progress lines are written. Defaults to stderr.
func WithLog(w io.Writer) Option {
	return func(c *conf) {
		c.log = w
	}
}

// WithCopyFallback makes [Move] copy the file and then remove the source
// when a plain rename can't cross filesystems.
func WithCopyFallback() Option {
	return func(c *conf) {
		c.copyfallback = true
	}
}

// Move renames src to dst.
// It fails if src doesn't exist or the parent directory of dst doesn't exist.
// Cross-device renames fail with [ErrCrossDevice] unless [WithCopyFallback]
// is passed.
func Move(src, dst string, opts ...Option) error {
	cfg := newconf(opts)

	logdetail(cfg.log, fmt.Sprintf("moving %s to %s", src, dst))

	err := rename(src, dst)
	if err == nil {
		return nil
	}

	if !isCrossDevice(err) {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}

	if !cfg.copyfallback {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, ErrCrossDevice)
	}

	if err := copyFile(cfg.log, src, dst); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("copied to %s but failed to remove %s: %w", dst, src, err)
	}

	return nil
}

// copyFile copies src into a temporary file next to dst and renames it into
// place once synced, so dst is either absent or complete.
// The permission bits of src are kept.
func copyFile(log io.Writer, src, dst string) (err error) {
	logdetail(log, "rename not possible across devices; copying instead")

	start := time.Now()
	defer func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			color.New(color.FgRed).Fprintf(log, "     ✘ %s\n", elapsed)
			return
		}
		color.New(color.FgGreen).Fprintf(log, "     ✔ %s\n", elapsed)
	}()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file next to %s: %w", dst, err)
	}
	tmppath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmppath)
		}
	}()

	data, finish := progress(log, in, info.Size())
	_, err = io.Copy(tmp, data)
	finish()
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to copy data to %s: %w", tmppath, err)
	}

	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmppath, err)
	}

	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmppath, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", tmppath, err)
	}

	return os.Rename(tmppath, dst)
}

// progress wraps an io.Reader to display a progress bar when the log writer is a terminal.
// Returns the wrapped reader and a function to finalize the progress display.
func progress(log io.Writer, reader io.Reader, size int64) (io.Reader, func()) {
	file, ok := log.(interface{ Fd() uintptr })
	if !ok || (!isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd())) {
		return reader, func() {}
	}

	bar := pb.
		New64(size).
		SetTemplate(
			pb.ProgressBarTemplate(
				color.New(color.FgHiBlack).Sprint(
					`   └ {{counters . }}` +
						` {{bar . "[" "=" ">" " " "]" }} {{percent . }}` +
						` {{speed . }}`,
				),
			),
		).
		SetWriter(log).
		SetRefreshRate(time.Second / 60).
		SetMaxWidth(100).
		Start()

	return bar.NewProxyReader(reader), func() { bar.Finish() }
}

func logdetail(w io.Writer, text string) {
	fmt.Fprintln(
		w,
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, errCrossDevice)
}
