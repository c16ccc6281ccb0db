// Package sink delivers pcc's combined output to the clipboard, a file or a
// writer such as stdout.
package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"github.com/matzehuels/pcc/pkg/config"
	"github.com/matzehuels/pcc/pkg/errors"
)

// Sink receives the rendered output of one run.
type Sink interface {
	Write(ctx context.Context, data []byte) error
	// String describes the destination for log messages.
	String() string
}

// New returns the sink for a config action. path is only used by
// [config.ActionSave]; an empty action prints to stdout.
func New(action, path string, stdout io.Writer) (Sink, error) {
	switch action {
	case config.ActionCopy:
		return NewClipboard(), nil
	case config.ActionSave:
		return NewFile(path), nil
	case config.ActionPrint, "":
		return NewWriter(stdout, "stdout"), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown action %q", action)
	}
}

// Clipboard copies output to the system clipboard.
type Clipboard struct {
	writeAll func(string) error
}

// NewClipboard returns a sink backed by the system clipboard.
func NewClipboard() *Clipboard { return &Clipboard{writeAll: clipboard.WriteAll} }

func (c *Clipboard) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.writeAll(string(data)); err != nil {
		return errors.Wrap(errors.ErrCodeClipboard, err, "copy to clipboard")
	}
	return nil
}

func (c *Clipboard) String() string { return "clipboard" }

// File writes output to a path, creating parent directories as needed.
type File struct {
	path string
}

// NewFile returns a sink writing to path. A leading "~" is expanded.
func NewFile(path string) *File { return &File{path: path} }

func (f *File) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := config.ExpandHome(f.path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

func (f *File) String() string { return f.path }

// Writer writes output to an io.Writer.
type Writer struct {
	w    io.Writer
	name string
}

// NewWriter returns a sink writing to w, described as name.
func NewWriter(w io.Writer, name string) *Writer { return &Writer{w: w, name: name} }

func (w *Writer) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", w.name)
	}
	return nil
}

func (w *Writer) String() string { return w.name }
