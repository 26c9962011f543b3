package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/twpayne/go-vfs"
)

var ErrNoWorkspace = errors.New("no workspace is bound to this run")

// Error is returned for any workspace file access failure.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Workspace is the directory files of one run are read from and written to.
type Workspace struct {
	FS  vfs.FS
	Dir string
}

func New(dir string, fs vfs.FS) *Workspace {
	if fs == nil {
		fs = vfs.HostOSFS
	}
	return &Workspace{FS: fs, Dir: dir}
}

// Path resolves rel against the workspace directory. Absolute paths are kept as they are.
func (w *Workspace) Path(rel string) (string, error) {
	if w == nil || w.Dir == "" {
		return "", ErrNoWorkspace
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel), nil
	}
	return filepath.Join(w.Dir, rel), nil
}

func (w *Workspace) ReadFile(rel string) ([]byte, error) {
	p, err := w.Path(rel)
	if err != nil {
		return nil, &Error{Op: "read", Path: rel, Err: err}
	}

	bs, err := w.FS.ReadFile(p)
	if err != nil {
		return nil, &Error{Op: "read", Path: p, Err: err}
	}

	return bs, nil
}

func (w *Workspace) WriteFile(rel string, data []byte) error {
	p, err := w.Path(rel)
	if err != nil {
		return &Error{Op: "write", Path: rel, Err: err}
	}

	if err := vfs.MkdirAll(w.FS, filepath.Dir(p), 0755); err != nil {
		return &Error{Op: "write", Path: p, Err: err}
	}

	if err := w.FS.WriteFile(p, data, 0644); err != nil {
		return &Error{Op: "write", Path: p, Err: err}
	}

	return nil
}

// Exists reports whether rel names an existing file in the workspace.
func (w *Workspace) Exists(rel string) bool {
	p, err := w.Path(rel)
	if err != nil {
		return false
	}
	_, err = w.FS.Stat(p)
	return err == nil || !os.IsNotExist(err)
}
