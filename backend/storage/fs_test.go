package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// denyFs wraps an afero.Fs and refuses writes under selected prefixes.
type denyFs struct {
	afero.Fs

	mu        sync.Mutex
	denied    []string
	mkdirs    map[string]int
	openFiles int
}

func newDenyFs(base afero.Fs) *denyFs {
	return &denyFs{Fs: base, mkdirs: make(map[string]int)}
}

func (d *denyFs) deny(prefix string) {
	d.mu.Lock()
	d.denied = append(d.denied, prefix)
	d.mu.Unlock()
}

func (d *denyFs) isDenied(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.denied {
		if isWithin(path, p) {
			return true
		}
	}
	return false
}

func (d *denyFs) mkdirCount(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mkdirs[path]
}

func (d *denyFs) MkdirAll(path string, perm os.FileMode) error {
	d.mu.Lock()
	d.mkdirs[path]++
	d.mu.Unlock()
	if d.isDenied(path) {
		return &os.PathError{Op: "mkdir", Path: path, Err: os.ErrPermission}
	}
	return d.Fs.MkdirAll(path, perm)
}

func (d *denyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	d.mu.Lock()
	d.openFiles++
	d.mu.Unlock()
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 && d.isDenied(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

func (d *denyFs) Create(name string) (afero.File, error) {
	return d.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// mkTree creates directories and empty files on fs; names ending in "/" are directories.
func mkTree(fs afero.Fs, paths ...string) {
	for _, p := range paths {
		if strings.HasSuffix(p, "/") {
			_ = fs.MkdirAll(p, 0o755)
			continue
		}
		_ = fs.MkdirAll(filepath.Dir(p), 0o755)
		_ = afero.WriteFile(fs, p, nil, 0o644)
	}
}

func envAt(cwd, exe string) *Env {
	env := &Env{}
	if cwd != "" {
		env.Getwd = func() (string, error) { return cwd, nil }
	}
	if exe != "" {
		env.Executable = func() (string, error) { return exe, nil }
	}
	return env
}
