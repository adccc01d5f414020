package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const rotatedStampLayout = "20060102-150405"

// Rotation moves the previous app log aside when the process starts.
//
//	app.log -> app-20260116-235959.log (app-20260116-235959-1.log on collision)
type Rotation struct {
	Fs afero.Fs
	// Retain bounds how long rotated logs are kept; <= 0 keeps them all.
	Retain time.Duration
	Now    func() time.Time
}

// RotateFile rotates path on the OS filesystem.
func RotateFile(path string, retain time.Duration) error {
	return Rotation{Fs: afero.NewOsFs(), Retain: retain}.Rotate(path)
}

// Rotate renames a non-empty log at path and prunes expired siblings.
// An empty or missing log is left alone.
func (r Rotation) Rotate(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	fs := r.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	name := logName{dir: filepath.Dir(path), ext: filepath.Ext(path)}
	name.stem = strings.TrimSuffix(filepath.Base(path), name.ext)
	if name.stem == "" {
		return nil
	}

	info, err := fs.Stat(path)
	switch {
	case err == nil && info.Size() > 0:
		target, err := name.free(fs, now)
		if err != nil {
			return err
		}
		if err := fs.Rename(path, target); err != nil {
			return fmt.Errorf("rotate %s: %w", path, err)
		}
	case err != nil && !os.IsNotExist(err):
		return err
	}

	if r.Retain <= 0 {
		return nil
	}
	return name.prune(fs, now.Add(-r.Retain))
}

type logName struct {
	dir, stem, ext string
}

func (n logName) rotated(stamp string, seq int) string {
	if seq == 0 {
		return filepath.Join(n.dir, fmt.Sprintf("%s-%s%s", n.stem, stamp, n.ext))
	}
	return filepath.Join(n.dir, fmt.Sprintf("%s-%s-%d%s", n.stem, stamp, seq, n.ext))
}

// free returns the first rotated name for now that does not exist yet.
func (n logName) free(fs afero.Fs, now time.Time) (string, error) {
	stamp := now.Format(rotatedStampLayout)
	for seq := 0; ; seq++ {
		candidate := n.rotated(stamp, seq)
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// prune removes rotated logs last modified before cutoff. The live log is never touched.
func (n logName) prune(fs afero.Fs, cutoff time.Time) error {
	entries, err := afero.ReadDir(fs, n.dir)
	if err != nil {
		return err
	}
	prefix := n.stem + "-"
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, n.ext) {
			continue
		}
		if e.ModTime().Before(cutoff) {
			_ = fs.Remove(filepath.Join(n.dir, name))
		}
	}
	return nil
}
