package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// projectMarkerFile and projectMarkerDir identify a development checkout of the app.
	projectMarkerFile = "go.mod"
	projectMarkerDir  = "frontend"

	// BuildDirName is the packaging output inside a checkout; never used as live data dir.
	BuildDirName = "dist"
)

// Env describes where the process runs.
//
// A nil function, or one that fails, simply contributes no candidate.
type Env struct {
	Getwd      func() (string, error)
	Executable func() (string, error)
}

// OSEnv returns the Env of the running process.
func OSEnv() Env {
	return Env{
		Getwd:      os.Getwd,
		Executable: executablePath,
	}
}

func executablePath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	if realPath, err := filepath.EvalSymlinks(exePath); err == nil {
		exePath = realPath
	}
	return exePath, nil
}

func (e Env) workDir() string {
	if e.Getwd == nil {
		return ""
	}
	cwd, err := e.Getwd()
	if err != nil {
		return ""
	}
	return absPath(cwd)
}

func (e Env) executableDir() string {
	if e.Executable == nil {
		return ""
	}
	exePath, err := e.Executable()
	if err != nil || strings.TrimSpace(exePath) == "" {
		return ""
	}
	return absPath(filepath.Dir(exePath))
}

// Candidates returns the ordered, deduplicated list of data directory candidates.
//
// Order: preferred (explicitly configured) dirs, <project root>/data,
// <executable dir>/data, <cwd>/data. Nothing is checked for writability here.
func Candidates(fs afero.Fs, env Env, preferred ...string) []string {
	cwd := env.workDir()
	exeDir := env.executableDir()
	root := FindProjectRoot(fs, cwd, exeDir)

	set := newCandidateSet(root)
	for _, p := range preferred {
		set.add(p)
	}
	if root != "" {
		set.add(filepath.Join(root, DataDirName))
	}
	if exeDir != "" {
		set.add(filepath.Join(exeDir, DataDirName))
	}
	if cwd != "" {
		set.add(filepath.Join(cwd, DataDirName))
	}
	return set.list
}

type candidateSet struct {
	buildDir string
	seen     map[string]struct{}
	list     []string
}

func newCandidateSet(projectRoot string) *candidateSet {
	s := &candidateSet{seen: make(map[string]struct{}, 4)}
	if projectRoot != "" {
		s.buildDir = filepath.Join(projectRoot, BuildDirName)
	}
	return s
}

func (s *candidateSet) add(p string) {
	p = absPath(p)
	if p == "" {
		return
	}
	if s.buildDir != "" && isWithin(p, s.buildDir) {
		return
	}
	if _, ok := s.seen[p]; ok {
		return
	}
	s.seen[p] = struct{}{}
	s.list = append(s.list, p)
}

// FindProjectRoot walks upward from each base in turn and returns the first
// ancestor that looks like an app checkout, or "" when none does.
func FindProjectRoot(fs afero.Fs, bases ...string) string {
	for _, base := range bases {
		base = absPath(base)
		if base == "" {
			continue
		}
		dir := filepath.Clean(base)
		for {
			if isProjectRoot(fs, dir) {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return ""
}

func isProjectRoot(fs afero.Fs, dir string) bool {
	if _, err := fs.Stat(filepath.Join(dir, projectMarkerFile)); err != nil {
		return false
	}
	info, err := fs.Stat(filepath.Join(dir, projectMarkerDir))
	if err != nil {
		return false
	}
	return info.IsDir()
}

func isWithin(path, base string) bool {
	path = filepath.Clean(path)
	base = filepath.Clean(base)
	if path == base {
		return true
	}
	if !strings.HasSuffix(base, string(os.PathSeparator)) {
		base += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, base)
}

func absPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
