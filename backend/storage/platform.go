package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// LocalDataDir returns the per-user local application data directory for appID.
//
//   - Windows: %LOCALAPPDATA%\<appID>
//   - macOS:   ~/Library/Application Support/<appID>
//   - Linux:   $XDG_DATA_HOME/<appID> or ~/.local/share/<appID>
func LocalDataDir(appID string) (string, error) {
	base, err := localDataBase(runtime.GOOS, os.Getenv, homedir.Dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appID), nil
}

// FallbackDir is where history lives when no preferred candidate is usable.
func FallbackDir(appID string) (string, error) {
	root, err := LocalDataDir(appID)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, DataDirName), nil
}

func localDataBase(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	switch goos {
	case "windows":
		if v := strings.TrimSpace(getenv("LOCALAPPDATA")); v != "" {
			return v, nil
		}
		h, err := userHome(home)
		if err != nil {
			return "", err
		}
		return filepath.Join(h, "AppData", "Local"), nil
	case "darwin":
		h, err := userHome(home)
		if err != nil {
			return "", err
		}
		return filepath.Join(h, "Library", "Application Support"), nil
	default:
		// XDG spec: relative paths are invalid and must be ignored.
		if v := strings.TrimSpace(getenv("XDG_DATA_HOME")); v != "" && filepath.IsAbs(v) {
			return v, nil
		}
		h, err := userHome(home)
		if err != nil {
			return "", err
		}
		return filepath.Join(h, ".local", "share"), nil
	}
}

func userHome(home func() (string, error)) (string, error) {
	h, err := home()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	if strings.TrimSpace(h) == "" {
		return "", ErrLocationUnavailable
	}
	return h, nil
}
