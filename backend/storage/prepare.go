package storage

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// On-disk layout inside the active data directory.
const (
	DataDirName     = "data"
	HistoryFileName = "draw_history.json"
	BackupFileName  = "draw_history.bak"
	TempFileName    = HistoryFileName + ".tmp"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

var emptyDocument = []byte("[]")

// Prepare makes sure dir exists and holds a history file, creating an empty
// array document when it is missing. The file is not touched when the
// directory cannot be created.
func Prepare(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, dirPerm); err != nil {
		return ioError("create dir", dir, err)
	}

	historyPath := filepath.Join(dir, HistoryFileName)
	if _, err := fs.Stat(historyPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return ioError("stat", historyPath, err)
	}

	if err := afero.WriteFile(fs, historyPath, emptyDocument, filePerm); err != nil {
		return ioError("init history", historyPath, err)
	}
	return nil
}
