package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"drawlots/backend/domain"
	"drawlots/backend/events"
	"drawlots/backend/storage"
)

const filePerm os.FileMode = 0o644

// ReadResult is the history document together with where it was read from.
type ReadResult struct {
	History  domain.History
	Location domain.Location
}

// WriteResult describes a completed write.
type WriteResult struct {
	Location domain.Location
	// BackupPath is empty when there was no previous document or the copy failed.
	BackupPath string
}

// HistoryStore 历史记录读写（落在 Locator 选定的目录中）
type HistoryStore struct {
	locator *storage.Locator
	fs      afero.Fs
	logger  *zap.Logger
	bus     *events.Bus
}

// NewHistoryStore binds a store to locator. logger and bus may be nil.
func NewHistoryStore(locator *storage.Locator, logger *zap.Logger, bus *events.Bus) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryStore{
		locator: locator,
		fs:      locator.Fs(),
		logger:  logger,
		bus:     bus,
	}
}

// Read returns the stored history.
//
// Missing, unreadable or malformed content is reported as an empty array;
// only a failure to locate the data directory is returned as an error.
func (s *HistoryStore) Read() (ReadResult, error) {
	loc, err := s.locator.Resolve()
	if err != nil {
		return ReadResult{}, err
	}

	history, recovered := s.load(filepath.Join(loc.Dir, storage.HistoryFileName))
	s.publish(events.HistoryEvent{EventType: events.EventHistoryRead, Dir: loc.Dir, Recovered: recovered})
	return ReadResult{History: history, Location: loc}, nil
}

func (s *HistoryStore) load(path string) (domain.History, bool) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("[History] read failed, treating as empty", zap.String("path", path), zap.Error(err))
		}
		return domain.EmptyHistory(), true
	}
	if err := ValidateHistory(data); err != nil {
		s.logger.Warn("[History] content is not a JSON array, treating as empty", zap.String("path", path))
		return domain.EmptyHistory(), true
	}
	return domain.History(bytes.TrimSpace(data)), false
}

// Write replaces the stored history with doc.
//
// doc must be a JSON array; anything else fails with storage.ErrInvalidDocument
// before the disk is touched. The new content is written to a temp file,
// synced, and renamed over the history file, so readers only ever see the
// complete old or complete new document.
func (s *HistoryStore) Write(doc domain.History) (WriteResult, error) {
	if err := ValidateHistory(doc); err != nil {
		return WriteResult{}, err
	}

	loc, err := s.locator.Resolve()
	if err != nil {
		return WriteResult{}, err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bytes.TrimSpace(doc), "", "  "); err != nil {
		return WriteResult{}, storage.ErrInvalidDocument
	}

	historyPath := filepath.Join(loc.Dir, storage.HistoryFileName)
	tempPath := filepath.Join(loc.Dir, storage.TempFileName)

	if err := s.writeTemp(tempPath, pretty.Bytes()); err != nil {
		_ = s.fs.Remove(tempPath)
		return WriteResult{}, err
	}

	backupPath := ""
	if _, err := s.fs.Stat(historyPath); err == nil {
		backupPath = s.backup(historyPath, filepath.Join(loc.Dir, storage.BackupFileName))
	}

	if err := s.replace(tempPath, historyPath); err != nil {
		_ = s.fs.Remove(tempPath)
		return WriteResult{}, err
	}

	s.publish(events.HistoryEvent{EventType: events.EventHistoryWritten, Dir: loc.Dir, BackupPath: backupPath})
	return WriteResult{Location: loc, BackupPath: backupPath}, nil
}

func (s *HistoryStore) writeTemp(path string, data []byte) error {
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return &storage.IOError{Op: "create temp", Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &storage.IOError{Op: "write temp", Path: path, Err: err}
	}
	// 确保内容落盘后才对外可见
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &storage.IOError{Op: "sync temp", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &storage.IOError{Op: "close temp", Path: path, Err: err}
	}
	return nil
}

// backup copies the current document aside. Failures are logged, never returned.
func (s *HistoryStore) backup(historyPath, backupPath string) string {
	data, err := afero.ReadFile(s.fs, historyPath)
	if err == nil {
		err = afero.WriteFile(s.fs, backupPath, data, filePerm)
	}
	if err != nil {
		s.logger.Warn("[History] backup failed", zap.String("path", backupPath), zap.Error(err))
		s.publish(events.HistoryEvent{EventType: events.EventBackupFailed, Dir: filepath.Dir(backupPath), Err: err})
		return ""
	}
	return backupPath
}

// replace renames tempPath over historyPath. The previous document is not
// removed first: rename replaces it atomically on every supported platform,
// so the real name never points at nothing.
func (s *HistoryStore) replace(tempPath, historyPath string) error {
	if err := s.fs.Rename(tempPath, historyPath); err != nil {
		return &storage.IOError{Op: "rename", Path: historyPath, Err: err}
	}
	return nil
}

func (s *HistoryStore) publish(event events.Event) {
	if s.bus != nil {
		s.bus.PublishSync(event)
	}
}

// ValidateHistory reports whether data is a single well-formed JSON array.
func ValidateHistory(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return storage.ErrInvalidDocument
	}
	return nil
}
