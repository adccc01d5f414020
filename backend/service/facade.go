package service

import (
	"encoding/json"
	"os"
	"time"

	"drawlots/backend/domain"
	"drawlots/backend/logging"
	"drawlots/backend/persist"
	"drawlots/backend/storage"
)

// EnsureResponse 数据目录信息（不读写文档）
type EnsureResponse struct {
	DataDir       string  `json:"data_dir"`
	UsingFallback bool    `json:"using_fallback"`
	FallbackDir   *string `json:"fallback_dir"`
	Message       *string `json:"message"`
}

// ReadResponse 历史记录读取结果
type ReadResponse struct {
	History       json.RawMessage `json:"history"`
	DataDir       string          `json:"data_dir"`
	UsingFallback bool            `json:"using_fallback"`
	FallbackDir   *string         `json:"fallback_dir"`
}

// WriteResponse 历史记录写入结果
type WriteResponse struct {
	DataDir       string  `json:"data_dir"`
	BackupPath    *string `json:"backup_path"`
	UsingFallback bool    `json:"using_fallback"`
}

// Facade 服务门面（UI 调用的三个存储操作）
type Facade struct {
	locator *storage.Locator
	history *persist.HistoryStore

	appLogPath      string
	appLogStartedAt time.Time
}

// NewFacade 创建门面服务
func NewFacade(locator *storage.Locator, history *persist.HistoryStore) *Facade {
	return &Facade{locator: locator, history: history}
}

// SetAppLog 设置应用日志文件（供 /app/logs 增量读取），startedAt 为本次进程启动时间
func (f *Facade) SetAppLog(path string, startedAt time.Time) {
	f.appLogPath = path
	f.appLogStartedAt = startedAt
}

// EnsureLocation resolves the data directory without touching the document.
func (f *Facade) EnsureLocation() (EnsureResponse, error) {
	loc, err := f.locator.Resolve()
	if err != nil {
		return EnsureResponse{}, err
	}
	return EnsureResponse{
		DataDir:       loc.Dir,
		UsingFallback: loc.UsingFallback,
		FallbackDir:   optional(loc.OriginalDir),
		Message:       optional(loc.Message),
	}, nil
}

// ReadDocument returns the stored history; unreadable content yields [].
func (f *Facade) ReadDocument() (ReadResponse, error) {
	res, err := f.history.Read()
	if err != nil {
		return ReadResponse{}, err
	}
	return ReadResponse{
		History:       json.RawMessage(res.History),
		DataDir:       res.Location.Dir,
		UsingFallback: res.Location.UsingFallback,
		FallbackDir:   optional(res.Location.OriginalDir),
	}, nil
}

// WriteDocument replaces the stored history. data must be a JSON array.
func (f *Facade) WriteDocument(data json.RawMessage) (WriteResponse, error) {
	res, err := f.history.Write(domain.History(data))
	if err != nil {
		return WriteResponse{}, err
	}
	return WriteResponse{
		DataDir:       res.Location.Dir,
		BackupPath:    optional(res.BackupPath),
		UsingFallback: res.Location.UsingFallback,
	}, nil
}

// GetAppLogs returns the app log written since byte offset since.
func (f *Facade) GetAppLogs(since int64) logging.Chunk {
	return logging.ReadSince(f.appLogPath, since, os.Getpid(), f.appLogStartedAt)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
