package events

import "drawlots/backend/domain"

// EventType 事件类型
type EventType string

const (
	EventLocationResolved EventType = "storage.location_resolved"

	EventHistoryRead    EventType = "history.read"
	EventHistoryWritten EventType = "history.written"
	EventBackupFailed   EventType = "history.backup_failed"

	// 通配符事件（用于订阅所有事件）
	EventAll EventType = "*"
)

// Event 事件接口
type Event interface {
	Type() EventType
}

// LocationEvent is published once, when the active data directory is chosen.
type LocationEvent struct {
	EventType EventType
	Location  domain.Location
}

func (e LocationEvent) Type() EventType { return e.EventType }

// HistoryEvent describes one read or write of the history document.
type HistoryEvent struct {
	EventType EventType
	Dir       string
	// BackupPath is set on writes that backed up the previous document.
	BackupPath string
	// Recovered marks reads that found missing or unparsable content.
	Recovered bool
	Err       error
}

func (e HistoryEvent) Type() EventType { return e.EventType }
