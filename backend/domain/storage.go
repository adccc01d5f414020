package domain

import "encoding/json"

// History 抽签历史记录文档（必须是 JSON 数组）。
//
// The raw bytes are kept as-is so that element order, key order and number
// spelling survive a write/read round trip.
type History = json.RawMessage

// EmptyHistory returns a fresh empty JSON array.
func EmptyHistory() History {
	return History("[]")
}

// Location is the outcome of data directory resolution.
type Location struct {
	// Dir is the active directory holding the history file.
	Dir string `json:"dir"`
	// UsingFallback reports whether Dir is the system managed fallback.
	UsingFallback bool `json:"usingFallback"`
	// OriginalDir is the first preferred candidate that failed, set only in fallback mode.
	OriginalDir string `json:"originalDir,omitempty"`
	// Message is a human readable note describing why the fallback was used.
	Message string `json:"message,omitempty"`
}
