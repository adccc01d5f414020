package logging

import (
	"errors"
	"io"
	"os"
	"time"
)

const maxChunkBytes int64 = 512 * 1024

// Chunk is a slice of the app log, returned to the UI for incremental display.
type Chunk struct {
	Running   bool   `json:"running"`
	Pid       int    `json:"pid,omitempty"`
	StartedAt string `json:"startedAt,omitempty"`
	Path      string `json:"path,omitempty"`

	From int64 `json:"from"`
	To   int64 `json:"to"`
	End  int64 `json:"end"`
	// Lost is set when since was past the end, i.e. the file was rotated or truncated.
	Lost bool   `json:"lost"`
	Text string `json:"text"`

	Error string `json:"error,omitempty"`
}

// ReadSince returns at most 512 KiB of the log at path starting from byte offset since.
func ReadSince(path string, since int64, pid int, startedAt time.Time) Chunk {
	chunk := Chunk{Running: true, Pid: pid, Path: path}
	if !startedAt.IsZero() {
		chunk.StartedAt = startedAt.Format(time.RFC3339Nano)
	}
	if path == "" {
		return chunk
	}
	if err := readChunk(path, since, maxChunkBytes, &chunk); err != nil {
		chunk.Error = err.Error()
	}
	return chunk
}

func readChunk(path string, since, maxBytes int64, chunk *Chunk) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	chunk.End = st.Size()

	if since < 0 {
		since = 0
	}
	if since > chunk.End {
		since = 0
		chunk.Lost = true
	}
	chunk.From, chunk.To = since, since

	if _, err := f.Seek(since, io.SeekStart); err != nil {
		return err
	}
	n := chunk.End - since
	if n <= 0 {
		return nil
	}
	if n > maxBytes {
		n = maxBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, n))
	if err != nil {
		return err
	}
	chunk.To = since + int64(len(data))
	chunk.Text = string(data)
	return nil
}
