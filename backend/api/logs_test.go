package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"drawlots/backend/logging"
	"drawlots/backend/service"
)

func TestGETAppLogs_InvalidSince_ReturnsBadRequest(t *testing.T) {
	t.Parallel()

	// 参数校验在调用 Facade 之前返回，因此可以注入空 Facade。
	router := NewRouter(service.NewFacade(nil, nil), nil, nil)

	for _, since := range []string{"not-a-number", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/app/logs?since="+since, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("since=%s: expected status %d, got %d: %s", since, http.StatusBadRequest, rec.Code, rec.Body.String())
		}
	}
}

func TestGETAppLogs_ReturnsChunk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("hello\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}
	facade := service.NewFacade(nil, nil)
	facade.SetAppLog(path, time.Now())
	router := NewRouter(facade, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/app/logs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var chunk logging.Chunk
	if err := json.Unmarshal(rec.Body.Bytes(), &chunk); err != nil {
		t.Fatalf("decode chunk: %v", err)
	}
	if chunk.Text != "hello\n" || chunk.End != 6 {
		t.Fatalf("unexpected chunk: %+v", chunk)
	}
}
