package httpserver_test

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/kroma-labs/sentinel-service/logging"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// lockedBuffer lets tests read log output while a server goroutine may still write.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newBufferLogger(t *testing.T) (*logging.Logger, *lockedBuffer) {
	t.Helper()

	buf := &lockedBuffer{}
	logger, err := logging.New(logging.Config{Level: "debug", Writer: buf})
	require.NoError(t, err)
	return logger, buf
}

func logRecords(t *testing.T, buf *lockedBuffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line: %s", line)
		records = append(records, rec)
	}
	return records
}

func recordsWithEvent(t *testing.T, buf *lockedBuffer, event string) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, rec := range logRecords(t, buf) {
		if rec["event"] == event {
			out = append(out, rec)
		}
	}
	return out
}

func metaOf(t *testing.T, rec map[string]any) map[string]any {
	t.Helper()

	meta, ok := rec["meta"].(map[string]any)
	require.True(t, ok, "record has no meta: %v", rec)
	return meta
}
