package structlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

var fixedTime = time.Date(2024, time.January, 2, 3, 4, 5, 6_000_000, time.UTC)

func fixedClock() time.Time { return fixedTime }

// newCapturedLogger returns a logger writing into an in-memory buffer.
func newCapturedLogger(t testing.TB, name string, opts ...Option) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]Option{WithOutput(&buf), WithClock(fixedClock)}, opts...)
	return New(name, opts...), &buf
}

// decodeEntries parses every line of buf as one JSON object.
func decodeEntries(t testing.TB, buf *bytes.Buffer) []logEntry {
	t.Helper()
	var out []logEntry
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var entry logEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry), "line: %s", sc.Text())
		out = append(out, entry)
	}
	require.NoError(t, sc.Err())
	return out
}

// ValueError mimics a caller-defined error type.
type ValueError struct {
	msg string
}

func (e *ValueError) Error() string { return e.msg }

var errSinkClosed = errors.New("sink closed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errSinkClosed }

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }
