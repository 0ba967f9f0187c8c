package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
)

// LogEntry is one decoded JSON log line.
type LogEntry map[string]any

// Str returns the string field key, or "".
func (e LogEntry) Str(key string) string {
	s, _ := e[key].(string)
	return s
}

// Int returns the numeric field key truncated to int, or -1 when absent.
func (e LogEntry) Int(key string) int {
	f, ok := e[key].(float64)
	if !ok {
		return -1
	}
	return int(f)
}

// LogRecorder is a goroutine-safe io.Writer that captures zerolog JSON
// output, or any other text, for assertions. It can simulate a failing
// destination.
type LogRecorder struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	writes int
	err    error
}

// NewLogRecorder creates an empty LogRecorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Write implements io.Writer.
func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	if r.err != nil {
		return 0, r.err
	}
	return r.buf.Write(p)
}

// FailWith makes every following Write return err. nil restores writes.
func (r *LogRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// String returns everything written so far.
func (r *LogRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Contains reports whether the captured output contains s.
func (r *LogRecorder) Contains(s string) bool {
	return strings.Contains(r.String(), s)
}

// WriteCount returns the number of Write calls, failed ones included.
func (r *LogRecorder) WriteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// Entries decodes every captured line that is a JSON object.
func (r *LogRecorder) Entries() []LogEntry {
	var entries []LogEntry
	scanner := bufio.NewScanner(strings.NewReader(r.String()))
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Find returns the last entry whose message is msg.
func (r *LogRecorder) Find(msg string) (LogEntry, bool) {
	entries := r.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Str("message") == msg {
			return entries[i], true
		}
	}
	return nil, false
}

// Reset clears the output and the failure.
func (r *LogRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
	r.writes = 0
	r.err = nil
}
