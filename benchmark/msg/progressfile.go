package msg

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// ProgressWriter appends one JSON snapshot line per tick to a per-workload
// file under the temp dir. The file is an append-only artifact of the run
// and is removed on Close.
type ProgressWriter struct {
	path string
	file *os.File
}

func NewProgressWriter() (*ProgressWriter, error) {
	path := filepath.Join(os.TempDir(),
		fmt.Sprintf("manticore_load_progress_%d_%08x", os.Getpid(), rand.Uint32()))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile failed: %w", err)
	}
	return &ProgressWriter{path: path, file: file}, nil
}

func (w *ProgressWriter) Path() string {
	return w.path
}

func (w *ProgressWriter) Append(snapshot *Snapshot) error {
	line, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("json.Marshal failed: %w", err)
	}
	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("file.Write failed: %w", err)
	}
	return nil
}

func (w *ProgressWriter) Close() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("file.Close failed: %w", err)
	}
	return os.Remove(w.path)
}

// LastSnapshot parses the most recent complete line of a progress file.
// A partial tail line without a terminating newline is ignored.
func LastSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile failed: %w", err)
	}

	var last []byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			last = data[start:i]
			start = i + 1
		}
	}
	if last == nil {
		return nil, nil
	}

	snapshot := &Snapshot{}
	if err := json.Unmarshal(last, snapshot); err != nil {
		return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
	}
	return snapshot, nil
}
