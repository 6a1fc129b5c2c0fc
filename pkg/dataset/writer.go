// Package dataset reads and writes the JSONL training dataset: one
// TrainingSample per line, UTF-8 JSON, newline terminated.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/goax/pkg/domain/element"
)

// Writer appends samples to a dataset file. Every Append is written with a
// single write call and synced before it returns, so a crash loses at most the
// sample in flight and never corrupts earlier lines.
type Writer struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	lines int
}

// OpenWriter opens path for appending, creating it and its parent directory
// when needed. Line numbers continue after any samples already in the file. A
// torn last line left by a crash is terminated first so the next sample starts
// on its own line.
func OpenWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, errors.New("dataset path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create dataset directory: %w", err)
		}
	}

	existing, torn, err := countLines(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	if torn {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to terminate torn line: %w", err)
		}
	}
	return &Writer{path: path, file: f, lines: existing}, nil
}

// Path returns the dataset file path.
func (w *Writer) Path() string {
	return w.path
}

// Lines returns the number of lines in the file, including those written
// before the writer was opened.
func (w *Writer) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

// Append validates s, writes it as one line and syncs the file. It returns the
// 1-based line number the sample was written to.
func (w *Writer) Append(s *element.TrainingSample) (int, error) {
	if s == nil {
		return 0, errors.New("sample cannot be nil")
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("failed to encode sample: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, errors.New("dataset writer is closed")
	}
	if _, err := w.file.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write sample: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync dataset: %w", err)
	}
	w.lines++
	return w.lines, nil
}

// Close closes the underlying file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// countLines reports the number of lines in path and whether the last one is
// missing its newline.
func countLines(path string) (int, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read dataset: %w", err)
	}
	n := bytes.Count(data, []byte{'\n'})
	torn := len(data) > 0 && data[len(data)-1] != '\n'
	if torn {
		n++
	}
	return n, torn, nil
}
