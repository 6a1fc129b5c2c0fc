package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dshills/goax/pkg/domain/element"
)

// MaxLineSize bounds one JSONL line. A sample embeds a whole snapshot, so lines
// are far longer than bufio's default token size.
const MaxLineSize = 64 << 20

// ErrStopScan may be returned by a Scan callback to end the scan early.
var ErrStopScan = errors.New("stop scan")

// Scan calls fn for every non-blank line of r with its 1-based line number.
// The raw slice is only valid until fn returns.
func Scan(r io.Reader, fn func(line int, raw []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := fn(line, raw); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read line %d: %w", line+1, err)
	}
	return nil
}

// ScanFile opens path and scans it.
func ScanFile(path string, fn func(line int, raw []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return Scan(f, fn)
}

// Decode parses one line into a sample.
func Decode(raw []byte) (*element.TrainingSample, error) {
	var s element.TrainingSample
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode sample: %w", err)
	}
	return &s, nil
}

// ReadAll decodes every sample in path. Use ScanFile for large datasets.
func ReadAll(path string) ([]*element.TrainingSample, error) {
	var out []*element.TrainingSample
	err := ScanFile(path, func(line int, raw []byte) error {
		s, err := Decode(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
