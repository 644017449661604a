package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileStore keeps the sample window in a JSON Lines file, one
// {"date":...,"value":...} object per line. The format diffs cleanly and
// unknown fields in a line are ignored on read.
type FileStore struct {
	path       string
	maxSamples int
	logger     *zap.Logger
}

// NewFileStore creates a file-backed store at path, bounded to maxSamples
// entries.
func NewFileStore(path string, maxSamples int, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:       path,
		maxSamples: maxSamples,
		logger:     logger,
	}
}

// Load reads and normalizes the persisted window. A missing file is an
// empty window, not an error.
func (f *FileStore) Load(_ context.Context) ([]Sample, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, f.path, err)
	}

	samples, err := decodeLines(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return normalize(samples, f.maxSamples), nil
}

// Append inserts or overwrites the entry for sample.Date and rewrites the
// file atomically via a temp file and rename, so a crash mid-write never
// leaves a truncated record behind.
func (f *FileStore) Append(ctx context.Context, sample Sample) ([]Sample, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	window, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}

	window = normalize(append(window, sample), f.maxSamples)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range window {
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("encoding sample for %s: %w", s.Date, err)
		}
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp file in %s: %v", ErrUnavailable, dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("%w: writing %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("%w: closing %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("%w: replacing %s: %v", ErrUnavailable, f.path, err)
	}

	f.logger.Debug("history persisted",
		zap.String("path", f.path),
		zap.Int("samples", len(window)),
	)

	return window, nil
}

func decodeLines(data []byte) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var s Sample
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
