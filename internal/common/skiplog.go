package common

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SkipEntry records one piece of input that was skipped instead of failing
// the run: a corrupt byte run, a rejected definition, or a record an
// aggregator could not use.
type SkipEntry struct {
	Stage  string    `json:"stage"`
	Type   string    `json:"type,omitempty"`
	Offset int64     `json:"offset"`
	Reason string    `json:"reason"`
	Ts     time.Time `json:"ts"`
}

// SkipLog provides append-only access to a JSONL diagnostics log. It is safe
// for concurrent use.
type SkipLog struct {
	path string
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	n    int
}

// NewSkipLog returns a SkipLog that writes to the provided path. The file is
// created on first append.
func NewSkipLog(path string) *SkipLog {
	return &SkipLog{path: path}
}

// Path returns the backing file path for the log.
func (l *SkipLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Count returns the number of entries appended so far.
func (l *SkipLog) Count() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Append writes a new entry. Entries are buffered until Close.
func (l *SkipLog) Append(entry SkipEntry) error {
	if l == nil {
		return errors.New("nil skip log")
	}
	if entry.Stage == "" {
		return errors.New("skip entry missing stage")
	}
	if entry.Ts.IsZero() {
		entry.Ts = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		dir := filepath.Dir(l.path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		l.f = f
		l.w = bufio.NewWriter(f)
	}
	if _, err := l.w.Write(append(data, '\n')); err != nil {
		return err
	}
	l.n++
	return nil
}

// Close flushes buffered entries and closes the file.
func (l *SkipLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.w.Flush()
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	l.w = nil
	return err
}

// ReadSkipLog loads every entry from the supplied JSONL file.
func ReadSkipLog(path string) ([]SkipEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var entries []SkipEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry SkipEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("decode skip entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
