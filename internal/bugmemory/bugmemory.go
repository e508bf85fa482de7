// Package bugmemory keeps an append-only log of observed failures, used by
// the planner to prioritize files that break repeatedly. Records are never
// mutated or deleted; every read is a linear scan over the log, which is fine
// at the thousands-of-records scale this sees.
package bugmemory

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Record is one observed failure.
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	File        string    `json:"file"`
	Line        int       `json:"line,omitempty"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// Fingerprint derives the deterministic identity of a failure from its
// file, line, and message. Identical inputs always produce the same hash.
func Fingerprint(file string, line int, message string) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s", file, line, message))
	return hex.EncodeToString(h[:])
}

// Memory is a JSONL-backed failure log.
type Memory struct {
	path string
}

// New creates a Memory backed by the given JSONL file, creating its parent
// directory if needed.
func New(path string) (*Memory, error) {
	if path == "" {
		return nil, fmt.Errorf("bug memory path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &Memory{path: path}, nil
}

// DefaultPath returns ~/.mend/bugmemory.jsonl.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".mend", "bugmemory.jsonl"), nil
}

// Path returns the backing file path.
func (m *Memory) Path() string {
	return m.path
}

// Append adds a record to the log. The fingerprint is computed from the
// record's file, line, and message if not already set, and the timestamp
// defaults to now.
func (m *Memory) Append(r Record) error {
	if r.Fingerprint == "" {
		r.Fingerprint = Fingerprint(r.File, r.Line, r.Message)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open memory log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Exists reports whether any record with the given fingerprint is in the log.
func (m *Memory) Exists(fingerprint string) (bool, error) {
	found := false
	err := m.scan(func(r Record) {
		if r.Fingerprint == fingerprint {
			found = true
		}
	})
	return found, err
}

// FindSimilar returns all records sharing the given fingerprint, oldest
// first.
func (m *Memory) FindSimilar(fingerprint string) ([]Record, error) {
	var out []Record
	err := m.scan(func(r Record) {
		if r.Fingerprint == fingerprint {
			out = append(out, r)
		}
	})
	return out, err
}

// All returns every record in the log in append order.
func (m *Memory) All() ([]Record, error) {
	var out []Record
	err := m.scan(func(r Record) {
		out = append(out, r)
	})
	return out, err
}

// StatsByFile returns the failure count per file across the whole log.
func (m *Memory) StatsByFile() (map[string]int, error) {
	stats := make(map[string]int)
	err := m.scan(func(r Record) {
		if r.File != "" {
			stats[r.File]++
		}
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// FilesByFrequency returns files ordered by descending failure count, ties
// broken alphabetically for stable output.
func (m *Memory) FilesByFrequency() ([]string, error) {
	stats, err := m.StatsByFile()
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(stats))
	for f := range stats {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if stats[files[i]] != stats[files[j]] {
			return stats[files[i]] > stats[files[j]]
		}
		return files[i] < files[j]
	})
	return files, nil
}

// scan reads every record in the log, skipping lines that do not parse.
// A missing log file is an empty log, not an error.
func (m *Memory) scan(fn func(Record)) error {
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open memory log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		fn(r)
	}
	return sc.Err()
}
