// Package ledger keeps the append-only list of references a human chose
// to skip, for offline review.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// separator between name and path on each line.
const separator = " | "

// Record is one skipped reference.
type Record struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Ledger appends records to a text file, one "name | path" per line.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// Open returns a ledger writing to path. The file is created on the first
// Record call, not here.
func Open(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Record appends one line. Existing content is never rewritten.
func (l *Ledger) Record(name, relPath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	line := name + separator + filepath.ToSlash(relPath) + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	return f.Close()
}

// Read parses a ledger file. A missing file yields no records. Lines
// without a separator are kept with an empty name.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// Names may contain "|"; the path is after the last separator.
		if i := strings.LastIndex(line, separator); i >= 0 {
			records = append(records, Record{Name: line[:i], Path: line[i+len(separator):]})
		} else {
			records = append(records, Record{Path: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return records, nil
}
