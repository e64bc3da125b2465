package filelog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"liquigen/internal/errors"

	"github.com/spf13/afero"
)

// Ledger is an append-only text file of processed keys, one per line.
// Lookups scan the whole file for an exact line match.
type Ledger struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewLedger creates a ledger at path. The file and its directory are created
// on the first append.
func NewLedger(fs afero.Fs, path string) (*Ledger, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem dependency is required")
	}
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	return &Ledger{fs: fs, path: path}, nil
}

// Path returns the ledger file location
func (l *Ledger) Path() string {
	return l.path
}

// HasBeenProcessed reports whether key occurs on any line. A missing file
// means nothing has been processed yet.
func (l *Ledger) HasBeenProcessed(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.fs.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.LedgerFailure("lookup", key, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimRight(scanner.Text(), "\r") == key {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, errors.LedgerFailure("lookup", key, err)
	}
	return false, nil
}

// MarkProcessed appends key as a new line. Earlier entries are never
// rewritten or deduplicated.
func (l *Ledger) MarkProcessed(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" || strings.ContainsAny(key, "\r\n") {
		return errors.LedgerFailure("append", key, fmt.Errorf("key must be a single non-empty line"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.LedgerFailure("append", key, err)
	}

	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.LedgerFailure("append", key, err)
	}

	if _, err := f.WriteString(key + "\n"); err != nil {
		f.Close()
		return errors.LedgerFailure("append", key, err)
	}
	if err := f.Close(); err != nil {
		return errors.LedgerFailure("append", key, err)
	}
	return nil
}

// Keys returns every line in file order, repeats included
func (l *Ledger) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.LedgerFailure("read", l.path, err)
	}

	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			keys = append(keys, line)
		}
	}
	return keys, nil
}
