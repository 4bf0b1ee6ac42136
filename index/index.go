package index

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Index is the set of book addresses that have been downloaded completely.
type Index interface {
	Contains(address string) bool
	Record(address string) error
	Close() error
}

// File is an append-only text index, one address per line. The whole file is
// loaded on Open; Record appends and fsyncs before returning.
type File struct {
	path string
	lock *flock.Flock

	mu   sync.Mutex
	seen map[string]struct{}
}

var ErrLocked = errors.New("completion index is locked by another process")

// Open loads the index at path. A missing file is an empty index. The index
// holds an exclusive lock on path+".lock" until Close.
func Open(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock index: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	seen, err := load(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &File{path: path, lock: lock, seen: seen}, nil
}

func load(path string) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return seen, nil
		}
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			seen[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return seen, nil
}

func (f *File) Contains(address string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[address]
	return ok
}

func (f *File) Record(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("empty address")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[address]; ok {
		return nil
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	if _, err := file.WriteString(address + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync index: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	f.seen[address] = struct{}{}
	return nil
}

func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func (f *File) Close() error {
	return f.lock.Unlock()
}
