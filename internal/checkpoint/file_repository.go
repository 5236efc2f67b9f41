package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// FileRepository stores one JSON file per key under a directory. Writes are
// atomic (temp file + rename). A directory-wide flock backs the
// single-writer-per-key precondition across processes.
type FileRepository struct {
	dir  string
	lock *flock.Flock
}

// NewFileRepository creates the directory and acquires the repository lock
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire checkpoint lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("checkpoint directory %s is locked by another process", dir)
	}

	return &FileRepository{dir: dir, lock: lock}, nil
}

func (r *FileRepository) path(key Key) string {
	return filepath.Join(r.dir, key.String()+".json")
}

// Get reads the record for the key
func (r *FileRepository) Get(key Key) ([]byte, error) {
	data, err := os.ReadFile(r.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return data, nil
}

// Set writes the record atomically
func (r *FileRepository) Set(key Key, value []byte) error {
	path := r.path(key)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, value, 0644); err != nil {
		return fmt.Errorf("failed to write temp checkpoint: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename checkpoint: %w", err)
	}
	return nil
}

// Delete removes the record; deleting an absent key is not an error
func (r *FileRepository) Delete(key Key) error {
	if err := os.Remove(r.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns every stored key
func (r *FileRepository) List() ([]Key, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var keys []Key
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		name = strings.TrimSuffix(name, ".json")
		parts := strings.SplitN(name, "--", 2)
		if len(parts) != 2 {
			continue
		}
		keys = append(keys, Key{CampaignID: parts[0], ItemID: parts[1]})
	}
	return keys, nil
}

// Close releases the repository lock
func (r *FileRepository) Close() error {
	return r.lock.Unlock()
}
