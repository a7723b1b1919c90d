package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"noise-mapping/utils"
)

// LocalStore keeps raw audio in a directory on disk, one file per key.
// Used for development and single-node deployments.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := utils.CreateFolder(dir); err != nil {
		return nil, fmt.Errorf("failed to prepare blob directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	path := filepath.Join(s.dir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}
