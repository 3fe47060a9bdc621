package storage

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStore keeps attachments on the local filesystem under a base
// directory, one uuid-prefixed object per upload, and returns the url the
// HTTP layer serves them from.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) Upload(data []byte, name string) (string, error) {
	object := uuid.NewString() + "_" + filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.baseDir, object), data, 0644); err != nil {
		return "", err
	}
	return "/attachments/" + object, nil
}
