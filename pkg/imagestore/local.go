package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "delivery-system/pkg/errors"
)

// LocalImageStore keeps uploads on disk and serves them from /uploads. It
// stands in for the hosted image service behind the same contract; the
// public id is the path relative to the base directory.
type LocalImageStore struct {
	basePath string
}

func NewLocalImageStore(basePath string) (*LocalImageStore, error) {
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &LocalImageStore{basePath: basePath}, nil
}

func (s *LocalImageStore) Upload(data []byte, folder, filename string) (*UploadResult, error) {
	ext := filepath.Ext(filename)
	uniqueName := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	dir := filepath.Join(s.basePath, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	publicID := filepath.ToSlash(filepath.Join(folder, uniqueName))
	if err := os.WriteFile(filepath.Join(dir, uniqueName), data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	return &UploadResult{
		URL:      "/uploads/" + publicID,
		PublicID: publicID,
	}, nil
}

func (s *LocalImageStore) Destroy(publicID string) error {
	// Guard against ids escaping the base directory.
	clean := filepath.Clean(filepath.FromSlash(publicID))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return apperrors.ErrBadRequest
	}

	fullPath := filepath.Join(s.basePath, clean)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(fullPath)
}
