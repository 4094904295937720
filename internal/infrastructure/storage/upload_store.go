package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoredUpload is a temporary file owned by the store until released
type StoredUpload struct {
	// Path is the location of the temporary file
	Path string
	// Name is the original upload file name
	Name string
	// Size is the number of bytes written
	Size int64
}

// TempUploadStore persists uploads to a scoped temporary directory.
// Every stored file is removed by exactly one Release; WithUpload makes
// that pairing structural so no handler path can leak a file.
type TempUploadStore struct {
	dir    string
	logger *zap.Logger
}

// NewTempUploadStore creates the store, ensuring the upload directory exists
func NewTempUploadStore(dir string, logger *zap.Logger) (*TempUploadStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: failed to create upload directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TempUploadStore{dir: dir, logger: logger}, nil
}

// Store writes the upload to a unique path. Concurrent uploads of the same
// file name cannot collide: the path carries a generated id.
func (s *TempUploadStore) Store(name string, r io.Reader) (*StoredUpload, error) {
	if name == "" {
		name = "upload.pdf"
	}
	path := filepath.Join(s.dir, uuid.NewString()+"-"+filepath.Base(name))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create temporary file: %w", err)
	}

	size, err := io.Copy(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// Half-written file is useless, remove it right away
		_ = os.Remove(path)
		return nil, fmt.Errorf("storage: failed to write upload: %w", err)
	}

	return &StoredUpload{Path: path, Name: name, Size: size}, nil
}

// Release deletes the temporary file
func (s *TempUploadStore) Release(upload *StoredUpload) {
	if upload == nil {
		return
	}
	if err := os.Remove(upload.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to remove temporary upload",
			zap.String("path", upload.Path),
			zap.Error(err))
		return
	}
	s.logger.Debug("temporary upload removed", zap.String("path", upload.Path))
}

// WithUpload stores the upload, runs fn against it, and releases the file
// no matter how fn exits. This is the only way workflow code touches
// temporary files, so the store/release pairing holds on every path:
// success, rejection, or error.
func (s *TempUploadStore) WithUpload(name string, r io.Reader, fn func(*StoredUpload) error) error {
	upload, err := s.Store(name, r)
	if err != nil {
		return err
	}
	defer s.Release(upload)
	return fn(upload)
}
