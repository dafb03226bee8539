package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stager writes uploaded files to a private directory for the lifetime of
// one request.
type Stager struct {
	dir    string
	logger *zap.Logger
}

// NewStager creates the staging directory if needed.
func NewStager(dir string, logger *zap.Logger) (*Stager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, errors.New("upload directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Stager{dir: dir, logger: logger}, nil
}

// Dir returns the staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Staged is one file on disk. Release must be called once the request is done
// with it; calling it again is a no-op.
type Staged struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64

	once   sync.Once
	logger *zap.Logger
}

// Stage copies the multipart file to <dir>/<uuid>-<basename>.
func (s *Stager) Stage(fh *multipart.FileHeader) (*Staged, error) {
	if fh == nil {
		return nil, errors.New("file header must not be nil")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := filepath.Base(fh.Filename)
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s", uuid.NewString(), name))

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	size, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", errors.Join(copyErr, closeErr))
	}

	return &Staged{
		Path:        path,
		Filename:    name,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        size,
		logger:      s.logger,
	}, nil
}

// Open returns a reader over the staged bytes.
func (f *Staged) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Release removes the staged file.
func (f *Staged) Release() {
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			if f.logger != nil {
				f.logger.Warn("failed to remove staged upload", zap.String("path", f.Path), zap.Error(err))
			}
		}
	})
}

// Sweep removes staged files last modified before now-olderThan and returns
// how many were removed. Files left behind by a crashed process end up here.
func (s *Stager) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload directory: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to sweep staged upload", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
