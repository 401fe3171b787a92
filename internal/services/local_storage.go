package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cms0/internal/utils/logger"

	"github.com/spf13/afero"
)

// LocalStorage keeps media on a filesystem rooted at a base directory.
type LocalStorage struct {
	fs        afero.Fs
	publicURL string
	logger    *logger.Logger
}

// NewLocalStorage stores files under basePath on disk.
func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return NewLocalStorageFs(afero.NewBasePathFs(osFs, basePath), publicURL), nil
}

// NewLocalStorageFs stores files on fs, e.g. an afero.MemMapFs.
func NewLocalStorageFs(fs afero.Fs, publicURL string) *LocalStorage {
	return &LocalStorage{
		fs:        fs,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.New("local_storage"),
	}
}

func (s *LocalStorage) Put(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	key := newObjectKey(name)
	if err := afero.WriteFile(s.fs, key, body, 0o644); err != nil {
		return "", s.logger.Error("Failed to write file", err)
	}
	s.logger.Info("Stored %s (%d bytes)", key, len(body))
	return key, nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, ErrObjectNotFound
	}
	f, err := s.fs.Open(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, nil
	}
	return afero.Exists(s.fs, key)
}

func (s *LocalStorage) URL(ctx context.Context, key string) (string, error) {
	return s.publicURL + "/media/" + key, nil
}
