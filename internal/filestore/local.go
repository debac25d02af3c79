package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	s := &localStore{dir: config.Dir}
	if err := s.ensureDir(); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return s, nil
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) Save(ctx context.Context, name string, r io.Reader, size int64) error {
	_ = ctx
	_ = size
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.dir, name))
}

func (s *localStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	_ = ctx
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, appErr.ErrNotFound
	}
	return file, err
}

func (s *localStore) List(ctx context.Context) ([]model.Document, error) {
	_ = ctx
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Document{}, nil
		}
		return nil, err
	}
	docs := make([]model.Document, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsPDF(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		docs = append(docs, model.Document{
			Name:  entry.Name(),
			Size:  info.Size(),
			Mtime: info.ModTime().UnixNano(),
		})
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *localStore) ensureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}
