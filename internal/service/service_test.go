package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/querylog"
)

type stubGenerator struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
	lastDoc string
	mu      sync.Mutex
}

func (s *stubGenerator) Generate(ctx context.Context, message string, documents []string) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	if len(documents) > 0 {
		s.lastDoc = documents[0]
	}
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return "", s.err
	}
	return "answer to " + message, nil
}

type failingLog struct {
	querylog.Store
}

func (failingLog) Append(ctx context.Context, query, response string) error {
	return errors.New("disk full")
}

type testEnv struct {
	store filestore.Store
	log   querylog.Store
	gen   *stubGenerator
	docs  *DocumentService
	qa    *QAService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": filepath.Join(dir, "documents")}})
	require.NoError(t, err)
	log := querylog.NewFileStore(filepath.Join(dir, "query_logs", "query_log.csv"))
	texts := extract.NewTextCache(store, 16, 0, extract.WithExtractFunc(func(data []byte) (string, error) {
		return string(data), nil
	}))
	embedProvider, err := ai.NewEmbedProvider("local", nil)
	require.NoError(t, err)
	gen := &stubGenerator{}
	manager := ai.NewManager(gen, ai.NewEmbedder(embedProvider, ""), ai.ManagerConfig{Timeout: 5, EmbedConcurrency: 2})
	docs := NewDocumentService(store, texts)
	return &testEnv{
		store: store,
		log:   log,
		gen:   gen,
		docs:  docs,
		qa:    NewQAService(docs, manager, log),
	}
}

func (e *testEnv) upload(t *testing.T, name, content string) {
	t.Helper()
	res := e.docs.Upload(context.Background(), []UploadFile{memFile(name, content)})
	require.True(t, res[0].OK, res[0].Error)
}

func memFile(name, content string) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}
