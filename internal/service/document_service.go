package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

// UploadFile is one file of a multi-file upload.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type DocumentService struct {
	store filestore.Store
	texts *extract.TextCache
}

func NewDocumentService(store filestore.Store, texts *extract.TextCache) *DocumentService {
	return &DocumentService{store: store, texts: texts}
}

// Upload stores every file independently. One bad file does not stop the
// others; its failure is reported in its own result.
func (s *DocumentService) Upload(ctx context.Context, files []UploadFile) []model.UploadResult {
	results := make([]model.UploadResult, 0, len(files))
	for _, file := range files {
		res := model.UploadResult{Name: file.Name, Size: file.Size}
		if err := s.save(ctx, file); err != nil {
			res.Error = err.Error()
			logutil.GetLogger(ctx).Warn("save document failed",
				zap.String("name", file.Name), zap.Error(err))
		} else {
			res.OK = true
			logutil.GetLogger(ctx).Info("document saved",
				zap.String("name", file.Name), zap.Int64("size", file.Size))
		}
		results = append(results, res)
	}
	return results
}

func (s *DocumentService) save(ctx context.Context, file UploadFile) error {
	name, err := filestore.CleanName(file.Name)
	if err != nil {
		return err
	}
	if !filestore.IsPDF(name) {
		return fmt.Errorf("%w: %s is not a pdf", appErr.ErrInvalidFile, name)
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()
	return s.store.Save(ctx, name, rc, file.Size)
}

func (s *DocumentService) List(ctx context.Context) ([]model.Document, error) {
	return s.store.List(ctx)
}

// LoadAll lists the stored documents and fills in their text.
func (s *DocumentService) LoadAll(ctx context.Context) ([]model.Document, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return docs, nil
	}
	return s.texts.LoadAll(ctx, docs)
}

// Warmup extracts every document into the text cache and returns how many
// documents failed.
func (s *DocumentService) Warmup(ctx context.Context) (int, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	failed := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if _, err := s.texts.Load(ctx, doc); err != nil {
			failed++
			logutil.GetLogger(ctx).Warn("warmup extract failed",
				zap.String("name", doc.Name), zap.Error(err))
		}
	}
	return failed, nil
}
