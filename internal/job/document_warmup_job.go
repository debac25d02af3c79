package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type warmer interface {
	Warmup(ctx context.Context) (int, error)
}

// DocumentWarmupJob extracts stored documents ahead of the first question so
// that asking only pays for embedding and generation.
type DocumentWarmupJob struct {
	docs warmer
}

func NewDocumentWarmupJob(docs warmer) *DocumentWarmupJob {
	return &DocumentWarmupJob{docs: docs}
}

func (j *DocumentWarmupJob) Name() string {
	return "document_warmup"
}

func (j *DocumentWarmupJob) Run(ctx context.Context) error {
	failed, err := j.docs.Warmup(ctx)
	if err != nil {
		return err
	}
	if failed > 0 {
		logutil.GetLogger(ctx).Warn("some documents could not be extracted", zap.Int("failed", failed))
	}
	return nil
}
