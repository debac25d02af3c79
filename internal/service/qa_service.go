package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/analytics"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/querylog"
	"github.com/xxxsen/docqa/internal/retrieval"
)

type QAService struct {
	docs   *DocumentService
	ai     *ai.Manager
	log    querylog.Store
	flight singleflight.Group
	gate   *sessionGate
}

func NewQAService(docs *DocumentService, manager *ai.Manager, log querylog.Store) *QAService {
	return &QAService{
		docs: docs,
		ai:   manager,
		log:  log,
		gate: newSessionGate(),
	}
}

// Ask answers query from the single most relevant stored document. Within a
// session an identical concurrent question shares one execution and a
// different one is rejected with ErrBusy.
func (s *QAService) Ask(ctx context.Context, session, query string) (*model.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, appErr.ErrEmptyQuery
	}
	if session == "" {
		return s.ask(ctx, query)
	}
	if !s.gate.enter(session, query) {
		return nil, appErr.ErrBusy
	}
	// the shared run outlives any one caller, so the session stays busy until it ends
	ch := s.flight.DoChan(session+"\x00"+query, func() (interface{}, error) {
		return s.ask(context.WithoutCancel(ctx), query)
	})
	select {
	case res := <-ch:
		s.gate.leave(session)
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logutil.GetLogger(ctx).Debug("joined in-flight question", zap.String("session", session))
		}
		out := *res.Val.(*model.Answer)
		return &out, nil
	case <-ctx.Done():
		go func() {
			<-ch
			s.gate.leave(session)
		}()
		return nil, ctx.Err()
	}
}

func (s *QAService) ask(ctx context.Context, query string) (*model.Answer, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("query", query))
	start := time.Now()
	docs, err := s.docs.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, appErr.ErrNoDocuments
	}
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}
	docVecs, err := s.ai.EmbedAll(ctx, texts, ai.TaskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	queryVec, err := s.ai.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	idx, score, err := retrieval.Top1(queryVec, docVecs)
	if err != nil {
		return nil, err
	}
	best := docs[idx]
	logger.Debug("document retrieved", zap.String("source", best.Name), zap.Float32("score", score))

	answer, err := s.ai.Answer(ctx, query, best.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrGenerate, err)
	}
	res := &model.Answer{
		Query:  query,
		Answer: answer,
		Source: best.Name,
		Score:  score,
	}
	// the answer is already computed, so a dropped client must not lose the record
	if err := s.log.Append(context.WithoutCancel(ctx), query, answer); err != nil {
		logger.Error("append query log failed", zap.Error(err))
		res.LogError = err.Error()
	}
	logger.Info("question answered",
		zap.String("source", best.Name),
		zap.Int("documents", len(docs)),
		zap.Duration("cost", time.Since(start)),
	)
	return res, nil
}

// TopQueries returns the five most frequent questions. A log that was never
// written yields an empty list.
func (s *QAService) TopQueries(ctx context.Context) ([]model.TopQuery, error) {
	entries, err := s.log.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read query log: %w", err)
	}
	return analytics.TopQueries(entries, analytics.DefaultTopN), nil
}

func (s *QAService) RenderCharts(ctx context.Context, w io.Writer) error {
	top, err := s.TopQueries(ctx)
	if err != nil {
		return err
	}
	return analytics.RenderCharts(w, top)
}
