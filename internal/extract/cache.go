package extract

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/model"
)

// TextCache remembers extracted text for the lifetime of the process. Entries
// are keyed by name, size and mtime, so an overwritten upload is re-extracted.
type TextCache struct {
	store   filestore.Store
	cache   *expirable.LRU[string, string]
	extract func(data []byte) (string, error)
}

type CacheOption func(*TextCache)

// WithExtractFunc replaces the PDF extractor, mostly for tests.
func WithExtractFunc(fn func(data []byte) (string, error)) CacheOption {
	return func(t *TextCache) {
		if fn != nil {
			t.extract = fn
		}
	}
}

func NewTextCache(store filestore.Store, size int, ttl time.Duration, opts ...CacheOption) *TextCache {
	if size <= 0 {
		size = 256
	}
	t := &TextCache{
		store:   store,
		cache:   expirable.NewLRU[string, string](size, nil, ttl),
		extract: ExtractBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TextCache) Load(ctx context.Context, doc model.Document) (string, error) {
	key := cacheKey(doc)
	if text, ok := t.cache.Get(key); ok {
		return text, nil
	}
	rc, err := t.store.Open(ctx, doc.Name)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", doc.Name, err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", doc.Name, err)
	}
	text, err := t.extract(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", doc.Name, err)
	}
	t.cache.Add(key, text)
	logutil.GetLogger(ctx).Debug("document text extracted",
		zap.String("name", doc.Name),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// LoadAll fills Text on every document, in order.
func (t *TextCache) LoadAll(ctx context.Context, docs []model.Document) ([]model.Document, error) {
	out := make([]model.Document, len(docs))
	for i, doc := range docs {
		text, err := t.Load(ctx, doc)
		if err != nil {
			return nil, err
		}
		doc.Text = text
		out[i] = doc
	}
	return out, nil
}

func (t *TextCache) Len() int {
	return t.cache.Len()
}

func cacheKey(doc model.Document) string {
	return doc.Name + "|" + strconv.FormatInt(doc.Size, 10) + "|" + strconv.FormatInt(doc.Mtime, 10)
}
