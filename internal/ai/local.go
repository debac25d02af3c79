package ai

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const defaultLocalDim = 384

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "what": {}, "which": {},
	"who": {}, "with": {},
}

type localConfig struct {
	Dim int `json:"dim"`
}

// localEmbedProvider is a feature-hashing bag-of-words embedder for offline
// runs. It must be selected explicitly; deployments default to a hosted model.
type localEmbedProvider struct {
	dim int
}

func (p *localEmbedProvider) Name() string {
	return "local"
}

func (p *localEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tf := make(map[string]int)
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := stopWords[tok]; ok {
			continue
		}
		tf[tok]++
	}
	vec := make([]float32, p.dim)
	for tok, n := range tf {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(p.dim))
		weight := float32(1 + math.Log(float64(n)))
		if (sum>>63)&1 == 1 {
			weight = -weight
		}
		vec[idx] += weight
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

func createLocalEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dim <= 0 {
		cfg.Dim = defaultLocalDim
	}
	return &localEmbedProvider{dim: cfg.Dim}, nil
}

func init() {
	RegisterEmbed("local", createLocalEmbedFactory)
}
