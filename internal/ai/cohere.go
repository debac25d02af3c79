package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultCohereBaseURL = "https://api.cohere.com"

type cohereConfig struct {
	APIKeyEnv string `json:"api_key_env"`
	BaseURL   string `json:"base_url"`
}

type cohereProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type cohereDocument struct {
	Text string `json:"text"`
}

type cohereChatRequest struct {
	Message     string           `json:"message"`
	Model       string           `json:"model"`
	Documents   []cohereDocument `json:"documents,omitempty"`
	Temperature float32          `json:"temperature"`
}

type cohereChatResponse struct {
	Text string `json:"text"`
}

type cohereEmbedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *cohereProvider) Name() string {
	return "cohere"
}

func (p *cohereProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body := cohereChatRequest{
		Message:     req.Message,
		Model:       req.Model,
		Temperature: req.Temperature,
	}
	for _, doc := range req.Documents {
		body.Documents = append(body.Documents, cohereDocument{Text: doc})
	}
	var out cohereChatResponse
	if err := p.post(ctx, "/v1/chat", body, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

func (p *cohereProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	inputType := "search_document"
	if taskType == TaskRetrievalQuery {
		inputType = "search_query"
	}
	if model == "" {
		model = "embed-english-v3.0"
	}
	var out cohereEmbedResponse
	if err := p.post(ctx, "/v1/embed", cohereEmbedRequest{
		Texts:     []string{text},
		Model:     model,
		InputType: inputType,
	}, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("cohere response has no embeddings")
	}
	return out.Embeddings[0], nil
}

func (p *cohereProvider) post(ctx context.Context, path string, in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cohere request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func newCohereProvider(args interface{}) (*cohereProvider, error) {
	cfg := &cohereConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	key, err := resolveAPIKey(cfg.APIKeyEnv, "COHERE_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}
	return &cohereProvider{apiKey: key, baseURL: baseURL, client: http.DefaultClient}, nil
}

func init() {
	Register("cohere", func(args interface{}) (IChatProvider, error) {
		return newCohereProvider(args)
	})
	RegisterEmbed("cohere", func(args interface{}) (IEmbedProvider, error) {
		return newCohereProvider(args)
	})
}
