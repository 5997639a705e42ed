package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultEmbedModel is the default embedding model.
	DefaultEmbedModel = "all-minilm:l6-v2"

	// DefaultEmbedDimensions is the output size of all-minilm.
	DefaultEmbedDimensions = 384

	ollamaTimeout        = 30 * time.Second
	apiPathTags          = "/api/tags"
	apiPathEmbeddings    = "/api/embeddings"
	errorBodySampleLimit = 200
)

// OllamaProvider generates embeddings through a local Ollama server.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaURL sets the Ollama API base URL.
func WithOllamaURL(url string) OllamaOption {
	return func(p *OllamaProvider) { p.baseURL = url }
}

// WithEmbedModel sets the embedding model.
func WithEmbedModel(model string) OllamaOption {
	return func(p *OllamaProvider) { p.model = model }
}

// WithEmbedDimensions sets the expected vector dimensions.
func WithEmbedDimensions(dims int) OllamaOption {
	return func(p *OllamaProvider) { p.dimensions = dims }
}

// NewOllamaProvider creates an Ollama embedding provider.
func NewOllamaProvider(opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL:    DefaultOllamaURL,
		model:      DefaultEmbedModel,
		dimensions: DefaultEmbedDimensions,
		client:     &http.Client{Timeout: ollamaTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for the given text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return Embedding{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+apiPathEmbeddings, bytes.NewReader(body))
	if err != nil {
		return Embedding{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Embedding{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Embedding{}, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, sampleBody(resp.Body))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Embedding{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Embedding) != p.dimensions {
		return Embedding{}, fmt.Errorf("unexpected embedding dimensions: got %d, want %d",
			len(result.Embedding), p.dimensions)
	}
	return Embedding{Vector: result.Embedding}, nil
}

// ModelName returns the name of the embedding model.
func (p *OllamaProvider) ModelName() string { return p.model }

// Dimensions returns the expected vector dimensions.
func (p *OllamaProvider) Dimensions() int { return p.dimensions }

// IsAvailable checks that the Ollama server is reachable.
func (p *OllamaProvider) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+apiPathTags, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not running: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func sampleBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, errorBodySampleLimit))
	if err != nil {
		return "(unreadable body)"
	}
	return strings.TrimSpace(string(data))
}
