package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
)

// Ollama calls an Ollama instance's /api/embed endpoint. Kept from the
// teacher's OllamaEmbedder, generalized to the context-aware, batch-sized
// Embedder interface above.
type Ollama struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

// NewOllama creates an embedder targeting the given Ollama instance.
func NewOllama(baseURL, model string, dim int) *Ollama {
	return &Ollama{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *Ollama) Dim() int { return e.dim }

func (e *Ollama) ID() string { return fmt.Sprintf("ollama:%s:%d", e.model, e.dim) }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends texts to Ollama in one request and returns their embeddings
// in input order. Callers batch upstream (spec.md §4.2: default groups of 32).
func (e *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, apperr.Wrap(apperr.EmbedderErr, "marshal embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.EmbedderErr, "build embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.EmbedderErr, "ollama embed request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, apperr.New(apperr.EmbedderErr, fmt.Sprintf("ollama embed returned %d: %s", resp.StatusCode, string(respBody)))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Wrap(apperr.EmbedderErr, "decode embed response", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, apperr.New(apperr.EmbedderErr, fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(result.Embeddings)))
	}
	return result.Embeddings, nil
}

var _ Embedder = (*Ollama)(nil)
