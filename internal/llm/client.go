// Package llm wraps the OpenAI-compatible chat and embedding APIs behind
// small interfaces the rest of the agent depends on.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"

	"upcagent/internal/config"
)

// ErrNotConfigured indicates the reasoning model cannot be reached because
// no API key is configured. Callers must surface this upward rather than
// degrade it into an in-band answer.
var ErrNotConfigured = errors.New("llm: no API key configured")

// ChatCompleter performs one reasoning call over a full conversation.
// The returned message may carry tool-call requests.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Client is the production ChatCompleter and Embedder backed by go-openai.
type Client struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	dimensions     int
}

// NewClient builds a Client from the active profile. Returns
// ErrNotConfigured when the profile has no API key.
func NewClient(cfg *config.Config) (*Client, error) {
	if !cfg.IsValid() {
		return nil, ErrNotConfigured
	}

	clientConfig := openai.DefaultConfig(cfg.GetAPIKey())
	if cfg.GetBaseURL() != "" {
		clientConfig.BaseURL = cfg.GetBaseURL()
	}

	return &Client{
		client:         openai.NewClientWithConfig(clientConfig),
		chatModel:      cfg.GetModel(),
		embeddingModel: cfg.GetEmbeddingModel(),
		dimensions:     1536,
	}, nil
}

// Complete implements ChatCompleter.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
		Tools:    tools,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: empty response")
	}

	return resp.Choices[0].Message, nil
}

// Embed implements Embedder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	// The API does not guarantee input ordering.
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimensions implements Embedder.
func (c *Client) Dimensions() int { return c.dimensions }
