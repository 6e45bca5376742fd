// Package rag implements the retrieval pipeline: it chunks a plain-text
// corpus, embeds the chunks into a cosine nearest-neighbor index, and
// answers questions with a generation call grounded strictly on the
// retrieved chunks.
package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"upcagent/internal/llm"
)

// DefaultTopK is how many chunks ground a generation call.
const DefaultTopK = 5

// embedBatchSize bounds how many chunks go into one embedding request.
const embedBatchSize = 64

const groundingPrompt = `You are a helpful assistant who answers questions based on provided context. You must only use the provided context, and cannot use your own knowledge. If the context does not contain the information needed to answer, say that you do not have enough information.`

// Answer is the result of one grounded query.
type Answer struct {
	Response string   `json:"response"`
	Chunks   []Scored `json:"chunks"`
}

// Pipeline owns the chunk index and answers questions against it.
type Pipeline struct {
	embedder  llm.Embedder
	generator llm.ChatCompleter
	index     *Index
	topK      int
	logger    *zap.Logger
}

// Build loads every .txt document under corpusDir, chunks and embeds it,
// and returns a ready pipeline. A missing or empty corpus is not an
// error: the pipeline still answers, grounded on nothing.
func Build(ctx context.Context, corpusDir string, embedder llm.Embedder, generator llm.ChatCompleter, logger *zap.Logger) (*Pipeline, error) {
	p := &Pipeline{
		embedder:  embedder,
		generator: generator,
		index:     NewIndex(),
		topK:      DefaultTopK,
		logger:    logger,
	}

	chunks, err := loadCorpus(corpusDir)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		logger.Warn("knowledge base corpus is empty", zap.String("dir", corpusDir))
		return p, nil
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vecs, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding corpus chunks: %w", err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedding corpus chunks: got %d vectors for %d texts", len(vecs), len(batch))
		}

		for i, c := range batch {
			if err := p.index.Add(c, vecs[i]); err != nil {
				return nil, fmt.Errorf("indexing corpus chunks: %w", err)
			}
		}
	}

	logger.Info("knowledge base built",
		zap.String("dir", corpusDir),
		zap.Int("chunks", p.index.Len()))
	return p, nil
}

// loadCorpus reads every .txt file in dir and splits it into chunks.
func loadCorpus(dir string) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading corpus dir: %w", err)
	}

	var chunks []Chunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading corpus file %s: %w", path, err)
		}

		for i, text := range SplitText(string(data), DefaultChunkSize, DefaultChunkOverlap) {
			chunks = append(chunks, Chunk{
				Content:  text,
				Source:   entry.Name(),
				Position: i,
			})
		}
	}
	return chunks, nil
}

// Len returns the number of indexed chunks.
func (p *Pipeline) Len() int { return p.index.Len() }

// Query answers a question grounded on the top-k most similar chunks.
// With an empty index it still returns a generated response and an empty
// chunk list rather than failing.
func (p *Pipeline) Query(ctx context.Context, question string) (Answer, error) {
	var retrieved []Scored

	if p.index.Len() > 0 {
		vecs, err := p.embedder.Embed(ctx, []string{question})
		if err != nil {
			return Answer{}, fmt.Errorf("embedding question: %w", err)
		}
		if len(vecs) == 1 {
			retrieved = p.index.Search(vecs[0], p.topK)
		}
	}

	parts := make([]string, len(retrieved))
	for i, s := range retrieved {
		parts[i] = s.Content
	}
	contextBlock := strings.Join(parts, "\n\n")

	user := fmt.Sprintf("### Question\n%s\n\n### Context\n%s", question, contextBlock)
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: groundingPrompt},
		{Role: openai.ChatMessageRoleUser, Content: user},
	}

	resp, err := p.generator.Complete(ctx, messages, nil)
	if err != nil {
		return Answer{}, fmt.Errorf("grounded generation: %w", err)
	}

	return Answer{Response: resp.Content, Chunks: retrieved}, nil
}
