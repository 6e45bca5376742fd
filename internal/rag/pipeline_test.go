package rag

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// hashEmbedder is a deterministic bag-of-words embedding: each word
// increments a hashed dimension. Similar texts get similar vectors.
type hashEmbedder struct{ dims int }

func (h *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, h.dims)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			f := fnv.New32a()
			f.Write([]byte(w))
			vec[int(f.Sum32())%h.dims]++
		}
		out[i] = vec
	}
	return out, nil
}

func (h *hashEmbedder) Dimensions() int { return h.dims }

// echoGenerator answers with exactly the user message it was given, so a
// test can verify the generation saw only retrieved content.
type echoGenerator struct{}

func (echoGenerator) Complete(_ context.Context, messages []openai.ChatCompletionMessage, _ []openai.Tool) (openai.ChatCompletionMessage, error) {
	last := messages[len(messages)-1]
	return openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: last.Content,
	}, nil
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func buildPipeline(t *testing.T, dir string) *Pipeline {
	t.Helper()
	p, err := Build(context.Background(), dir, &hashEmbedder{dims: 64}, echoGenerator{}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestBuildIndexesCorpus(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"fries.txt": "Hot fries are a spicy potato snack sold under UPC 028400596008.",
		"chips.txt": "Classic potato chips come in a yellow bag.",
		"notes.md":  "ignored, not a txt file",
	})

	p := buildPipeline(t, dir)
	assert.Equal(t, 2, p.Len())
}

func TestQueryReturnsMatchingChunk(t *testing.T) {
	question := "What snack is sold under UPC 028400596008?"
	dir := writeCorpus(t, map[string]string{
		"fries.txt":   "What snack is sold under UPC 028400596008? Hot fries, a spicy potato snack.",
		"chips.txt":   "Classic potato chips come in a yellow bag with no barcode printed.",
		"cookies.txt": "Chocolate chip cookies are baked fresh daily at the bakery counter.",
	})

	p := buildPipeline(t, dir)
	answer, err := p.Query(context.Background(), question)
	require.NoError(t, err)

	require.NotEmpty(t, answer.Chunks)
	sources := make([]string, len(answer.Chunks))
	for i, c := range answer.Chunks {
		sources[i] = c.Source
	}
	assert.Contains(t, sources, "fries.txt")

	// Most similar chunk comes first.
	assert.Equal(t, "fries.txt", answer.Chunks[0].Source)
	for i := 1; i < len(answer.Chunks); i++ {
		assert.GreaterOrEqual(t, answer.Chunks[i-1].Score, answer.Chunks[i].Score)
	}
}

// The grounded answer must contain nothing beyond the question and the
// retrieved chunks; the echo generator returns its input verbatim.
func TestQueryGroundsOnRetrievedChunksOnly(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"fries.txt": "Hot fries are a spicy potato snack.",
	})

	p := buildPipeline(t, dir)
	answer, err := p.Query(context.Background(), "tell me about hot fries")
	require.NoError(t, err)

	prompt := answer.Response
	require.True(t, strings.HasPrefix(prompt, "### Question"))

	_, contextBlock, found := strings.Cut(prompt, "### Context\n")
	require.True(t, found)
	for _, line := range strings.Split(strings.TrimSpace(contextBlock), "\n\n") {
		matched := false
		for _, c := range answer.Chunks {
			if c.Content == line {
				matched = true
				break
			}
		}
		assert.True(t, matched, "context line not from a retrieved chunk: %q", line)
	}
}

func TestQueryEmptyCorpus(t *testing.T) {
	p := buildPipeline(t, t.TempDir())
	require.Equal(t, 0, p.Len())

	answer, err := p.Query(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Response)
	assert.Empty(t, answer.Chunks)
}

func TestBuildMissingCorpusDir(t *testing.T) {
	p, err := Build(context.Background(), filepath.Join(t.TempDir(), "nope"),
		&hashEmbedder{dims: 16}, echoGenerator{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}

func TestIndexDimensionMismatch(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Add(Chunk{Content: "a", Source: "a.txt"}, []float32{1, 0, 0}))
	assert.Error(t, ix.Add(Chunk{Content: "b", Source: "b.txt"}, []float32{1, 0}))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}
