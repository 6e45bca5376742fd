package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedCompleter returns a canned response regardless of input.
type scriptedCompleter struct {
	content string
	err     error
}

func (s *scriptedCompleter) Complete(_ context.Context, _ []openai.ChatCompletionMessage, _ []openai.Tool) (openai.ChatCompletionMessage, error) {
	if s.err != nil {
		return openai.ChatCompletionMessage{}, s.err
	}
	return openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: s.content,
	}, nil
}

func newExtractor(content string) *Extractor {
	return New(&scriptedCompleter{content: content}, zap.NewNop())
}

const cleanResponse = `{"upc": "028400596008", "description": "hot fries", "confidence": "High", "found_upc": true}`

func TestExtractCleanResponse(t *testing.T) {
	e := newExtractor(cleanResponse)
	r := e.Extract(context.Background(), "I have a product with upc 028400596008 and the description hot fries")

	assert.True(t, r.Found)
	assert.Equal(t, "028400596008", r.UPC)
	assert.Equal(t, "hot fries", r.Description)
	assert.Equal(t, High, r.Confidence)
}

// Every recoverable mangling of the same payload must yield the same
// result as the clean response.
func TestExtractRecoverableResponses(t *testing.T) {
	clean := newExtractor(cleanResponse).Extract(context.Background(), "whatever")

	mangled := map[string]string{
		"fenced":       "```json\n" + cleanResponse + "\n```",
		"bare fence":   "```\n" + cleanResponse + "\n```",
		"stray prose":  "Here is the extraction you asked for:\n" + cleanResponse + "\nLet me know if you need anything else.",
		"over-escaped": `{\"upc\": \"028400596008\", \"description\": \"hot fries\", \"confidence\": \"High\", \"found_upc\": true}`,
		"extra field":  `{"upc": "028400596008", "description": "hot fries", "confidence": "High", "found_upc": true, "note": "x"}`,
	}

	for name, content := range mangled {
		r := newExtractor(content).Extract(context.Background(), "whatever")
		assert.Equal(t, clean.UPC, r.UPC, name)
		assert.Equal(t, clean.Description, r.Description, name)
		assert.Equal(t, clean.Found, r.Found, name)
	}
}

func TestExtractFieldByField(t *testing.T) {
	// Truncated JSON: no closing brace, so every whole-object parse fails.
	e := newExtractor(`{"upc": "028400596008", "description": "hot fries", "found_upc": true`)
	r := e.Extract(context.Background(), "whatever")

	assert.True(t, r.Found)
	assert.Equal(t, "028400596008", r.UPC)
	assert.Equal(t, "hot fries", r.Description)
}

func TestExtractInputFallback(t *testing.T) {
	e := newExtractor("I'm sorry, I cannot help with that.")
	r := e.Extract(context.Background(), "I have a product with upc 028400596008 and the description hot fries")

	require.True(t, r.Found)
	assert.Equal(t, "028400596008", r.UPC)
	assert.Equal(t, "hot fries", r.Description)
	assert.Equal(t, Medium, r.Confidence)
}

func TestExtractNoDigitsAnywhere(t *testing.T) {
	e := newExtractor("total garbage, not json")
	r := e.Extract(context.Background(), "How do UPC codes work?")

	assert.False(t, r.Found)
	assert.Equal(t, Low, r.Confidence)
	assert.NotEmpty(t, r.Message)
}

func TestExtractConceptQuestion(t *testing.T) {
	e := newExtractor(`{"upc": "", "description": "", "confidence": "High", "found_upc": false}`)
	r := e.Extract(context.Background(), "How do UPC codes work?")

	assert.False(t, r.Found)
	assert.Empty(t, r.UPC)
}

// The model's self-reported flag is not trusted when the code is short.
func TestExtractShortCodeOverridesFlag(t *testing.T) {
	e := newExtractor(`{"upc": "12345", "description": "chips", "confidence": "High", "found_upc": true}`)
	r := e.Extract(context.Background(), "whatever")

	assert.False(t, r.Found)
}

func TestExtractModelError(t *testing.T) {
	e := New(&scriptedCompleter{err: errors.New("network down")}, zap.NewNop())
	r := e.Extract(context.Background(), "upc 028400596008 hot fries")

	assert.False(t, r.Found)
	assert.Equal(t, Low, r.Confidence)
	assert.Contains(t, r.Message, "network down")
}

// Feeding a prior successful result back through extraction must not
// contradict the code it reported.
func TestExtractIdempotentOnOwnOutput(t *testing.T) {
	first := newExtractor(cleanResponse).Extract(context.Background(),
		"I have a product with upc 028400596008 and the description hot fries")
	require.True(t, first.Found)

	// Model returns garbage, forcing the input-text fallback on the
	// prior result's message.
	second := newExtractor("nope").Extract(context.Background(), first.Message)
	require.True(t, second.Found)
	assert.Equal(t, first.UPC, second.UPC)
}

func TestExtractUnknownConfidenceDefaults(t *testing.T) {
	e := newExtractor(`{"upc": "028400596008", "description": "", "confidence": "Very High", "found_upc": true}`)
	r := e.Extract(context.Background(), "whatever")

	assert.Equal(t, Medium, r.Confidence)
	assert.True(t, r.Found)
}
