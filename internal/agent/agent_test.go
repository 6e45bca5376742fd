package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"upcagent/internal/extract"
	"upcagent/internal/rag"
	"upcagent/internal/tools"
)

// scriptedModel plays back a fixed sequence of assistant messages, one
// per reasoning step, and records every conversation it was shown.
type scriptedModel struct {
	script []openai.ChatCompletionMessage
	calls  int
	seen   [][]openai.ChatCompletionMessage
	err    error
}

func (m *scriptedModel) Complete(_ context.Context, messages []openai.ChatCompletionMessage, _ []openai.Tool) (openai.ChatCompletionMessage, error) {
	m.seen = append(m.seen, append([]openai.ChatCompletionMessage(nil), messages...))
	if m.err != nil {
		return openai.ChatCompletionMessage{}, m.err
	}
	if m.calls >= len(m.script) {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "done"}, nil
	}
	msg := m.script[m.calls]
	m.calls++
	return msg, nil
}

type countingExtractor struct{ calls atomic.Int64 }

func (c *countingExtractor) Extract(_ context.Context, _ string) extract.Result {
	c.calls.Add(1)
	return extract.Result{UPC: "028400596008", Description: "hot fries", Confidence: extract.High, Found: true}
}

type stubKB struct{}

func (stubKB) Query(_ context.Context, _ string) (rag.Answer, error) {
	return rag.Answer{Response: "hot fries are a corn snack"}, nil
}

type stubLookup struct{ err error }

func (s stubLookup) Lookup(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "ANDY CAPP'S HOT FRIES", nil
}

type stubSearch struct{}

func (stubSearch) Search(_ context.Context, _ string) (string, error) { return "web info", nil }

func toolCall(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:   id,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func newTestAgent(model *scriptedModel, extractor tools.Extractor) *Agent {
	registry := tools.NewRegistry(extractor, stubKB{}, stubLookup{}, stubSearch{}, zap.NewNop())
	return New(model, registry, 0, zap.NewNop())
}

func TestInvokeDirectAnswerNoTools(t *testing.T) {
	model := &scriptedModel{script: []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleAssistant, Content: "UPC codes identify retail products."},
	}}
	extractor := &countingExtractor{}
	a := newTestAgent(model, extractor)

	answer, err := a.Invoke(context.Background(), "How do UPC codes work?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "UPC codes identify retail products.", answer)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, int64(0), extractor.calls.Load(), "extraction tool must not run for concept questions")
}

func TestInvokeToolRoundTrip(t *testing.T) {
	model := &scriptedModel{script: []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{
				toolCall("call_1", "extract_upc", `{"text": "upc 028400596008 hot fries"}`),
			},
		},
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{
				toolCall("call_2", "validate_upc", `{"upc": "028400596008"}`),
				toolCall("call_3", "search_knowledge_base", `{"question": "hot fries"}`),
			},
		},
		{Role: openai.ChatMessageRoleAssistant, Content: "Hot fries are a corn snack."},
	}}
	extractor := &countingExtractor{}
	a := newTestAgent(model, extractor)

	answer, err := a.Invoke(context.Background(), "tell me about upc 028400596008 hot fries", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Hot fries are a corn snack.", answer)
	assert.Equal(t, 3, model.calls)
	assert.Equal(t, int64(1), extractor.calls.Load())

	// The final reasoning step saw the whole history: policy prompt,
	// user message, two assistant turns and three tool results.
	final := model.seen[len(model.seen)-1]
	require.Len(t, final, 7)
	assert.Equal(t, openai.ChatMessageRoleSystem, final[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, final[1].Role)

	// Tool results are linked to the requests that produced them, in
	// emission order.
	assert.Equal(t, "call_1", final[3].ToolCallID)
	assert.Equal(t, openai.ChatMessageRoleTool, final[3].Role)
	assert.Equal(t, "call_2", final[5].ToolCallID)
	assert.Equal(t, "call_3", final[6].ToolCallID)
}

func TestInvokeToolFailureKeepsLoopAlive(t *testing.T) {
	model := &scriptedModel{script: []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{
				toolCall("call_1", "lookup_product", `{"query": "028400596008"}`),
			},
		},
		{Role: openai.ChatMessageRoleAssistant, Content: "Sorry, the product database is unavailable."},
	}}

	registry := tools.NewRegistry(&countingExtractor{}, stubKB{}, stubLookup{err: errors.New("fdc timeout")}, stubSearch{}, zap.NewNop())
	a := New(model, registry, 0, zap.NewNop())

	answer, err := a.Invoke(context.Background(), "look up 028400596008", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, the product database is unavailable.", answer)

	// The failure reached the model as an in-band tool result.
	final := model.seen[len(model.seen)-1]
	toolMsg := final[len(final)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "fdc timeout")
}

func TestInvokeUnknownToolKeepsLoopAlive(t *testing.T) {
	model := &scriptedModel{script: []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{
				toolCall("call_1", "no_such_tool", `{}`),
			},
		},
		{Role: openai.ChatMessageRoleAssistant, Content: "recovered"},
	}}
	a := newTestAgent(model, &countingExtractor{})

	answer, err := a.Invoke(context.Background(), "hi", "s1")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
}

func TestInvokeRoundLimit(t *testing.T) {
	// A model that requests a tool on every step never terminates on
	// its own; the cap must stop it with an in-band answer.
	looping := make([]openai.ChatCompletionMessage, 20)
	for i := range looping {
		looping[i] = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{
				toolCall("call_x", "web_search", `{"query": "again"}`),
			},
		}
	}
	model := &scriptedModel{script: looping}
	a := newTestAgent(model, &countingExtractor{})

	answer, err := a.Invoke(context.Background(), "loop forever", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Equal(t, DefaultMaxRounds, model.calls)
}

func TestInvokeReasoningFailureIsFatal(t *testing.T) {
	model := &scriptedModel{err: errors.New("connection refused")}
	a := newTestAgent(model, &countingExtractor{})

	_, err := a.Invoke(context.Background(), "hi", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reasoning call failed")
}
