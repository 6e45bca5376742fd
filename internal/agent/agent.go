// Package agent runs the reasoning/tool-execution loop that answers one
// user request.
package agent

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"upcagent/internal/llm"
	"upcagent/internal/tools"
)

// DefaultMaxRounds bounds reasoning/tool round-trips per request. The
// loop has no natural cap, so a misbehaving model that keeps requesting
// tools would otherwise spin forever.
const DefaultMaxRounds = 10

const roundLimitAnswer = "I'm sorry, I wasn't able to finish researching that within a reasonable number of steps. Could you rephrase the question or narrow it down?"

// Agent is immutable after construction and safe for concurrent use;
// each Invoke owns its conversation exclusively.
type Agent struct {
	llm       llm.ChatCompleter
	registry  *tools.Registry
	maxRounds int
	logger    *zap.Logger
}

func New(completer llm.ChatCompleter, registry *tools.Registry, maxRounds int, logger *zap.Logger) *Agent {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Agent{
		llm:       completer,
		registry:  registry,
		maxRounds: maxRounds,
		logger:    logger,
	}
}

// Invoke answers one user message. The conversation is threaded through
// the loop by value: each step appends and passes the grown slice on,
// and the whole thing is discarded when Invoke returns. The session id
// is opaque and only used for log correlation.
//
// Tool failures never abort the loop; they come back as tool-result
// messages the model can react to. A reasoning-call failure is the one
// fatal path, surfaced as an error distinct from in-band answers.
func (a *Agent) Invoke(ctx context.Context, userText, sessionID string) (string, error) {
	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: policyPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userText},
	}
	specs := a.registry.Specs()

	for round := 0; round < a.maxRounds; round++ {
		msg, err := a.llm.Complete(ctx, conv, specs)
		if err != nil {
			return "", fmt.Errorf("reasoning call failed: %w", err)
		}
		conv = append(conv, msg)

		if len(msg.ToolCalls) == 0 {
			a.logger.Debug("conversation complete",
				zap.String("session", sessionID),
				zap.Int("rounds", round+1))
			return msg.Content, nil
		}

		conv = a.executeToolCalls(ctx, conv, msg.ToolCalls, sessionID)
	}

	a.logger.Warn("round limit reached",
		zap.String("session", sessionID),
		zap.Int("max_rounds", a.maxRounds))
	return roundLimitAnswer, nil
}

// executeToolCalls dispatches every call from one reasoning step in the
// order the model emitted them and returns the conversation extended
// with one tool-result message per call.
func (a *Agent) executeToolCalls(ctx context.Context, conv []openai.ChatCompletionMessage, calls []openai.ToolCall, sessionID string) []openai.ChatCompletionMessage {
	for _, call := range calls {
		a.logger.Debug("dispatching tool call",
			zap.String("session", sessionID),
			zap.String("tool", call.Function.Name),
			zap.String("call_id", call.ID))

		result := a.registry.Dispatch(ctx, call.Function.Name, call.Function.Arguments)

		conv = append(conv, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}
	return conv
}
