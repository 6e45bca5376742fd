// Package tools defines the agent's closed capability set and dispatches
// tool calls requested by the reasoning model.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"upcagent/internal/extract"
	"upcagent/internal/rag"
	"upcagent/internal/upc"
)

// Kind enumerates every capability the agent has. The set is fixed at
// compile time; dispatch is an exhaustive switch over it, and the
// name/description strings are data attached for prompt construction.
type Kind int

const (
	KindExtractUPC Kind = iota
	KindValidateUPC
	KindRepairUPC
	KindKnowledgeBase
	KindProductLookup
	KindWebSearch
)

// Capability describes one tool as the reasoning model sees it. The
// description is contractual: the model decides when to call the tool
// based on it.
type Capability struct {
	Kind        Kind
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
}

// Extractor recovers a UPC and description from free-form text.
type Extractor interface {
	Extract(ctx context.Context, text string) extract.Result
}

// KnowledgeBase answers a question grounded on the product corpus.
type KnowledgeBase interface {
	Query(ctx context.Context, question string) (rag.Answer, error)
}

// ProductDatabase looks up a product in an external food database.
type ProductDatabase interface {
	Lookup(ctx context.Context, query string) (string, error)
}

// WebSearcher runs a general web search.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Registry holds the fixed, ordered capability set and the collaborators
// that back it. Immutable once constructed.
type Registry struct {
	caps      []Capability
	byName    map[string]Kind
	extractor Extractor
	kb        KnowledgeBase
	products  ProductDatabase
	web       WebSearcher
	logger    *zap.Logger
}

// NewRegistry builds the registry. Order matters: the extraction tool is
// offered first because the policy prompt instructs preferential use.
func NewRegistry(extractor Extractor, kb KnowledgeBase, products ProductDatabase, web WebSearcher, logger *zap.Logger) *Registry {
	r := &Registry{
		caps:      builtinCapabilities(),
		byName:    make(map[string]Kind),
		extractor: extractor,
		kb:        kb,
		products:  products,
		web:       web,
		logger:    logger,
	}
	for _, c := range r.caps {
		r.byName[c.Name] = c.Kind
	}
	return r
}

// Capabilities returns the ordered capability set.
func (r *Registry) Capabilities() []Capability {
	return r.caps
}

// Specs renders the capability set as OpenAI tool definitions.
func (r *Registry) Specs() []openai.Tool {
	specs := make([]openai.Tool, len(r.caps))
	for i, c := range r.caps {
		specs[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        c.Name,
				Description: c.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": c.Parameters,
					"required":   c.Required,
				},
			},
		}
	}
	return specs
}

// Dispatch executes one tool call and always returns result text: any
// failure, including an unknown tool name or unparseable arguments,
// becomes an error message the reasoning model can react to.
func (r *Registry) Dispatch(ctx context.Context, name, argsJSON string) string {
	kind, ok := r.byName[name]
	if !ok {
		r.logger.Warn("model requested unknown tool", zap.String("tool", name))
		return fmt.Sprintf("Error: unknown tool %q", name)
	}

	args := make(map[string]any)
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return fmt.Sprintf("Error parsing arguments: %v", err)
		}
	}

	result, err := r.execute(ctx, kind, args)
	if err != nil {
		r.logger.Warn("tool execution failed",
			zap.String("tool", name),
			zap.Error(err))
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

// execute is the single exhaustive dispatch over the capability set.
func (r *Registry) execute(ctx context.Context, kind Kind, args map[string]any) (string, error) {
	switch kind {
	case KindExtractUPC:
		return r.runExtract(ctx, args)
	case KindValidateUPC:
		return runValidate(args)
	case KindRepairUPC:
		return runRepair(args)
	case KindKnowledgeBase:
		return r.runKnowledgeBase(ctx, args)
	case KindProductLookup:
		return r.runProductLookup(ctx, args)
	case KindWebSearch:
		return r.runWebSearch(ctx, args)
	default:
		return "", fmt.Errorf("unhandled capability %d", kind)
	}
}

func (r *Registry) runExtract(ctx context.Context, args map[string]any) (string, error) {
	text, err := stringArg(args, "text")
	if err != nil {
		return "", err
	}
	result := r.extractor.Extract(ctx, text)
	return marshalResult(result)
}

func runValidate(args map[string]any) (string, error) {
	code, err := stringArg(args, "upc")
	if err != nil {
		return "", err
	}

	normalized := upc.Normalize(code)
	validationErr := upc.Validate(normalized)
	resp := map[string]any{
		"upc":   normalized,
		"valid": validationErr == nil,
	}
	if validationErr != nil {
		resp["message"] = validationErr.Error()
	} else {
		resp["message"] = "UPC is valid"
	}
	return marshalResult(resp)
}

func runRepair(args map[string]any) (string, error) {
	code, err := stringArg(args, "upc")
	if err != nil {
		return "", err
	}

	repaired, err := upc.Repair(code)
	if err != nil {
		return "", err
	}
	return marshalResult(map[string]any{
		"original": upc.Normalize(code),
		"repaired": repaired,
		"valid":    true,
	})
}

func (r *Registry) runKnowledgeBase(ctx context.Context, args map[string]any) (string, error) {
	question, err := stringArg(args, "question")
	if err != nil {
		return "", err
	}

	answer, err := r.kb.Query(ctx, question)
	if err != nil {
		return "", err
	}
	return marshalResult(answer)
}

func (r *Registry) runProductLookup(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	return r.products.Lookup(ctx, query)
}

func (r *Registry) runWebSearch(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	return r.web.Search(ctx, query)
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

func marshalResult(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(data), nil
}
