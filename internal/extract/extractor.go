// Package extract pulls UPC codes and product descriptions out of free-form
// user text by prompting the reasoning model for a fixed JSON schema and
// repairing whatever the model actually returns.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"upcagent/internal/llm"
)

// Confidence grades how sure the extraction is.
type Confidence string

const (
	High   Confidence = "High"
	Medium Confidence = "Medium"
	Low    Confidence = "Low"
)

// Result is the outcome of one extraction call. Found is true only when a
// code of at least 8 digits was recovered.
type Result struct {
	UPC         string     `json:"upc"`
	Description string     `json:"description"`
	Confidence  Confidence `json:"confidence"`
	Found       bool       `json:"found_upc"`
	Message     string     `json:"message,omitempty"`
}

const minUPCDigits = 8

// Extractor runs the extraction prompt and the fallback parse chain.
type Extractor struct {
	llm    llm.ChatCompleter
	logger *zap.Logger
}

func New(completer llm.ChatCompleter, logger *zap.Logger) *Extractor {
	return &Extractor{llm: completer, logger: logger}
}

// Extract never fails: any unrecoverable error becomes a Result with
// Found=false, Confidence=Low and an explanatory Message.
func (e *Extractor) Extract(ctx context.Context, text string) Result {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
		{Role: openai.ChatMessageRoleUser, Content: "Extract UPC and description from: " + text},
	}

	resp, err := e.llm.Complete(ctx, messages, nil)
	if err != nil {
		e.logger.Warn("extraction model call failed", zap.Error(err))
		return failure(fmt.Sprintf("extraction model call failed: %v", err))
	}

	parsed, parseErrs := parseResponse(resp.Content)
	if parseErrs != nil {
		e.logger.Debug("response parse chain exhausted, falling back to input text",
			zap.Strings("errors", parseErrs))
		if r, ok := parseFromInput(text); ok {
			return r
		}
		return failure("all parsing methods failed: " + strings.Join(parseErrs, "; "))
	}

	return finalize(parsed)
}

// raw mirrors the JSON schema the extraction prompt demands.
type raw struct {
	UPC         string `json:"upc"`
	Description string `json:"description"`
	Confidence  string `json:"confidence"`
	FoundUPC    bool   `json:"found_upc"`
}

// finalize trims fields and recomputes Found: the model's self-reported
// flag is never trusted without a code of plausible length.
func finalize(r raw) Result {
	upcCode := strings.TrimSpace(r.UPC)
	description := strings.TrimSpace(r.Description)

	confidence := Confidence(r.Confidence)
	switch confidence {
	case High, Medium, Low:
	default:
		confidence = Medium
	}

	found := r.FoundUPC && len(upcCode) >= minUPCDigits

	result := Result{
		UPC:         upcCode,
		Description: description,
		Confidence:  confidence,
		Found:       found,
	}
	if found {
		result.Message = fmt.Sprintf("Extracted UPC: %s, Description: %s", upcCode, description)
	} else {
		result.Message = "No valid UPC found in input"
	}
	return result
}

func failure(message string) Result {
	return Result{
		Confidence: Low,
		Found:      false,
		Message:    message,
	}
}

// parseResponse walks the ordered fallback chain over the model response,
// stopping at the first stage that succeeds. On total failure it returns
// the error from every stage.
func parseResponse(content string) (raw, []string) {
	var errs []string

	if r, err := parseStrict(content); err == nil {
		return r, nil
	} else {
		errs = append(errs, fmt.Sprintf("strict parse: %v", err))
	}

	if r, err := parseGeneric(content); err == nil {
		return r, nil
	} else {
		errs = append(errs, fmt.Sprintf("generic parse: %v", err))
	}

	if r, err := parseLenient(content); err == nil {
		return r, nil
	} else {
		errs = append(errs, fmt.Sprintf("lenient parse: %v", err))
	}

	if r, err := parseFields(content); err == nil {
		return r, nil
	} else {
		errs = append(errs, fmt.Sprintf("field extraction: %v", err))
	}

	return raw{}, errs
}

// parseStrict requires a clean JSON object matching the schema exactly.
func parseStrict(content string) (raw, error) {
	var r raw
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return raw{}, err
	}
	return r, nil
}

// parseGeneric accepts any JSON object and coerces the known fields.
func parseGeneric(content string) (raw, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return raw{}, err
	}
	return rawFromMap(m), nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
var braceRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseLenient strips markdown fencing and stray prose, repairs common
// over-escaping, then retries a generic parse on the brace-delimited span.
func parseLenient(content string) (raw, error) {
	cleaned := strings.TrimSpace(content)

	if m := fenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	if m := braceRe.FindString(cleaned); m != "" {
		cleaned = m
	} else {
		return raw{}, fmt.Errorf("no JSON object found")
	}

	cleaned = strings.ReplaceAll(cleaned, `\"`, `"`)

	var m map[string]any
	if err := json.Unmarshal([]byte(cleaned), &m); err != nil {
		return raw{}, err
	}
	return rawFromMap(m), nil
}

var (
	upcFieldRe   = regexp.MustCompile(`"upc"\s*:\s*"([^"]*)"`)
	descFieldRe  = regexp.MustCompile(`"description"\s*:\s*"([^"]*)"`)
	confFieldRe  = regexp.MustCompile(`"confidence"\s*:\s*"([^"]*)"`)
	foundFieldRe = regexp.MustCompile(`"found_upc"\s*:\s*(true|false)`)
)

// parseFields matches each key/value pair independently in the raw text.
// Succeeds as long as the upc field is present; the rest default.
func parseFields(content string) (raw, error) {
	upcMatch := upcFieldRe.FindStringSubmatch(content)
	if upcMatch == nil {
		return raw{}, fmt.Errorf("no upc field in response")
	}

	r := raw{UPC: upcMatch[1], Confidence: string(Medium)}
	if m := descFieldRe.FindStringSubmatch(content); m != nil {
		r.Description = m[1]
	}
	if m := confFieldRe.FindStringSubmatch(content); m != nil {
		r.Confidence = m[1]
	}
	if m := foundFieldRe.FindStringSubmatch(content); m != nil {
		r.FoundUPC = m[1] == "true"
	}
	return r, nil
}

func rawFromMap(m map[string]any) raw {
	var r raw
	if v, ok := m["upc"].(string); ok {
		r.UPC = v
	}
	if v, ok := m["description"].(string); ok {
		r.Description = v
	}
	if v, ok := m["confidence"].(string); ok {
		r.Confidence = v
	}
	if v, ok := m["found_upc"].(bool); ok {
		r.FoundUPC = v
	}
	return r
}

var (
	digitRunRe = regexp.MustCompile(`\b(\d{8,12})\b`)
	descRes    = []*regexp.Regexp{
		regexp.MustCompile(`and\s+the\s+description\s+([^.!?]+)`),
		regexp.MustCompile(`description\s+([^.!?]+)`),
	}
	foodWordRe = regexp.MustCompile(`\b(?:chips?|fries?|cereal|cookies?|snacks?|food|product|crackers?|candy|chocolate|soda|drink)\b`)
)

// parseFromInput is the last resort: it ignores the model response
// entirely and pattern-matches the original user text.
func parseFromInput(text string) (Result, bool) {
	upcMatch := digitRunRe.FindStringSubmatch(text)
	if upcMatch == nil {
		return Result{}, false
	}
	code := upcMatch[1]

	lower := strings.ToLower(text)
	var description string
	for _, re := range descRes {
		if m := re.FindStringSubmatch(lower); m != nil {
			description = strings.TrimSpace(m[1])
			break
		}
	}
	if description == "" {
		words := foodWordRe.FindAllString(lower, -1)
		description = strings.Join(words, " ")
	}

	return Result{
		UPC:         code,
		Description: description,
		Confidence:  Medium,
		Found:       true,
		Message:     fmt.Sprintf("Extracted via input fallback: UPC=%s, Description=%s", code, description),
	}, true
}
