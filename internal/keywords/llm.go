package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/memoir/internal/llm"
)

// LLMConfig tunes the model call.
type LLMConfig struct {
	MaxTokens   int
	Temperature float64
	Limit       int
}

func DefaultLLMConfig() LLMConfig {
	return LLMConfig{MaxTokens: 256, Temperature: 0.2, Limit: MaxKeywordsPerAnswer}
}

// LLMExtractor asks a language model for the answer's salient nouns.
type LLMExtractor struct {
	provider llm.Provider
	cfg      LLMConfig
}

func NewLLMExtractor(p llm.Provider, cfg LLMConfig) *LLMExtractor {
	if cfg.Limit <= 0 {
		cfg.Limit = MaxKeywordsPerAnswer
	}
	return &LLMExtractor{provider: p, cfg: cfg}
}

// Schema is the structured output contract for keyword extraction.
var Schema = &llm.Schema{
	Name:        "answer-keywords",
	Description: "Salient keywords from a participant's autobiographical answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keywords": map[string]any{
				"type":        "array",
				"description": "Distinct nouns or short noun phrases copied verbatim from the answer",
				"items":       map[string]any{"type": "string", "minLength": 1},
				"maxItems":    MaxKeywordsPerAnswer,
			},
		},
		"required":             []any{"keywords"},
		"additionalProperties": false,
	},
}

type llmOutput struct {
	Keywords []string `json:"keywords"`
}

const systemPrompt = `You extract memory keywords from a short autobiographical answer, usually written in Korean by an older adult.

Rules:
- Return the places, people, objects, foods and events that make the memory specific.
- Copy each keyword exactly as it appears in the answer, without particles such as 은/는/이/가/에/에서.
- Prefer single nouns. Never paraphrase or translate.
- Return at most {{.Limit}} keywords, most distinctive first.`

var (
	systemTemplate = template.Must(template.New("system").Parse(systemPrompt))
	userTemplate   = template.Must(template.New("user").Parse(`Answer:
{{.}}`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *LLMExtractor) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, ErrEmptyText
	}

	system, err := render(systemTemplate, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("render keyword prompt: %w", err)
	}
	user, err := render(userTemplate, text)
	if err != nil {
		return nil, fmt.Errorf("render keyword prompt: %w", err)
	}

	resp, err := e.provider.Generate(llm.WithPurpose(ctx, llm.PurposeKeywords), llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Schema:      Schema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}

	var out llmOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse keyword response: %w", err)
	}
	return Normalize(out.Keywords, e.cfg.Limit), nil
}
