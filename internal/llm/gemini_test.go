package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestModelMapping(t *testing.T) {
	tests := []struct {
		models map[string]string
		in     string
		want   string
	}{
		{geminiModels, "gemini-flash", "gemini-2.0-flash"},
		{geminiModels, "gemini-2.5-pro", "gemini-2.5-pro"},
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{openaiModels, "gpt-4o-mini", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, tt.models); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(keywordSchema().Definition)

	if s.Type != genai.TypeObject {
		t.Fatalf("Type = %s, want OBJECT", s.Type)
	}
	kw, ok := s.Properties["keywords"]
	if !ok {
		t.Fatal("keywords property missing")
	}
	if kw.Type != genai.TypeArray || kw.Items == nil || kw.Items.Type != genai.TypeString {
		t.Errorf("keywords = %+v, want array of string", kw)
	}
	if len(s.Required) != 1 || s.Required[0] != "keywords" {
		t.Errorf("Required = %v", s.Required)
	}

	enum := geminiSchema(map[string]any{"type": "string", "enum": []string{"remembers", "forgets"}})
	if len(enum.Enum) != 2 {
		t.Errorf("Enum = %v, want 2 values", enum.Enum)
	}
	if unknown := geminiSchema(map[string]any{"type": "null"}); unknown.Type != genai.TypeString {
		t.Errorf("unknown type = %s, want STRING", unknown.Type)
	}
}
