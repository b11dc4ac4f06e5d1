package ai

import (
	"strings"
	"testing"
)

type testResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func TestParse_DirectJSON(t *testing.T) {
	result := Parse[testResponse](`{"success": true, "message": "hello"}`, "")
	if !result.Success {
		t.Fatalf("Expected successful parse, got error: %s", result.Error)
	}
	if !result.Data.Success || result.Data.Message != "hello" {
		t.Errorf("unexpected data: %+v", result.Data)
	}
	if result.Strategy != "direct" {
		t.Errorf("expected direct strategy, got %s", result.Strategy)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	result := Parse[testResponse]("  ", "")
	if result.Success {
		t.Error("Expected parse to fail on empty input")
	}
	if result.Error != "empty input" {
		t.Errorf("Expected 'empty input' error, got: %s", result.Error)
	}
}

func TestParse_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		strategy string
		message  string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"success\": true, \"message\": \"fenced\"}\n```",
			strategy: "fences",
			message:  "fenced",
		},
		{
			name:     "fence inside prose",
			input:    "Here is my decision:\n```\n{\"success\": true, \"message\": \"prose\"}\n```\nLet me know.",
			strategy: "fences",
			message:  "prose",
		},
		{
			name:     "trailing comma",
			input:    "{\"success\": true, \"message\": \"comma\",}",
			strategy: "cleanup",
			message:  "comma",
		},
		{
			name:     "line comment",
			input:    "{\n  // decided\n  \"success\": true,\n  \"message\": \"see http://x.y\"\n}",
			strategy: "cleanup",
			message:  "see http://x.y",
		},
		{
			name:     "mixed content",
			input:    "I think {\"success\": true, \"message\": \"brace } in string\"} is right. {\"other\": 1}",
			strategy: "extract",
			message:  "brace } in string",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse[testResponse](tt.input, "")
			if !result.Success {
				t.Fatalf("parse failed: %s", result.Error)
			}
			if result.Strategy != tt.strategy {
				t.Errorf("strategy = %s, want %s", result.Strategy, tt.strategy)
			}
			if result.Data.Message != tt.message {
				t.Errorf("message = %q, want %q", result.Data.Message, tt.message)
			}
		})
	}
}

func TestParse_Failure(t *testing.T) {
	result := Parse[testResponse]("no json here at all", "decision")
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(result.Error, "decision: all JSON parsing strategies failed") {
		t.Errorf("unexpected error: %s", result.Error)
	}
}

func TestExtractObject(t *testing.T) {
	if got := extractObject(`x {"a": {"b": "}"}} y`); got != `{"a": {"b": "}"}}` {
		t.Errorf("got %q", got)
	}
	if got := extractObject("no braces"); got != "" {
		t.Errorf("got %q", got)
	}
	if got := extractObject(`{"unterminated": 1`); got != "" {
		t.Errorf("got %q", got)
	}
}
