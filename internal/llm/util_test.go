package llm

import (
	"testing"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "inline generic block",
			input:    "```{\"key\": \"value\"}```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "\n\n  {\"key\": \"value\"}  \n",
			expected: `{"key": "value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

// Prose around the payload is left in place so callers can reject it.
func TestCleanJSONBlock_LeavesProse(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "preamble", input: "Here is the JSON:\n{\"key\": \"value\"}"},
		{name: "apology", input: "Sorry, I can't help with that."},
		{name: "trailing text", input: "{\"key\": \"value\"}\n\nAnything else?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.input {
				t.Errorf("CleanJSONBlock() = %q, want input unchanged", result)
			}
		})
	}
}
