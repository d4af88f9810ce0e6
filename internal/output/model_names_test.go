package output

import (
	"testing"
)

func TestShortenModelName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		desc     string
	}{
		{"claude-opus-4-1", "Opus-4.1", "Opus 4.1"},
		{"claude-sonnet-4-5", "Sonnet-4.5", "Sonnet 4.5"},
		{"claude-haiku-4-5", "Haiku-4.5", "Haiku 4.5"},
		{"claude-opus-4", "Opus-4", "Opus 4"},
		{"claude-sonnet-4", "Sonnet-4", "Sonnet 4"},
		{"claude-haiku-3", "Haiku-3", "Haiku 3"},

		{"gpt-4o", "gpt-4o", "GPT-4o passes through"},
		{"gpt-4o-mini", "gpt-4o-mini", "GPT-4o-mini passes through"},
		{"gpt-3.5-turbo", "gpt-3.5", "GPT-3.5 shortened"},
		{"gemini-2.5-pro", "gemini-2.5-p", "Gemini truncated to 12 chars"},

		{"some-unknown-model", "some-unknown", "unknown model truncated"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			result := ShortenModelName(tc.input)
			if result != tc.expected {
				t.Errorf("input %s: expected %s, got %s", tc.input, tc.expected, result)
			}
		})
	}
}
