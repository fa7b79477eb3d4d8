package compaction

import "strings"

// DefaultContextWindow is used for models missing from the limits table.
const DefaultContextWindow = 200000

// ModelLimits maps a model name, or a substring of one, to its context window in tokens.
type ModelLimits map[string]int

// DefaultModelLimits returns the built-in context window table.
func DefaultModelLimits() ModelLimits {
	return ModelLimits{
		// Claude 4 models
		"claude-sonnet-4-5": 200000,
		"claude-opus-4-5":   200000,
		"claude-haiku-4-5":  200000,
		"claude-sonnet-4":   200000,
		"claude-opus-4":     200000,
		// Claude 3.x models
		"claude-3-7-sonnet": 200000,
		"claude-3-5-sonnet": 200000,
		"claude-3-5-haiku":  200000,
		"claude-3-opus":     200000,
		"claude-3-sonnet":   200000,
		"claude-3-haiku":    200000,
		// OpenAI
		"gpt-4o":        128000,
		"gpt-4-turbo":   128000,
		"gpt-4":         8192,
		"gpt-3.5-turbo": 16385,
		"o1":            200000,
		// Google
		"gemini-1.5-pro":   2097152,
		"gemini-1.5-flash": 1048576,
		"gemini-2.0-flash": 1048576,
	}
}

// Resolve returns the context window for model. An exact key wins; otherwise
// the longest key contained in the model name is used, so "gpt-4o-mini" maps
// to "gpt-4o" rather than "gpt-4". Unknown models get DefaultContextWindow.
func (l ModelLimits) Resolve(model string) int {
	if limit, ok := l[model]; ok {
		return limit
	}

	best := ""
	for name := range l {
		if name == "" || !strings.Contains(model, name) {
			continue
		}
		if len(name) > len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	if best != "" {
		return l[best]
	}

	return DefaultContextWindow
}
