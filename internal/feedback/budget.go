package feedback

import "unicode/utf8"

const (
	ContextWindow = 8192
	MaxOutputCap  = 4000
	Temperature   = 0.1
)

type CompletionBudget struct {
	Model           string
	MaxOutputTokens int
}

// EstimateTokens is a rough four-characters-per-token guess, not a tokenizer.
func EstimateTokens(prompt string) int {
	chars := utf8.RuneCountInString(prompt)
	return (chars + 3) / 4
}

// NewBudget caps output at MaxOutputCap and at whatever is left of the
// context window. It never goes below zero.
func NewBudget(model string, estimatedInputTokens int) CompletionBudget {
	remaining := ContextWindow - estimatedInputTokens
	maxTokens := min(MaxOutputCap, remaining)
	if maxTokens < 0 {
		maxTokens = 0
	}
	return CompletionBudget{Model: model, MaxOutputTokens: maxTokens}
}
