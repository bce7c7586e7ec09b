package feedback

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	MinWordCount       = 20
	MinUniqueWordCount = 5
)

type TranscriptStats struct {
	WordCount       int
	UniqueWordCount int
}

// ValidationError rejects a transcript that is too short or too repetitive
// to be worth sending upstream.
type ValidationError struct {
	WordCount       int
	UniqueWordCount int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"Transcription too short or not meaningful enough. Please provide a more detailed answer (word count: %d, unique words: %d; need at least %d words and %d unique words)",
		e.WordCount, e.UniqueWordCount, MinWordCount, MinUniqueWordCount,
	)
}

func CountWords(transcript string) TranscriptStats {
	words := strings.Fields(transcript)
	unique := make(map[string]struct{}, len(words))
	for _, word := range words {
		token := normalizeToken(word)
		if token == "" {
			continue
		}
		unique[token] = struct{}{}
	}
	return TranscriptStats{WordCount: len(words), UniqueWordCount: len(unique)}
}

// Validate fails with *ValidationError when the transcript has fewer than
// MinWordCount words or fewer than MinUniqueWordCount distinct tokens.
func Validate(transcript string) (TranscriptStats, error) {
	stats := CountWords(transcript)
	if stats.WordCount < MinWordCount || stats.UniqueWordCount < MinUniqueWordCount {
		return stats, &ValidationError{WordCount: stats.WordCount, UniqueWordCount: stats.UniqueWordCount}
	}
	return stats, nil
}

func normalizeToken(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
