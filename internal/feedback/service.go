package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"interviewcoach/internal/upstream/openai"
)

// ErrBudgetExhausted means the prompt alone fills the model's context window.
var ErrBudgetExhausted = errors.New("answer is too long to evaluate; please shorten it")

type Completer interface {
	Complete(ctx context.Context, spec PromptSpec, budget CompletionBudget) (openai.ChatCompletionResponse, error)
}

type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Result struct {
	Body      json.RawMessage
	Simulated bool
	Stats     TranscriptStats
	Budget    CompletionBudget
	Usage     *TokenUsage
}

type Service struct {
	completer     Completer
	model         string
	hasCredential bool
	logger        *slog.Logger
}

// New wires the feedback pipeline. With hasCredential false every valid
// request is answered with SimulatedResponse and completer is never called.
func New(completer Completer, model string, hasCredential bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		completer:     completer,
		model:         strings.TrimSpace(model),
		hasCredential: hasCredential,
		logger:        logger,
	}
}

// Generate runs validate, build, budget, complete. Errors are
// *ValidationError, ErrBudgetExhausted or whatever the completer returns.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	stats, err := Validate(req.Transcript)
	if err != nil {
		return Result{Stats: stats}, err
	}

	if !s.hasCredential {
		s.logger.Warn("completion api key not configured, returning simulated feedback", "mode", req.Mode)
		return Result{
			Body:      SimulatedResponse(req.Mode, s.model),
			Simulated: true,
			Stats:     stats,
		}, nil
	}

	spec := BuildPrompt(req)
	budget := NewBudget(s.model, spec.EstimatedInputTokens)
	if budget.MaxOutputTokens == 0 {
		return Result{Stats: stats, Budget: budget}, ErrBudgetExhausted
	}
	s.logger.Debug("feedback prompt built",
		"mode", req.Mode,
		"estimated_input_tokens", spec.EstimatedInputTokens,
		"max_tokens", budget.MaxOutputTokens,
	)

	resp, err := s.completer.Complete(ctx, spec, budget)
	if err != nil {
		return Result{Stats: stats, Budget: budget}, err
	}

	result := Result{Body: resp.Body, Stats: stats, Budget: budget}
	if resp.Usage != nil {
		result.Usage = &TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}
