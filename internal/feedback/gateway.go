package feedback

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"interviewcoach/internal/gateway"
	"interviewcoach/internal/upstream/openai"
)

type ChatClient interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Gateway makes exactly one completion call per request. Failures are
// returned as *gateway.Error; there is no retry.
type Gateway struct {
	client  ChatClient
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	Policy  gateway.Policy
}

func NewGateway(client ChatClient, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		client:  client,
		timeout: timeout,
		logger:  logger,
		tracer:  otel.Tracer("interviewcoach/feedback"),
		Policy:  gateway.HardFail,
	}
}

func (g *Gateway) Complete(ctx context.Context, spec PromptSpec, budget CompletionBudget) (openai.ChatCompletionResponse, error) {
	ctx, span := g.tracer.Start(ctx, "feedback.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", budget.Model),
		attribute.Int("max_tokens", budget.MaxOutputTokens),
		attribute.Int("estimated_input_tokens", spec.EstimatedInputTokens),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: budget.Model,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: spec.SystemRole},
			{Role: "user", Content: spec.UserPrompt},
		},
		MaxTokens:   budget.MaxOutputTokens,
		Temperature: Temperature,
	})
	if err != nil {
		gwErr := gateway.Translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(gwErr.Kind))
		g.logger.Error("feedback upstream call failed",
			"kind", gwErr.Kind,
			"status", gwErr.HTTPStatus,
			"error", err,
		)
		if g.Policy == gateway.SoftFail {
			return openai.ChatCompletionResponse{Body: SimulatedResponse(ModeStandard, budget.Model)}, nil
		}
		return openai.ChatCompletionResponse{}, gwErr
	}
	if resp.Usage != nil {
		span.SetAttributes(attribute.Int("completion_tokens", resp.Usage.CompletionTokens))
	}
	return resp, nil
}
