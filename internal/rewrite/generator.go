package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"articles/backend/internal/cohere"

	"go.uber.org/zap"
)

type ChatClient interface {
	Chat(ctx context.Context, req cohere.ChatRequest) (string, error)
}

type Generator struct {
	client      ChatClient
	models      []string
	temperature float64
	logger      *zap.Logger
}

// NewGenerator tries models in the given order, most capable first.
func NewGenerator(client ChatClient, models []string, temperature float64, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Generator{
		client:      client,
		models:      append([]string(nil), models...),
		temperature: temperature,
		logger:      logger,
	}
}

// Generate rewrites original using the two references. Only a model-not-found
// failure moves on to the next model; any other failure ends the attempt.
func (g Generator) Generate(ctx context.Context, original, ref1, ref2 string, links []string) (string, error) {
	if g.client == nil {
		return "", newError(KindConfig, "COHERE_API_KEY is not set. Please set it in environment variables", nil)
	}
	if len(g.models) == 0 {
		return "", newError(KindGeneration, "No generation models are configured", nil)
	}

	messages := []cohere.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(original, ref1, ref2, links)},
	}

	var lastErr error
	for _, model := range g.models {
		text, err := g.client.Chat(ctx, cohere.ChatRequest{
			Model:       model,
			Messages:    messages,
			Temperature: g.temperature,
		})
		if err == nil {
			text = strings.TrimSpace(text)
			if text == "" {
				return "", newError(KindGeneration, fmt.Sprintf("Generation API returned empty content for model %s", model), cohere.ErrEmptyResponse)
			}
			g.logger.Info("rewrite generated", zap.String("model", model), zap.Int("length", len(text)))
			return text, nil
		}

		lastErr = err
		if errors.Is(err, cohere.ErrMissingAPIKey) {
			return "", newError(KindConfig, "COHERE_API_KEY is not set. Please set it in environment variables", err)
		}
		if !cohere.IsModelNotFound(err) {
			return "", newError(KindGeneration, fmt.Sprintf("Generation API error with model %s", model), err)
		}
		g.logger.Warn("model not available, trying next", zap.String("model", model), zap.Error(err))
	}

	return "", newError(
		KindGeneration,
		fmt.Sprintf("Failed to rewrite article. Tried models: %s", strings.Join(g.models, ", ")),
		fmt.Errorf("last error: %w", lastErr),
	)
}
