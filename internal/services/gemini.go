package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"

	"cvtailor/internal/config"
)

// CompletionService is the narrow contract the pipeline has on the text
// completion provider. Responses are treated as untrusted text; callers
// always validate and repair before using them.
type CompletionService interface {
	Complete(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error)
	CompleteWithRetry(ctx context.Context, prompt string, temperature float32, maxTokens int32, maxAttempts int) (string, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type geminiService struct {
	client       *genai.Client
	modelName    string
	embedModel   string
	callTimeout  time.Duration
	initialDelay time.Duration
}

func NewGeminiService(cfg config.GeminiConfig, retryInitialDelay time.Duration) (CompletionService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:       client,
		modelName:    cfg.Model,
		embedModel:   cfg.EmbedModel,
		callTimeout:  cfg.CallTimeout,
		initialDelay: retryInitialDelay,
	}, nil
}

// GenerateEmbedding implements CompletionService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, &ServiceError{Op: "embed", Err: err}
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, &ServiceError{Op: "embed", Err: fmt.Errorf("empty embedding result")}
	}

	return result.Embeddings[0].Values, nil
}

// Complete implements CompletionService. Every call carries a bounded
// timeout so a hung provider call fails the stage instead of the run.
func (g *geminiService) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), genConfig)
	if err != nil {
		return "", &ServiceError{Op: "complete", Err: err}
	}

	if resp == nil {
		return "", &ServiceError{Op: "complete", Err: fmt.Errorf("nil response")}
	}

	text := resp.Text()
	if text == "" {
		return "", &ServiceError{Op: "complete", Err: fmt.Errorf("no text content in response")}
	}

	return text, nil
}

// CompleteWithRetry implements CompletionService. Retries with bounded
// exponential backoff, doubling the delay each attempt.
func (g *geminiService) CompleteWithRetry(ctx context.Context, prompt string, temperature float32, maxTokens int32, maxAttempts int) (string, error) {
	var lastErr error
	delay := g.initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := g.Complete(ctx, prompt, temperature, maxTokens)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if attempt < maxAttempts {
			log.Printf("⚠️ Completion attempt %d failed: %v. Retrying in %s...\n", attempt, err, delay)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
