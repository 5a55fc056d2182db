package paper

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Generator is the external generative model provider. Implementations
// return RecoverableError for every failure mode; the orchestrator treats
// all of them as "fall back".
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls Google Gemini with near-deterministic sampling.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{
		client:      client,
		model:       modelName,
		temperature: temperature,
	}, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// Generate sends the prompt and returns the raw text of the first candidate.
// Nothing is validated here; the response validator owns trust decisions.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &RecoverableError{Reason: ReasonInvalidOutput, Err: errors.New("model returned no candidates")}
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// classifyGeminiError tags provider failures so the orchestrator can branch
// on the reason instead of inspecting provider error types.
func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &RecoverableError{Reason: ReasonTimeout, Err: err}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return &RecoverableError{Reason: ReasonQuota, Err: err}
	}
	return &RecoverableError{Reason: ReasonTransport, Err: err}
}
