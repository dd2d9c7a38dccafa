package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/rahul/planwise/internal/observability"
	"github.com/rahul/planwise/internal/plan"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrUpstreamUnavailable covers every failed completion call: transport
// errors, non-200 responses and bodies that don't decode.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Generator asks the completion service for the raw card text.
type Generator struct {
	Model       llms.Model
	Prompts     *PromptManager
	Logger      *observability.Logger
	Temperature float64
}

func NewGenerator(model llms.Model, prompts *PromptManager, logger *observability.Logger, temperature float64) *Generator {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Generator{
		Model:       model,
		Prompts:     prompts,
		Logger:      logger,
		Temperature: temperature,
	}
}

// Generate sends one completion request for req and returns the message
// content. An empty string with a nil error means the service answered but
// said nothing. There are no retries.
func (g *Generator) Generate(ctx context.Context, req plan.Request) (string, error) {
	userPrompt, err := g.Prompts.UserPrompt(req)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(g.Prompts.SystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt)},
		},
	}

	resp, err := g.Model.GenerateContent(ctx, messages, llms.WithTemperature(g.Temperature))
	if err != nil {
		if isEmptyResponse(err) {
			g.Logger.LogLLM(userPrompt, "")
			return "", nil
		}
		g.Logger.LogUpstreamError(err, 0, "")
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var content string
	if resp != nil && len(resp.Choices) > 0 && resp.Choices[0] != nil {
		content = resp.Choices[0].Content
	}
	g.Logger.LogLLM(userPrompt, content)
	return content, nil
}

// isEmptyResponse matches the "no choices" errors of both langchaingo layers.
// The client package's sentinel is internal, so it's matched by text.
func isEmptyResponse(err error) bool {
	return errors.Is(err, openai.ErrEmptyResponse) || err.Error() == "empty response"
}
