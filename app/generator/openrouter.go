package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"todo-tree/app/models"
)

// OpenRouter asks an OpenAI-compatible chat-completions endpoint to break a
// parent into children.
type OpenRouter struct {
	model  string
	client *openai.Client
}

func NewOpenRouter(cfg Config) *OpenRouter {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.timeout()}

	return &OpenRouter{
		model:  cfg.Model,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (o *OpenRouter) Propose(ctx context.Context, title, description string) ([]models.ChildProposal, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt(title, description)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: empty response")
	}

	return ParseProposals(resp.Choices[0].Message.Content)
}

func prompt(title, description string) string {
	if description == "" {
		description = "none"
	}
	return fmt.Sprintf(`Break the parent todo below into practical child todos.

Parent todo:
- title: %s
- description: %s

Rules:
- 3 to 6 children, in a sensible execution order
- each child takes between 15 minutes and 2 hours
- each child is concrete and clearly done or not done
- titles start with a verb and are short enough for a phone screen
- descriptions are one or two sentences with the completion criterion

Respond with a JSON array only, no prose and no code fences:
[{"title": "...", "description": "..."}]`, title, description)
}
