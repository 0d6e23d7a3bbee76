// Package generator proposes child todos for a parent todo.
package generator

import (
	"context"
	"fmt"
	"time"

	"todo-tree/app/logger"
	"todo-tree/app/models"
)

const (
	DefaultModel   = "google/gemini-2.0-flash-exp:free"
	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

type Config struct {
	APIKey         string `yaml:"api_key" toml:"api_key"`
	Model          string `yaml:"model" toml:"model"`
	BaseURL        string `yaml:"base_url" toml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Proposer suggests children for a parent todo.
type Proposer interface {
	Propose(ctx context.Context, title, description string) ([]models.ChildProposal, error)
}

// New builds the proposer described by cfg. Without an API key only the
// template is used.
func New(cfg Config, log *logger.Logger) Proposer {
	if cfg.APIKey == "" {
		log.Warn().Msg("no generator API key configured, using template children")
		return Template{}
	}
	return WithFallback(NewOpenRouter(cfg), Template{}, log)
}

// Template returns a fixed four-step breakdown of the parent.
type Template struct{}

func (Template) Propose(_ context.Context, title, _ string) ([]models.ChildProposal, error) {
	steps := []struct{ suffix, description string }{
		{"preparation", "Gather what is needed to start %s"},
		{"planning", "Write down a concrete plan for %s"},
		{"execution", "Carry out %s"},
		{"review", "Check the result of %s and close it out"},
	}

	out := make([]models.ChildProposal, 0, len(steps))
	for _, s := range steps {
		out = append(out, models.ChildProposal{
			Title:       fmt.Sprintf("%s - %s", title, s.suffix),
			Description: fmt.Sprintf(s.description, title),
		})
	}
	return out, nil
}

type fallback struct {
	primary  Proposer
	fallback Proposer
	log      *logger.Logger
}

// WithFallback uses fb whenever primary fails or proposes nothing.
func WithFallback(primary, fb Proposer, log *logger.Logger) Proposer {
	return &fallback{primary: primary, fallback: fb, log: log}
}

func (f *fallback) Propose(ctx context.Context, title, description string) ([]models.ChildProposal, error) {
	proposals, err := f.primary.Propose(ctx, title, description)
	if err == nil && len(proposals) > 0 {
		return proposals, nil
	}
	if err != nil {
		f.log.Warn().Err(err).Str("parent_title", title).Msg("child generation failed, using fallback")
	}
	return f.fallback.Propose(ctx, title, description)
}
