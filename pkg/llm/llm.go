// Package llm answers free-form crop questions through chat-completion
// models. Providers are tried in order through a fallback chain; when every
// model fails the chain answers with a fixed apology.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/haivivi/cropcare/pkg/fallback"
)

var (
	// ErrRateLimited is returned when a provider rejects the call for quota
	// or rate reasons.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrModel is returned for model-side failures: refusals, truncation,
	// unexpected finish reasons.
	ErrModel = errors.New("llm: model error")

	// ErrEmpty is returned when a model produced no text.
	ErrEmpty = errors.New("llm: empty completion")
)

// DefaultSystemPrompt frames every completion.
const DefaultSystemPrompt = "You are CropCare, an agricultural assistant that helps farmers with crop diseases, " +
	"pests, soil, watering and nutrition. Answer in plain language in at most five sentences. " +
	"If the question is not about plants or farming, politely steer the conversation back to crop care."

// DefaultApology is returned when every provider failed.
const DefaultApology = "I'm sorry, I can't reach the crop advisory service right now. Please try again in a moment, " +
	"or ask about a specific disease such as 'apple scab' or 'late blight'."

// Request is one completion request.
type Request struct {
	System string
	Prompt string
}

// Completer produces a completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Provider is a named completer in a chain.
type Provider struct {
	Name      string
	Completer Completer
	Timeout   time.Duration
}

// ChainConfig configures NewChain.
type ChainConfig struct {
	Providers []Provider

	// Timeout applies to providers without their own timeout.
	Timeout time.Duration

	// System replaces DefaultSystemPrompt when the request has none.
	System string

	// Apology replaces DefaultApology.
	Apology string

	Observer fallback.Observer
	Logger   *slog.Logger
}

// Chain tries each model in order and falls back to an apology.
type Chain struct {
	chain  *fallback.Chain[Request, string]
	system string
}

// NewChain creates a completion chain.
func NewChain(cfg ChainConfig) *Chain {
	apology := cfg.Apology
	if apology == "" {
		apology = DefaultApology
	}
	system := cfg.System
	if system == "" {
		system = DefaultSystemPrompt
	}
	providers := make([]fallback.Provider[Request, string], 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers = append(providers, fallback.Provider[Request, string]{
			Name:    p.Name,
			Call:    p.Completer.Complete,
			Timeout: p.Timeout,
		})
	}
	return &Chain{
		system: system,
		chain: fallback.New(fallback.Config[Request, string]{
			Name:      "llm",
			Providers: providers,
			Timeout:   cfg.Timeout,
			Validate:  nonEmpty,
			Terminal:  func(Request) string { return apology },
			Observer:  cfg.Observer,
			Logger:    cfg.Logger,
		}),
	}
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmpty
	}
	return nil
}

// Configured reports whether the chain has at least one provider.
func (c *Chain) Configured() bool { return c != nil && c.chain.Len() > 0 }

// Providers returns the provider names in order.
func (c *Chain) Providers() []string { return c.chain.Providers() }

// Ask answers prompt with the chain's system prompt. It returns the text
// and the provider that produced it, or fallback.ProviderNone with the
// apology.
func (c *Chain) Ask(ctx context.Context, prompt string) (string, string) {
	text, provider := c.chain.Invoke(ctx, Request{System: c.system, Prompt: prompt})
	return strings.TrimSpace(text), provider
}
