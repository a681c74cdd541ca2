// Package classify labels leaf images. Classifiers run behind a fallback
// chain; the highest-scoring label is what gets stored and resolved.
package classify

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/haivivi/cropcare/pkg/fallback"
)

var (
	// ErrNoLabels is returned when a classifier produced no concepts.
	ErrNoLabels = errors.New("classify: no labels")

	// ErrUnavailable is returned when every classifier failed.
	ErrUnavailable = errors.New("classify: no classifier available")

	// ErrEmptyImage is returned for a zero-length image.
	ErrEmptyImage = errors.New("classify: empty image")
)

// Label is one concept with its score in [0,1].
type Label struct {
	Name  string  `json:"name"`
	Score float64 `json:"value"`
}

// Confidence is the score as a percentage rounded to two decimals.
func (l Label) Confidence() float64 {
	return math.Round(l.Score*100*100) / 100
}

// Classifier labels an image.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]Label, error)
}

// Top returns the highest-scoring label. Earlier labels win ties.
func Top(labels []Label) (Label, bool) {
	if len(labels) == 0 {
		return Label{}, false
	}
	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return best, true
}

// Provider is a named classifier in a chain.
type Provider struct {
	Name       string
	Classifier Classifier
	Timeout    time.Duration
}

// ChainConfig configures NewChain.
type ChainConfig struct {
	Providers []Provider
	Timeout   time.Duration
	Observer  fallback.Observer
	Logger    *slog.Logger
}

// Chain tries each classifier in order.
type Chain struct {
	chain *fallback.Chain[[]byte, []Label]
}

// NewChain creates a classification chain.
func NewChain(cfg ChainConfig) *Chain {
	providers := make([]fallback.Provider[[]byte, []Label], 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers = append(providers, fallback.Provider[[]byte, []Label]{
			Name:    p.Name,
			Call:    p.Classifier.Classify,
			Timeout: p.Timeout,
		})
	}
	return &Chain{chain: fallback.New(fallback.Config[[]byte, []Label]{
		Name:      "classify",
		Providers: providers,
		Timeout:   cfg.Timeout,
		Validate: func(ls []Label) error {
			if len(ls) == 0 {
				return ErrNoLabels
			}
			return nil
		},
		Observer: cfg.Observer,
		Logger:   cfg.Logger,
	})}
}

// Providers returns the provider names in order.
func (c *Chain) Providers() []string { return c.chain.Providers() }

// Classify returns the top label and the provider that produced it.
func (c *Chain) Classify(ctx context.Context, image []byte) (Label, string, error) {
	if len(image) == 0 {
		return Label{}, "", ErrEmptyImage
	}
	labels, provider := c.chain.Invoke(ctx, image)
	if provider == fallback.ProviderNone {
		return Label{}, provider, ErrUnavailable
	}
	top, _ := Top(labels)
	return top, provider, nil
}
