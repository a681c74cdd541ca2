// Package fallback implements an ordered chain of interchangeable providers.
//
// A Chain tries each provider in turn. A provider fails when it returns an
// error, panics, exceeds its deadline or produces a result the chain's
// validator rejects. When every provider has failed the chain returns its
// terminal value tagged with [ProviderNone]. Invoke never returns an error.
//
// Each call to Invoke produces a [Trace] describing every attempt. Traces
// go to the chain's [Observer]; they are not part of the result.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ProviderNone names the terminal fallback in a trace and as the provider
// returned by Invoke when every provider failed.
const ProviderNone = "none"

// DefaultTimeout bounds a provider call when neither the provider nor the
// chain configures a timeout.
const DefaultTimeout = 10 * time.Second

var (
	// ErrInvalidResult is recorded when the validator rejects a result.
	ErrInvalidResult = errors.New("fallback: invalid result")

	// ErrPanic is recorded when a provider panics.
	ErrPanic = errors.New("fallback: provider panicked")
)

// Func performs one provider call.
type Func[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Provider is a named step in a chain.
type Provider[Req, Res any] struct {
	Name string
	Call Func[Req, Res]

	// Timeout overrides the chain timeout for this provider.
	Timeout time.Duration
}

// Config describes a chain.
type Config[Req, Res any] struct {
	// Name identifies the chain in logs and traces.
	Name string

	Providers []Provider[Req, Res]

	// Timeout bounds each provider call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Validate rejects results that must be treated as failures, such as
	// empty text. Nil accepts every result.
	Validate func(Res) error

	// Terminal produces the value returned when every provider failed.
	// Nil returns the zero value.
	Terminal func(Req) Res

	Observer Observer
	Logger   *slog.Logger
}

// Chain is an ordered list of providers with a terminal fallback value.
// A Chain is safe for concurrent use.
type Chain[Req, Res any] struct {
	cfg    Config[Req, Res]
	logger *slog.Logger
}

// New creates a chain from cfg.
func New[Req, Res any](cfg Config[Req, Res]) *Chain[Req, Res] {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain[Req, Res]{
		cfg:    cfg,
		logger: logger.With("chain", cfg.Name),
	}
}

// Name returns the chain name.
func (c *Chain[Req, Res]) Name() string { return c.cfg.Name }

// Len returns the number of providers, excluding the terminal fallback.
func (c *Chain[Req, Res]) Len() int { return len(c.cfg.Providers) }

// Providers returns the provider names in invocation order.
func (c *Chain[Req, Res]) Providers() []string {
	names := make([]string, len(c.cfg.Providers))
	for i, p := range c.cfg.Providers {
		names[i] = p.Name
	}
	return names
}

// Invoke runs the providers in order and returns the first accepted result
// together with the name of the provider that produced it. When every
// provider fails it returns the terminal value and ProviderNone.
func (c *Chain[Req, Res]) Invoke(ctx context.Context, req Req) (Res, string) {
	trace := Trace{Chain: c.cfg.Name, Start: time.Now()}
	defer func() {
		trace.Elapsed = time.Since(trace.Start)
		if c.cfg.Observer != nil {
			c.cfg.Observer.Observe(trace)
		}
	}()

	for _, p := range c.cfg.Providers {
		start := time.Now()
		res, err := c.call(ctx, p, req)
		if err == nil && c.cfg.Validate != nil {
			if verr := c.cfg.Validate(res); verr != nil {
				err = fmt.Errorf("%w: %v", ErrInvalidResult, verr)
			}
		}
		trace.Attempts = append(trace.Attempts, Attempt{
			Provider: p.Name,
			Err:      err,
			Elapsed:  time.Since(start),
		})
		if err == nil {
			trace.Provider = p.Name
			return res, p.Name
		}
		c.logger.Warn("provider failed", "provider", p.Name, "error", err)
	}

	trace.Provider = ProviderNone
	c.logger.Warn("all providers failed, using terminal fallback", "attempts", len(trace.Attempts))
	var res Res
	if c.cfg.Terminal != nil {
		res = c.cfg.Terminal(req)
	}
	return res, ProviderNone
}

type outcome[Res any] struct {
	res Res
	err error
}

// call runs one provider on its own goroutine so that a provider ignoring
// its context is abandoned once the deadline passes.
func (c *Chain[Req, Res]) call(ctx context.Context, p Provider[Req, Res], req Req) (Res, error) {
	var zero Res
	if p.Call == nil {
		return zero, fmt.Errorf("fallback: provider %s has no call", p.Name)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome[Res], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[Res]{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		res, err := p.Call(ctx, req)
		done <- outcome[Res]{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
