package fallback

import (
	"context"
	"errors"
	"time"
)

// Attempt records one provider call.
type Attempt struct {
	Provider string
	Err      error
	Elapsed  time.Duration
}

// Outcome classifies the attempt as "ok", "timeout" or "error".
func (a Attempt) Outcome() string {
	switch {
	case a.Err == nil:
		return "ok"
	case errors.Is(a.Err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// Trace describes one Invoke call.
type Trace struct {
	Chain    string
	Attempts []Attempt

	// Provider is the provider that produced the result, or ProviderNone.
	Provider string

	Start   time.Time
	Elapsed time.Duration
}

// Exhausted reports whether every provider failed.
func (t Trace) Exhausted() bool { return t.Provider == ProviderNone }

// Observer receives a trace after every Invoke. Implementations must be
// safe for concurrent use.
type Observer interface {
	Observe(Trace)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Trace)

// Observe calls f(t).
func (f ObserverFunc) Observe(t Trace) { f(t) }

// Observers fans a trace out to several observers. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(t Trace) {
		for _, o := range obs {
			if o != nil {
				o.Observe(t)
			}
		}
	})
}
