package metrics

import (
	"fmt"

	"github.com/getsentry/sentry-go"

	"github.com/haivivi/cropcare/pkg/fallback"
)

// Sentry reports exhausted chains to Sentry. Successful invocations are
// ignored.
type Sentry struct {
	Hub *sentry.Hub
}

var _ fallback.Observer = Sentry{}

// Observe implements fallback.Observer.
func (s Sentry) Observe(t fallback.Trace) {
	if !t.Exhausted() || s.Hub == nil {
		return
	}
	attempts := make(map[string]any, len(t.Attempts))
	for _, a := range t.Attempts {
		if a.Err != nil {
			attempts[a.Provider] = a.Err.Error()
		}
	}
	s.Hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelWarning)
		scope.SetTag("chain", t.Chain)
		scope.SetContext("attempts", attempts)
		s.Hub.CaptureMessage(fmt.Sprintf("%s chain exhausted after %d attempts", t.Chain, len(t.Attempts)))
	})
}
