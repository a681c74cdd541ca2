package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/haivivi/cropcare/pkg/fallback"
)

// TierMemory names the in-memory tier in traces and Record results.
const TierMemory = "memory"

// StoreConfig configures a Store.
type StoreConfig struct {
	// Durable is the persistent tier. Nil means memory only.
	Durable Durable

	// Timeout bounds each durable call. Zero uses fallback.DefaultTimeout.
	Timeout time.Duration

	Observer fallback.Observer
	Logger   *slog.Logger

	// Now overrides the clock used for missing timestamps.
	Now func() time.Time
}

// Store is the prediction store. Records go to the durable tier when it is
// reachable and to memory otherwise.
type Store struct {
	durable Durable
	memory  *Memory
	chain   *fallback.Chain[Prediction, string]
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewStore builds the store and its persistence chain.
func NewStore(cfg StoreConfig) *Store {
	s := &Store{
		durable: cfg.Durable,
		memory:  NewMemory(),
		timeout: cfg.Timeout,
		now:     cfg.Now,
		logger:  cfg.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = fallback.DefaultTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	var providers []fallback.Provider[Prediction, string]
	if s.durable != nil {
		providers = append(providers, fallback.Provider[Prediction, string]{
			Name: s.durable.Name(),
			Call: s.writeDurable,
		})
	}
	providers = append(providers, fallback.Provider[Prediction, string]{
		Name: TierMemory,
		Call: func(_ context.Context, p Prediction) (string, error) {
			return s.writeMemory(p), nil
		},
	})
	s.chain = fallback.New(fallback.Config[Prediction, string]{
		Name:      "persistence",
		Providers: providers,
		Timeout:   s.timeout,
		// A cancelled caller skips every provider; memory still takes it.
		Terminal: s.writeMemory,
		Observer: cfg.Observer,
		Logger:   s.logger,
	})
	return s
}

// writeDurable probes the tier, reconnects once if the probe fails, then
// inserts.
func (s *Store) writeDurable(ctx context.Context, p Prediction) (string, error) {
	d := s.durable
	if err := d.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "prediction: durable ping failed, reconnecting",
			"tier", d.Name(), "error", err)
		if err := d.Reconnect(ctx); err != nil {
			return "", err
		}
		if err := d.Ping(ctx); err != nil {
			return "", err
		}
	}
	if err := d.Insert(ctx, p); err != nil {
		return "", err
	}
	return d.Name(), nil
}

func (s *Store) writeMemory(p Prediction) string {
	s.memory.Insert(p)
	return TierMemory
}

// Memory returns the in-memory tier.
func (s *Store) Memory() *Memory { return s.memory }

// Record sanitizes the draft and persists it. It returns the stored
// prediction and the tier that accepted it.
func (s *Store) Record(ctx context.Context, d Draft) (Prediction, string) {
	p := d.Sanitize(s.now())
	_, tier := s.chain.Invoke(ctx, p)
	if tier == fallback.ProviderNone {
		tier = TierMemory
	}
	return p, tier
}

// ListFor returns the user's predictions from every tier, deduplicated by id
// and sorted newest first. Ties keep durable rows ahead of memory rows, each
// in their own order.
func (s *Store) ListFor(ctx context.Context, userID string) []Prediction {
	if userID == "" {
		userID = Anonymous
	}
	var all []Prediction
	if s.durable != nil {
		rows, err := s.queryDurable(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "prediction: durable query failed",
				"tier", s.durable.Name(), "user", userID, "error", err)
		}
		all = append(all, rows...)
	}
	all = append(all, s.memory.ListFor(userID)...)

	seen := make(map[string]bool, len(all))
	merged := all[:0]
	for _, p := range all {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}
	slices.SortStableFunc(merged, func(a, b Prediction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return merged
}

func (s *Store) queryDurable(ctx context.Context, userID string) ([]Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	type result struct {
		rows []Prediction
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rows, err := s.durable.Query(ctx, Query{UserID: userID})
		done <- result{rows, err}
	}()
	select {
	case r := <-done:
		return r.rows, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, ctx.Err())
	}
}

// Close closes the durable tier.
func (s *Store) Close() error {
	if s.durable == nil {
		return nil
	}
	if err := s.durable.Close(); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}
