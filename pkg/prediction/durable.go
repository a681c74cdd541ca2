package prediction

import (
	"context"
	"errors"
)

var (
	// ErrConnectivity means the durable tier could not be reached.
	ErrConnectivity = errors.New("prediction: durable store unreachable")

	// ErrSchema means the durable tier rejected the record shape.
	ErrSchema = errors.New("prediction: durable store schema mismatch")

	// ErrClosed is returned by operations on a closed tier.
	ErrClosed = errors.New("prediction: durable store closed")
)

// Query selects predictions from a durable tier. Results are always ordered
// by creation time, newest first.
type Query struct {
	UserID string
	// Limit caps the result count. Zero means no limit.
	Limit int
}

// Durable is a persistent tier.
type Durable interface {
	// Name identifies the tier in traces and logs.
	Name() string

	// Ping probes connectivity.
	Ping(ctx context.Context) error

	// Reconnect drops and re-establishes the underlying connection.
	Reconnect(ctx context.Context) error

	Insert(ctx context.Context, p Prediction) error
	Query(ctx context.Context, q Query) ([]Prediction, error)
	Close() error
}
