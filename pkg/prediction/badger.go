package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var _ Durable = (*Badger)(nil)

// BadgerOptions configures the Badger tier.
type BadgerOptions struct {
	// Dir holds the data files. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory. Used by tests.
	InMemory bool

	Logger *slog.Logger
}

// Badger is an embedded durable tier. Values are msgpack-encoded
// predictions under keys that sort by user then creation time.
type Badger struct {
	opts badger.Options

	mu sync.RWMutex
	db *badger.DB
}

// OpenBadger opens (or creates) the database.
func OpenBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("prediction: BadgerOptions.Dir is required for on-disk mode")
	}
	opts := badger.DefaultOptions(bopts.Dir)
	if bopts.InMemory {
		opts = opts.WithInMemory(true)
	}
	logger := bopts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.WithLogger(badgerLogger{logger.With("component", "badger")})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", ErrConnectivity, err)
	}
	return &Badger{opts: opts, db: db}, nil
}

func (b *Badger) Name() string { return "badger" }

func (b *Badger) conn() (*badger.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil || b.db.IsClosed() {
		return nil, ErrClosed
	}
	return b.db, nil
}

func (b *Badger) Ping(context.Context) error {
	if _, err := b.conn(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}

// Reconnect reopens the database if it was closed.
func (b *Badger) Reconnect(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil && !b.db.IsClosed() {
		return nil
	}
	db, err := badger.Open(b.opts)
	if err != nil {
		return fmt.Errorf("%w: reopen badger: %v", ErrConnectivity, err)
	}
	b.db = db
	return nil
}

func userPrefix(userID string) []byte {
	return []byte("pred/" + url.PathEscape(userID) + "/")
}

func predictionKey(p Prediction) []byte {
	// Fixed-width nanos keep lexical order equal to time order.
	return fmt.Appendf(userPrefix(p.UserID), "%020d/%s", p.CreatedAt.UnixNano(), p.ID)
}

func (b *Badger) Insert(_ context.Context, p Prediction) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	val, err := msgpack.Marshal(&p)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSchema, err)
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(predictionKey(p), val)
	})
}

func (b *Badger) Query(_ context.Context, q Query) ([]Prediction, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	prefix := userPrefix(q.UserID)
	var out []Prediction
	err = db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.Reverse = true
		iopts.Prefix = prefix
		it := txn.NewIterator(iopts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var p Prediction
			err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &p)
			})
			if err != nil {
				return fmt.Errorf("%w: decode %s: %v", ErrSchema, it.Item().Key(), err)
			}
			p.CreatedAt = p.CreatedAt.UTC()
			out = append(out, p)
			if q.Limit > 0 && len(out) >= q.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil || b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}

// badgerLogger routes badger's output to slog, dropping info and debug.
type badgerLogger struct{ l *slog.Logger }

func (g badgerLogger) Errorf(f string, v ...any)   { g.l.Error(fmt.Sprintf(f, v...)) }
func (g badgerLogger) Warningf(f string, v ...any) { g.l.Warn(fmt.Sprintf(f, v...)) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}
