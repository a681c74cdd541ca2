package prediction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Driver names accepted by OpenSQL.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var _ Durable = (*SQL)(nil)

var sqlOpen = sql.Open

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverPgx, DriverPostgres:
		return dialectPostgres, nil
	case DriverSQLite:
		return dialectSQLite, nil
	}
	return 0, fmt.Errorf("prediction: unsupported sql driver %q", driver)
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	image_name  TEXT NOT NULL DEFAULT '',
	image_data  TEXT NOT NULL DEFAULT '',
	prediction  TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS predictions_user_id_idx ON predictions (user_id);
`

// SQLite has no timestamp type; created_at holds Unix nanoseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	image_name  TEXT NOT NULL DEFAULT '',
	image_data  TEXT NOT NULL DEFAULT '',
	prediction  TEXT NOT NULL,
	confidence  REAL NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS predictions_user_id_idx ON predictions (user_id);
`

// SQL is a durable tier on database/sql. Postgres is reached through pgx
// ("pgx") or lib/pq ("postgres"); SQLite through modernc ("sqlite").
type SQL struct {
	driver  string
	dsn     string
	dialect dialect

	mu sync.RWMutex
	db *sql.DB
}

// OpenSQL opens the database, checks connectivity and creates the
// predictions table when missing. On an ErrConnectivity failure the returned
// SQL is still non-nil and connects on the next Reconnect.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	s := &SQL{driver: driver, dsn: dsn, dialect: d}
	db, err := s.open(ctx)
	if errors.Is(err, ErrConnectivity) {
		return s, err
	}
	if err != nil {
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *SQL) open(ctx context.Context) (*sql.DB, error) {
	db, err := sqlOpen(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConnectivity, s.driver, err)
	}
	if s.dialect == dialectSQLite {
		// Every connection to ":memory:" is its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrConnectivity, s.driver, err)
	}
	schema := postgresSchema
	if s.dialect == dialectSQLite {
		schema = sqliteSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: apply schema: %v", ErrSchema, err)
		}
	}
	return db, nil
}

// Name returns the driver name.
func (s *SQL) Name() string { return s.driver }

func (s *SQL) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *SQL) Ping(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}

func (s *SQL) Reconnect(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.db
	s.db = db
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func (s *SQL) Insert(ctx context.Context, p Prediction) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	q := `INSERT INTO predictions (id, user_id, image_name, image_data, prediction, confidence, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	var created any = p.CreatedAt.UTC()
	if s.dialect == dialectSQLite {
		q = `INSERT INTO predictions (id, user_id, image_name, image_data, prediction, confidence, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
		created = p.CreatedAt.UnixNano()
	}
	_, err = db.ExecContext(ctx, q, p.ID, p.UserID, p.ImageName, p.ImageBase64, p.DiseaseLabel, p.Confidence, created)
	return classify(err)
}

func (s *SQL) Query(ctx context.Context, q Query) ([]Prediction, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	ph := func(n int) string { return fmt.Sprintf("$%d", n) }
	if s.dialect == dialectSQLite {
		ph = func(int) string { return "?" }
	}
	stmt := `SELECT id, user_id, image_name, image_data, prediction, confidence, created_at
FROM predictions WHERE user_id = ` + ph(1) + ` ORDER BY created_at DESC`
	args := []any{q.UserID}
	if q.Limit > 0 {
		stmt += " LIMIT " + ph(2)
		args = append(args, q.Limit)
	}
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []Prediction
	for rows.Next() {
		var p Prediction
		if s.dialect == dialectSQLite {
			var nanos int64
			if err := rows.Scan(&p.ID, &p.UserID, &p.ImageName, &p.ImageBase64, &p.DiseaseLabel, &p.Confidence, &nanos); err != nil {
				return nil, fmt.Errorf("%w: scan: %v", ErrSchema, err)
			}
			p.CreatedAt = time.Unix(0, nanos).UTC()
		} else {
			if err := rows.Scan(&p.ID, &p.UserID, &p.ImageName, &p.ImageBase64, &p.DiseaseLabel, &p.Confidence, &p.CreatedAt); err != nil {
				return nil, fmt.Errorf("%w: scan: %v", ErrSchema, err)
			}
			p.CreatedAt = p.CreatedAt.UTC()
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *SQL) Close() error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}

// Postgres SQLSTATE codes for a missing table or column.
const (
	sqlstateUndefinedTable  = "42P01"
	sqlstateUndefinedColumn = "42703"
)

// classify maps driver errors onto ErrSchema and ErrConnectivity.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var code string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code = pgErr.Code
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	}
	switch {
	case code == sqlstateUndefinedTable || code == sqlstateUndefinedColumn:
		return fmt.Errorf("%w: %v", ErrSchema, err)
	case code != "":
		return fmt.Errorf("prediction: sql: %w", err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return fmt.Errorf("%w: %v", ErrSchema, err)
	case errors.Is(err, sql.ErrConnDone), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return fmt.Errorf("prediction: sql: %w", err)
}
