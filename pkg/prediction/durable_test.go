package prediction

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newSQLite(t *testing.T) *SQL {
	t.Helper()
	s, err := OpenSQL(context.Background(), DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newBadger(t *testing.T) *Badger {
	t.Helper()
	b, err := OpenBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func testDurable(t *testing.T, d Durable) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := d.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	var ids []string
	for i := range 3 {
		p := Prediction{
			ID:           uuid.NewString(),
			UserID:       "farmer/1",
			ImageName:    "leaf.jpg",
			DiseaseLabel: "Tomato___Early_blight",
			Confidence:   80 + float64(i),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := d.Insert(ctx, p); err != nil {
			t.Fatalf("Insert #%d: %v", i, err)
		}
		ids = append(ids, p.ID)
	}
	if err := d.Insert(ctx, Prediction{ID: uuid.NewString(), UserID: "farmer", DiseaseLabel: "x", CreatedAt: base}); err != nil {
		t.Fatalf("Insert other user: %v", err)
	}

	got, err := d.Query(ctx, Query{UserID: "farmer/1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Query = %d rows, want 3", len(got))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if got[i].ID != want {
			t.Errorf("Query[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
	if got[0].Confidence != 82 || got[0].ImageName != "leaf.jpg" || got[0].DiseaseLabel != "Tomato___Early_blight" {
		t.Errorf("Query[0] = %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("Query[0].CreatedAt = %v", got[0].CreatedAt)
	}

	limited, err := d.Query(ctx, Query{UserID: "farmer/1", Limit: 1})
	if err != nil {
		t.Fatalf("Query limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != ids[2] {
		t.Fatalf("Query limit = %+v", limited)
	}

	none, err := d.Query(ctx, Query{UserID: "nobody"})
	if err != nil || len(none) != 0 {
		t.Fatalf("Query nobody = %+v, %v", none, err)
	}
}

func TestSQLite(t *testing.T) {
	testDurable(t, newSQLite(t))
}

func TestBadger(t *testing.T) {
	testDurable(t, newBadger(t))
}

func TestSQLiteDuplicateID(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	p := Prediction{ID: uuid.NewString(), UserID: "u", DiseaseLabel: "x", CreatedAt: time.Now()}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, p); err == nil {
		t.Fatal("second Insert succeeded, want primary key error")
	}
}

func TestSQLiteMissingTable(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	db, _ := s.conn()
	if _, err := db.ExecContext(ctx, "DROP TABLE predictions"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	err := s.Insert(ctx, Prediction{ID: uuid.NewString(), UserID: "u", CreatedAt: time.Now()})
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("Insert = %v, want ErrSchema", err)
	}
}

func TestSQLiteReconnect(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Ping after Close = %v, want ErrClosed", err)
	}
	if err := s.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping after Reconnect: %v", err)
	}
}

func TestSQLOpenFailure(t *testing.T) {
	restore := overrideSQLOpen(func(string, string) (*sql.DB, error) {
		return nil, errors.New("dial refused")
	})
	defer restore()

	_, err := OpenSQL(context.Background(), DriverPgx, "postgres://nowhere")
	if !errors.Is(err, ErrConnectivity) {
		t.Fatalf("OpenSQL = %v, want ErrConnectivity", err)
	}
}

func TestSQLConnectsLater(t *testing.T) {
	ctx := context.Background()
	restore := overrideSQLOpen(func(string, string) (*sql.DB, error) {
		return nil, errors.New("dial refused")
	})
	s, err := OpenSQL(ctx, DriverSQLite, ":memory:")
	restore()
	if !errors.Is(err, ErrConnectivity) || s == nil {
		t.Fatalf("OpenSQL = %v, %v; want handle and ErrConnectivity", s, err)
	}
	t.Cleanup(func() { s.Close() })

	store := NewStore(StoreConfig{Durable: s})
	if _, tier := store.Record(ctx, Draft{UserID: "u", Label: "Apple___Apple_scab"}); tier != DriverSQLite {
		t.Fatalf("tier = %q, want %q", tier, DriverSQLite)
	}
}

func TestSQLUnknownDriver(t *testing.T) {
	if _, err := OpenSQL(context.Background(), "mysql", ""); err == nil {
		t.Fatal("OpenSQL(mysql) succeeded")
	}
}

func TestBadgerReconnect(t *testing.T) {
	b := newBadger(t)
	ctx := context.Background()
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Ping(ctx); !errors.Is(err, ErrConnectivity) {
		t.Fatalf("Ping after Close = %v, want ErrConnectivity", err)
	}
	if err := b.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if err := b.Ping(ctx); err != nil {
		t.Fatalf("Ping after Reconnect: %v", err)
	}
}

func TestStoreWithBadger(t *testing.T) {
	b := newBadger(t)
	s := NewStore(StoreConfig{Durable: b})
	ctx := context.Background()

	p, tier := s.Record(ctx, Draft{UserID: "u1", Label: "Potato___Late_blight", Confidence: "66.6%"})
	if tier != "badger" {
		t.Fatalf("tier = %q, want badger", tier)
	}
	got := s.ListFor(ctx, "u1")
	if len(got) != 1 || got[0].ID != p.ID || got[0].Confidence != 66.6 {
		t.Fatalf("ListFor = %+v", got)
	}
}

// overrideSQLOpen swaps sqlOpen and returns a restore function.
func overrideSQLOpen(fn func(driver, dsn string) (*sql.DB, error)) func() {
	prev := sqlOpen
	sqlOpen = fn
	return func() { sqlOpen = prev }
}
