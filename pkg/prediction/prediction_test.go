package prediction

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{87.5, 87.5},
		{float32(12.5), 12.5},
		{42, 42},
		{int64(7), 7},
		{"87.5", 87.5},
		{" 87.5% ", 87.5},
		{"93%", 93},
		{json.Number("61.25"), 61.25},
		{"high", 0},
		{nil, 0},
		{[]int{1}, 0},
		{math.NaN(), 0},
		{-3, 0},
		{140.2, 100},
		{"250", 100},
	}
	for _, tt := range tests {
		if got := Confidence(tt.in); got != tt.want {
			t.Errorf("Confidence(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fills defaults", func(t *testing.T) {
		p := Draft{ID: "not-a-uuid", Label: "Tomato___Late_blight", Confidence: "91.2%"}.Sanitize(now)
		if _, err := uuid.Parse(p.ID); err != nil {
			t.Fatalf("ID = %q, not a UUID", p.ID)
		}
		if p.ID == "not-a-uuid" {
			t.Fatal("ID was not regenerated")
		}
		if p.UserID != Anonymous {
			t.Errorf("UserID = %q, want %q", p.UserID, Anonymous)
		}
		if !p.CreatedAt.Equal(now) {
			t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, now)
		}
		if p.Confidence != 91.2 {
			t.Errorf("Confidence = %v, want 91.2", p.Confidence)
		}
		if p.DiseaseLabel != "Tomato___Late_blight" {
			t.Errorf("DiseaseLabel = %q", p.DiseaseLabel)
		}
	})

	t.Run("keeps valid fields", func(t *testing.T) {
		id := uuid.NewString()
		at := now.Add(-time.Hour)
		p := Draft{ID: id, UserID: " farmer-1 ", CreatedAt: at, Confidence: 55}.Sanitize(now)
		if p.ID != id {
			t.Errorf("ID = %q, want %q", p.ID, id)
		}
		if p.UserID != "farmer-1" {
			t.Errorf("UserID = %q, want farmer-1", p.UserID)
		}
		if !p.CreatedAt.Equal(at) {
			t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, at)
		}
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.Insert(Prediction{ID: "a", UserID: "u1"})
	m.Insert(Prediction{ID: "b", UserID: "u2"})
	m.Insert(Prediction{ID: "c", UserID: "u1"})

	got := m.ListFor("u1")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("ListFor(u1) = %+v, want [a c]", got)
	}
	got[0].ID = "mutated"
	if m.ListFor("u1")[0].ID != "a" {
		t.Fatal("ListFor returned shared storage")
	}
	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
}
