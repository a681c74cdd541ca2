// Package prediction records classification results per user. Writes pass
// through a persistence chain (durable tier, then memory); reads merge both
// tiers newest first.
package prediction

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Anonymous is the user id recorded when none is given.
const Anonymous = "anonymous"

// Prediction is one stored classification result.
type Prediction struct {
	ID           string    `json:"id" msgpack:"id"`
	UserID       string    `json:"user_id" msgpack:"user_id"`
	ImageName    string    `json:"image_name" msgpack:"image_name"`
	DiseaseLabel string    `json:"prediction" msgpack:"prediction"`
	Confidence   float64   `json:"confidence" msgpack:"confidence"`
	CreatedAt    time.Time `json:"created_at" msgpack:"created_at"`
	ImageBase64  string    `json:"image_data,omitempty" msgpack:"image_data,omitempty"`
}

// Draft is unvalidated write input. Confidence may be a number, a numeric
// string ("87.5", "87.5%") or a json.Number.
type Draft struct {
	ID          string
	UserID      string
	ImageName   string
	Label       string
	Confidence  any
	CreatedAt   time.Time
	ImageBase64 string
}

// Sanitize turns the draft into a Prediction that satisfies the storage
// invariants: a UUID id, a confidence in [0,100], a non-zero timestamp and a
// non-empty user.
func (d Draft) Sanitize(now time.Time) Prediction {
	p := Prediction{
		ID:           d.ID,
		UserID:       strings.TrimSpace(d.UserID),
		ImageName:    d.ImageName,
		DiseaseLabel: d.Label,
		Confidence:   Confidence(d.Confidence),
		CreatedAt:    d.CreatedAt,
		ImageBase64:  d.ImageBase64,
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		p.ID = uuid.NewString()
	}
	if p.UserID == "" {
		p.UserID = Anonymous
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p
}

// Confidence coerces v to a percentage in [0,100]. Values that cannot be
// read as a number yield 0.
func Confidence(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return f
}
