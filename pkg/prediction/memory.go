package prediction

import (
	"slices"
	"sync"
)

// Memory is the in-process tier. Inserts always succeed; contents are lost
// on restart.
type Memory struct {
	mu     sync.RWMutex
	byUser map[string][]Prediction
}

// NewMemory returns an empty memory tier.
func NewMemory() *Memory {
	return &Memory{byUser: make(map[string][]Prediction)}
}

// Insert appends p to its user's list.
func (m *Memory) Insert(p Prediction) {
	m.mu.Lock()
	m.byUser[p.UserID] = append(m.byUser[p.UserID], p)
	m.mu.Unlock()
}

// ListFor returns a copy of the user's predictions in insertion order.
func (m *Memory) ListFor(userID string) []Prediction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.byUser[userID])
}

// Len returns the total number of predictions held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, ps := range m.byUser {
		n += len(ps)
	}
	return n
}
