package sim

import (
	"sync"

	"github.com/google/uuid"
	"github.com/transit-ticketing-service/internal/gate"
)

// World holds the simulated travelers and answers the gates' per-tick
// volume queries.
type World struct {
	mu        sync.RWMutex
	travelers map[uuid.UUID]*Traveler
}

func NewWorld() *World {
	return &World{travelers: make(map[uuid.UUID]*Traveler)}
}

func (w *World) Add(tr *Traveler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.travelers[tr.ID()] = tr
}

func (w *World) Remove(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.travelers, id)
}

func (w *World) TravelersIntersecting(box gate.AABB) []gate.Traveler {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]gate.Traveler, 0)
	for _, tr := range w.travelers {
		if tr.Bounds().Intersects(box) {
			result = append(result, tr)
		}
	}
	return result
}
