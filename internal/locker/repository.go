package locker

import (
	"sort"
	"sync"
)

// Repository is the authoritative store of all lockers and cabinets.
// It is built once by the composition root and shared by LockerService and AdminService.
type Repository struct {
	mu       sync.RWMutex
	lockers  map[int]*Locker
	cabinets map[int]*Cabinet
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		lockers:  make(map[int]*Locker),
		cabinets: make(map[int]*Cabinet),
	}
}

// AddLocker registers l under id.
func (r *Repository) AddLocker(id int, l *Locker) {
	r.mu.Lock()
	r.lockers[id] = l
	r.mu.Unlock()
}

// RemoveLocker deregisters the locker with the given id.
func (r *Repository) RemoveLocker(id int) {
	r.mu.Lock()
	delete(r.lockers, id)
	r.mu.Unlock()
}

// Locker looks up a locker by id.
func (r *Repository) Locker(id int) (*Locker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lockers[id]
	return l, ok
}

// Lockers returns all lockers ordered by id.
func (r *Repository) Lockers() []*Locker {
	r.mu.RLock()
	out := make([]*Locker, 0, len(r.lockers))
	for _, l := range r.lockers {
		out = append(out, l)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// AddCabinet registers c under id.
func (r *Repository) AddCabinet(id int, c *Cabinet) {
	r.mu.Lock()
	r.cabinets[id] = c
	r.mu.Unlock()
}

// RemoveCabinet deregisters the cabinet with the given id.
func (r *Repository) RemoveCabinet(id int) {
	r.mu.Lock()
	delete(r.cabinets, id)
	r.mu.Unlock()
}

// Cabinet looks up a cabinet by id.
func (r *Repository) Cabinet(id int) (*Cabinet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cabinets[id]
	return c, ok
}

// Cabinets returns all cabinets ordered by id.
func (r *Repository) Cabinets() []*Cabinet {
	r.mu.RLock()
	out := make([]*Cabinet, 0, len(r.cabinets))
	for _, c := range r.cabinets {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Reset clears every locker and cabinet. Intended for tests and debugging.
func (r *Repository) Reset() {
	r.mu.Lock()
	r.lockers = make(map[int]*Locker)
	r.cabinets = make(map[int]*Cabinet)
	r.mu.Unlock()
}
