package locker

import (
	"sort"
	"sync"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

// Cabinet is a keyed collection of lockers at one location.
// It owns membership only; the same *Locker also lives in the Repository.
type Cabinet struct {
	id int

	mu       sync.RWMutex
	location string
	lockers  map[int]*Locker
}

// NewCabinet creates an empty cabinet.
func NewCabinet(id int, location string) *Cabinet {
	return &Cabinet{
		id:       id,
		location: location,
		lockers:  make(map[int]*Locker),
	}
}

// ID returns the cabinet id.
func (c *Cabinet) ID() int {
	return c.id
}

// Location returns the cabinet location.
func (c *Cabinet) Location() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location
}

// SetLocation moves the cabinet.
func (c *Cabinet) SetLocation(location string) {
	c.mu.Lock()
	c.location = location
	c.mu.Unlock()
}

// AddLocker adds l keyed by its own id, so a key always matches the locker it maps to.
func (c *Cabinet) AddLocker(l *Locker) {
	c.mu.Lock()
	c.lockers[l.ID()] = l
	c.mu.Unlock()
}

// RemoveLocker drops the locker with the given id from the cabinet.
func (c *Cabinet) RemoveLocker(id int) {
	c.mu.Lock()
	delete(c.lockers, id)
	c.mu.Unlock()
}

// Locker returns the member locker with the given id.
func (c *Cabinet) Locker(id int) (*Locker, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lockers[id]
	if !ok {
		return nil, apperr.IllegalParameter("cabinet %d does not contain locker %d", c.id, id)
	}
	return l, nil
}

// Lockers returns the member lockers ordered by id.
func (c *Cabinet) Lockers() []*Locker {
	c.mu.RLock()
	out := make([]*Locker, 0, len(c.lockers))
	for _, l := range c.lockers {
		out = append(out, l)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of member lockers.
func (c *Cabinet) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lockers)
}
