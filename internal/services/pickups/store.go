package pickups

import (
	"sort"
	"sync"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("pickup not found")

// Store holds the pickups loaded for the session. Readers get copies; the only
// writer is ApplyMutation.
type Store struct {
	mu       sync.RWMutex
	pickups  map[int64]models.Pickup
	reserved map[int64]struct{}
}

func NewStore() *Store {
	return &Store{
		pickups:  make(map[int64]models.Pickup),
		reserved: make(map[int64]struct{}),
	}
}

// Load replaces the collection. Called by the loader only.
func (s *Store) Load(items []models.Pickup) {
	m := make(map[int64]models.Pickup, len(items))
	for _, p := range items {
		m[p.ID] = p.Clone()
	}
	s.mu.Lock()
	s.pickups = m
	s.mu.Unlock()
}

func (s *Store) Get(id int64) (models.Pickup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pickups[id]
	if !ok {
		return models.Pickup{}, false
	}
	return p.Clone(), true
}

// List returns every pickup ordered by id.
func (s *Store) List() []models.Pickup {
	s.mu.RLock()
	out := make([]models.Pickup, 0, len(s.pickups))
	for _, p := range s.pickups {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reserve marks id as having a change in commit, whatever its kind. While the
// reservation is held a second Reserve for id gets ErrApplying. The returned
// release must be called exactly once.
func (s *Store) Reserve(id int64) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pickups[id]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := s.reserved[id]; ok {
		return nil, ErrApplying
	}
	s.reserved[id] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.reserved, id)
		s.mu.Unlock()
	}, nil
}

// ApplyMutation runs fn on the current pickup under the write lock and stores
// its result. fn returning an error leaves the pickup untouched.
func (s *Store) ApplyMutation(id int64, fn func(p models.Pickup) (models.Pickup, error)) (models.Pickup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.pickups[id]
	if !ok {
		return models.Pickup{}, ErrNotFound
	}
	next, err := fn(cur.Clone())
	if err != nil {
		return models.Pickup{}, err
	}
	next.ID = id
	s.pickups[id] = next
	return next.Clone(), nil
}
