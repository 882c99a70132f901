package signal

import (
	"sort"
	"sync"
)

var _ Bus = (*Store)(nil)

// Store is the in-memory Bus. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	floats map[Key]float32
	uints  map[Key]uint32
	stale  map[Key]bool
	params map[Param]uint32
}

func NewStore() *Store {
	return &Store{
		floats: make(map[Key]float32),
		uints:  make(map[Key]uint32),
		stale:  make(map[Key]bool),
		params: make(map[Param]uint32),
	}
}

func (s *Store) Float(k Key) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.floats[k]
}

func (s *Store) SetFloat(k Key, v float32) {
	s.mu.Lock()
	s.floats[k] = v
	s.mu.Unlock()
}

func (s *Store) Uint(k Key) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uints[k]
}

func (s *Store) SetUint(k Key, v uint32) {
	s.mu.Lock()
	s.uints[k] = v
	s.mu.Unlock()
}

func (s *Store) Stale(k Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale[k]
}

func (s *Store) SetStale(k Key, v bool) {
	s.mu.Lock()
	s.stale[k] = v
	s.mu.Unlock()
}

func (s *Store) Param(p Param) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params[p]
}

func (s *Store) SetParam(p Param, v uint32) {
	s.mu.Lock()
	s.params[p] = v
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of a Store.
type Snapshot struct {
	Floats map[Key]float32   `json:"floats"`
	Uints  map[Key]uint32    `json:"uints"`
	Stale  map[Key]bool      `json:"stale"`
	Params map[string]uint32 `json:"params"`
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Floats: make(map[Key]float32, len(s.floats)),
		Uints:  make(map[Key]uint32, len(s.uints)),
		Stale:  make(map[Key]bool, len(s.stale)),
		Params: make(map[string]uint32, len(s.params)),
	}
	for k, v := range s.floats {
		snap.Floats[k] = v
	}
	for k, v := range s.uints {
		snap.Uints[k] = v
	}
	for k, v := range s.stale {
		snap.Stale[k] = v
	}
	for p, v := range s.params {
		snap.Params[p.String()] = v
	}
	return snap
}

// Keys returns every key that has been written, sorted.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	seen := make(map[Key]struct{}, len(s.floats)+len(s.uints)+len(s.stale))
	for k := range s.floats {
		seen[k] = struct{}{}
	}
	for k := range s.uints {
		seen[k] = struct{}{}
	}
	for k := range s.stale {
		seen[k] = struct{}{}
	}
	s.mu.RUnlock()
	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
