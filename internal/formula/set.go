package formula

import "sync"

// Set is a deduplicating formula set that remembers insertion order.
// It is safe for concurrent use.
type Set struct {
	mu    sync.RWMutex
	order []Formula
	index map[string]struct{}
}

// NewSet returns a set holding fs.
func NewSet(fs ...Formula) *Set {
	s := &Set{index: make(map[string]struct{}, len(fs))}
	for _, f := range fs {
		s.add(f)
	}
	return s
}

// Add inserts f and reports whether it was not already present.
func (s *Set) Add(f Formula) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(f)
}

// add must be called with the write lock held or before s is shared.
func (s *Set) add(f Formula) bool {
	key := f.String()
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.order = append(s.order, f)
	return true
}

// Contains reports whether f is in the set.
func (s *Set) Contains(f Formula) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[f.String()]
	return ok
}

// Len returns the number of formulas.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Slice returns a copy of the formulas in insertion order.
func (s *Set) Slice() []Formula {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Formula, len(s.order))
	copy(out, s.order)
	return out
}
