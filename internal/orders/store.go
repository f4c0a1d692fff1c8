package orders

import "sync"

// Store is a concurrent in-memory map of order records keyed by canonical
// order id. Records are swapped whole: a reader either sees the previous
// record or the new one, never a partial update. No cross-key locking is
// needed because the message channel delivers all events for one id to a
// single ordered stream.
type Store[T any] struct {
	mu sync.RWMutex
	m  map[string]T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{m: make(map[string]T)}
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[id]
	return rec, ok
}

// CreateIfAbsent inserts rec under id unless a record already exists.
func (s *Store[T]) CreateIfAbsent(id string, rec T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; ok {
		return false
	}
	s.m[id] = rec
	return true
}

// Replace swaps the whole record under id, inserting if absent.
func (s *Store[T]) Replace(id string, rec T) {
	s.mu.Lock()
	s.m[id] = rec
	s.mu.Unlock()
}

// Remove deletes the record under id. Used only for publish-failure
// rollback on the create path.
func (s *Store[T]) Remove(id string) {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
