package ecs

// Store is an insertion-ordered keyed store. Iteration order is stable
// between mutations, which keeps seeded runs reproducible where a plain map
// would randomise the order of per-tick random draws.
// Remove swaps the last element into the hole, so removal is O(1).
type Store[K comparable, T any] struct {
	index map[K]int
	keys  []K
	items []*T
}

func NewStore[K comparable, T any](capacity int) *Store[K, T] {
	return &Store[K, T]{
		index: make(map[K]int, capacity),
		keys:  make([]K, 0, capacity),
		items: make([]*T, 0, capacity),
	}
}

// Set inserts or replaces the item stored under k.
func (s *Store[K, T]) Set(k K, item *T) {
	if i, ok := s.index[k]; ok {
		s.items[i] = item
		return
	}
	s.index[k] = len(s.items)
	s.keys = append(s.keys, k)
	s.items = append(s.items, item)
}

func (s *Store[K, T]) Get(k K) (*T, bool) {
	i, ok := s.index[k]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

func (s *Store[K, T]) Has(k K) bool {
	_, ok := s.index[k]
	return ok
}

// Remove deletes k and reports whether it was present.
func (s *Store[K, T]) Remove(k K) bool {
	i, ok := s.index[k]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	if i != last {
		s.items[i] = s.items[last]
		s.keys[i] = s.keys[last]
		s.index[s.keys[i]] = i
	}
	s.items[last] = nil
	s.items = s.items[:last]
	s.keys = s.keys[:last]
	delete(s.index, k)
	return true
}

func (s *Store[K, T]) Len() int {
	return len(s.items)
}

// Each visits items in store order. fn must not mutate the store.
func (s *Store[K, T]) Each(fn func(K, *T)) {
	for i, it := range s.items {
		fn(s.keys[i], it)
	}
}

// Items returns a copy of the stored pointers in store order.
func (s *Store[K, T]) Items() []*T {
	out := make([]*T, len(s.items))
	copy(out, s.items)
	return out
}

// Clear empties the store, keeping capacity.
func (s *Store[K, T]) Clear() {
	clear(s.index)
	for i := range s.items {
		s.items[i] = nil
	}
	s.items = s.items[:0]
	s.keys = s.keys[:0]
}
