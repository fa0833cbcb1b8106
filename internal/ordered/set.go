// Package ordered provides insertion-ordered collections used across the
// compiler where declaration order of the input document must survive.
package ordered

// Set is a collection of unique items that remembers insertion order.
// The zero value is an empty set ready to use.
type Set[T comparable] struct {
	items []T
	index map[T]int
}

// NewSet returns a set holding items, in order, with duplicates dropped.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add appends item if it is not present yet. It reports whether the set
// changed.
func (s *Set[T]) Add(item T) bool {
	if s.index == nil {
		s.index = make(map[T]int)
	}
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Index returns the position at which item was first inserted.
func (s *Set[T]) Index(item T) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[item]
	return i, ok
}

func (s *Set[T]) Has(item T) bool {
	_, ok := s.Index(item)
	return ok
}

func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the members in insertion order.
func (s *Set[T]) Items() []T {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy; mutating either set does not affect
// the other.
func (s *Set[T]) Clone() *Set[T] {
	c := &Set[T]{}
	if s == nil {
		return c
	}
	c.items = make([]T, len(s.items))
	copy(c.items, s.items)
	c.index = make(map[T]int, len(s.index))
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}
