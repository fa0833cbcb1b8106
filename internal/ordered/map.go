package ordered

import "iter"

// Map is a key/value mapping that iterates in key insertion order.
// Overwriting an existing key keeps its original position.
type Map[K comparable, V any] struct {
	keys   Set[K]
	values map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Set stores v under k and reports whether k is new.
func (m *Map[K, V]) Set(k K, v V) bool {
	if m.values == nil {
		m.values = make(map[K]V)
	}
	m.values[k] = v
	return m.keys.Add(k)
}

func (m *Map[K, V]) Get(k K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.values[k]
	return v, ok
}

func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.Get(k)
	return ok
}

func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return m.keys.Len()
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return m.keys.Items()
}

// All iterates over the entries in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys.items {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}
