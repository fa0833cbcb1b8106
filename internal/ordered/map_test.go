package ordered

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	m := NewMap[string, int]()
	assert.True(t, m.Set("zeta", 1))
	assert.True(t, m.Set("alpha", 2))
	assert.True(t, m.Set("mid", 3))
	assert.False(t, m.Set("zeta", 10))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
	v, ok := m.Get("zeta")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	var keys []string
	var sum int
	for k, v := range m.All() {
		keys = append(keys, k)
		sum += v
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	assert.Equal(t, 15, sum)
}

func TestMapAllStopsEarly(t *testing.T) {
	t.Parallel()

	m := NewMap[int, string]()
	for i := range 5 {
		m.Set(i, "x")
	}
	seen := 0
	for range m.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestNilMapReads(t *testing.T) {
	t.Parallel()

	var m *Map[string, int]
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Has("a"))
	assert.Nil(t, m.Keys())
	for range m.All() {
		t.Fatal("nil map yielded an entry")
	}
}
