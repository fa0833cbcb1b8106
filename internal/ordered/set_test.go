package ordered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAddAndIndex(t *testing.T) {
	t.Parallel()

	var s Set[string]
	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("c"))

	assert.Equal(t, []string{"a", "b", "c"}, s.Items())
	assert.Equal(t, 3, s.Len())

	i, ok := s.Index("b")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = s.Index("z")
	assert.False(t, ok)
	assert.False(t, s.Has("z"))
}

func TestSetIndexIsFirstInsertion(t *testing.T) {
	t.Parallel()

	s := NewSet(3, 1, 3, 2, 1)
	assert.Equal(t, []int{3, 1, 2}, s.Items())
	for want, item := range s.Items() {
		got, ok := s.Index(item)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestSetCloneIsIndependent(t *testing.T) {
	t.Parallel()

	s := NewSet("a", "b")
	c := s.Clone()
	c.Add("c")
	s.Add("d")

	assert.Equal(t, []string{"a", "b", "d"}, s.Items())
	assert.Equal(t, []string{"a", "b", "c"}, c.Items())
	assert.False(t, s.Has("c"))
	assert.False(t, c.Has("d"))
}

func TestSetItemsReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewSet("a")
	items := s.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.Items())
}

func TestNilSetReads(t *testing.T) {
	t.Parallel()

	var s *Set[int]
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Items())
	assert.False(t, s.Has(1))
	assert.Equal(t, 0, s.Clone().Len())
}
