package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graph(edges ...[2]string) *Graph[string] {
	g := New[string]()
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestSortAcyclic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]string
		want  []string
	}{
		{
			name:  "chain",
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  []string{"c", "b", "a"},
		},
		{
			name:  "diamond via shared leaf",
			edges: [][2]string{{"a", "c"}, {"a", "b"}, {"b", "c"}},
			want:  []string{"c", "b", "a"},
		},
		{
			name:  "diamond declared branch first",
			edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}},
			want:  []string{"c", "b", "a"},
		},
		{
			name:  "revisited through second branch",
			edges: [][2]string{{"a", "b"}, {"a", "d"}, {"d", "c"}, {"c", "b"}},
			want:  []string{"b", "c", "d", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := graph(tt.edges...).Sort("a")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortSingleNode(t *testing.T) {
	t.Parallel()

	g := New[string]()
	g.AddNode("solo")
	got, err := g.Sort("solo")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, got)
}

func TestSortCycle(t *testing.T) {
	t.Parallel()

	_, err := graph([2]string{"x", "y"}, [2]string{"y", "x"}).Sort("x")
	var cycle *CycleError[string]
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"x", "y", "x"}, cycle.Path)
	assert.Equal(t, "dependency cycle: x -> y -> x", err.Error())
}

func TestSortCycleReportsFullPath(t *testing.T) {
	t.Parallel()

	g := graph([2]string{"root", "a"}, [2]string{"a", "b"}, [2]string{"b", "a"})
	_, err := g.Sort("root")
	var cycle *CycleError[string]
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"root", "a", "b", "a"}, cycle.Path)
}

func TestSelfLoopIsCycle(t *testing.T) {
	t.Parallel()

	_, err := graph([2]string{"a", "a"}).Sort("a")
	var cycle *CycleError[string]
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "a"}, cycle.Path)
}

func TestWeakEdgeToleratesCycle(t *testing.T) {
	t.Parallel()

	g := New[string]()
	g.AddEdge("list", "node")
	g.AddWeakEdge("node", "node")
	g.AddWeakEdge("node", "list")

	got, err := g.Sort("list")
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "list"}, got)
}

func TestWeakEdgeAnywhereInCycle(t *testing.T) {
	t.Parallel()

	g := New[string]()
	g.AddEdge("a", "b")
	g.AddWeakEdge("b", "c")
	g.AddEdge("c", "a")

	got, err := g.Sort("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestHardEdgeNotDowngraded(t *testing.T) {
	t.Parallel()

	g := graph([2]string{"x", "y"}, [2]string{"y", "x"})
	g.AddWeakEdge("y", "x")

	_, err := g.Sort("x")
	var cycle *CycleError[string]
	assert.ErrorAs(t, err, &cycle)
}

func TestSortUnknownNode(t *testing.T) {
	t.Parallel()

	_, err := New[string]().Sort("missing")
	assert.True(t, errors.Is(err, ErrUnknownNode))
}

func TestSortAllKeepsIndependentOrder(t *testing.T) {
	t.Parallel()

	g := New[string]()
	g.AddNode("z")
	g.AddNode("y")
	g.AddEdge("x", "w")

	got, err := g.SortAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "w", "x"}, got)
	assert.Equal(t, []string{"z", "y", "x", "w"}, g.Nodes())
}
