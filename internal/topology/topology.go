// Package topology orders the nodes of a dependency graph so that every node
// comes after the nodes it depends on.
//
// Edges come in two strengths. A hard edge is a structural dependency: the
// dependent cannot be materialized without the dependency, so a cycle made
// only of hard edges is an error. A weak edge is a nominal dependency (for
// example a named type referring to itself): it orders nodes like a hard
// edge, but a cycle passing through at least one weak edge is tolerated.
package topology

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/qigen/internal/ordered"
)

// ErrUnknownNode is returned when sorting from a node that was never added.
var ErrUnknownNode = errors.New("topology: unknown node")

// CycleError reports a dependency cycle. Path is the DFS path from the start
// node to the node that closed the cycle, so its last element also appears
// earlier in the slice.
type CycleError[T comparable] struct {
	Path []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, len(e.Path))
	for i, n := range e.Path {
		parts[i] = fmt.Sprint(n)
	}
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

// Graph is a directed dependency graph. Nodes and edges are kept in the order
// they were added, which makes every sort deterministic.
type Graph[T comparable] struct {
	nodes ordered.Set[T]
	edges map[T]*ordered.Map[T, bool] // to -> weak
}

func New[T comparable]() *Graph[T] {
	return &Graph[T]{}
}

func (g *Graph[T]) AddNode(n T) {
	g.nodes.Add(n)
}

// Nodes returns every node in insertion order.
func (g *Graph[T]) Nodes() []T {
	return g.nodes.Items()
}

// AddEdge records that from depends on to.
func (g *Graph[T]) AddEdge(from, to T) {
	g.addEdge(from, to, false)
}

// AddWeakEdge records a nominal dependency of from on to. An existing hard
// edge between the same nodes is not downgraded.
func (g *Graph[T]) AddWeakEdge(from, to T) {
	g.addEdge(from, to, true)
}

func (g *Graph[T]) addEdge(from, to T, weak bool) {
	g.nodes.Add(from)
	g.nodes.Add(to)
	if g.edges == nil {
		g.edges = make(map[T]*ordered.Map[T, bool])
	}
	out := g.edges[from]
	if out == nil {
		out = ordered.NewMap[T, bool]()
		g.edges[from] = out
	}
	if prev, ok := out.Get(to); ok && !prev {
		return
	}
	out.Set(to, weak)
}

// Sort returns start and everything reachable from it, dependencies first.
func (g *Graph[T]) Sort(start T) ([]T, error) {
	if !g.nodes.Has(start) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownNode, start)
	}
	w := g.walker()
	if err := w.visit(start, false); err != nil {
		return nil, err
	}
	return w.results.Items(), nil
}

// SortAll returns every node, dependencies first. Independent nodes keep
// their insertion order.
func (g *Graph[T]) SortAll() ([]T, error) {
	w := g.walker()
	for _, n := range g.nodes.Items() {
		if err := w.visit(n, false); err != nil {
			return nil, err
		}
	}
	return w.results.Items(), nil
}

type walker[T comparable] struct {
	g       *Graph[T]
	stack   []T
	weak    []bool // weak[i] is the strength of the edge that entered stack[i]
	onStack map[T]int
	results ordered.Set[T]
}

func (g *Graph[T]) walker() *walker[T] {
	return &walker[T]{g: g, onStack: make(map[T]int)}
}

func (w *walker[T]) visit(n T, viaWeak bool) error {
	if w.results.Has(n) {
		return nil
	}
	if i, ok := w.onStack[n]; ok {
		if viaWeak || anyTrue(w.weak[i+1:]) {
			return nil
		}
		path := make([]T, 0, len(w.stack)+1)
		path = append(path, w.stack...)
		path = append(path, n)
		return &CycleError[T]{Path: path}
	}

	w.onStack[n] = len(w.stack)
	w.stack = append(w.stack, n)
	w.weak = append(w.weak, viaWeak)

	for to, weak := range w.g.edges[n].All() {
		if err := w.visit(to, weak); err != nil {
			return err
		}
	}

	w.stack = w.stack[:len(w.stack)-1]
	w.weak = w.weak[:len(w.weak)-1]
	delete(w.onStack, n)
	w.results.Add(n)
	return nil
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}
