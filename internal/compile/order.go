package compile

import (
	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/ordered"
	"github.com/mark3labs/qigen/internal/topology"
)

// ModelOrder returns every model name so that each model comes after the
// models it uses.
//
// A reference to a Struct is nominal: emitters render the struct's name, so
// the edge is weak and self or mutual recursion through structs is allowed.
// A reference to any other model is replaced by that model's rendering, so
// the edge is hard and a cycle of such references is a CycleError.
func ModelOrder(models *ordered.Map[string, ir.Model]) ([]string, error) {
	g := topology.New[string]()
	for name, m := range models.All() {
		g.AddNode(name)
		for _, ref := range m.References() {
			target, ok := models.Get(ref)
			if !ok {
				continue
			}
			if target.Kind == ir.Struct {
				g.AddWeakEdge(name, ref)
			} else {
				g.AddEdge(name, ref)
			}
		}
	}
	return g.SortAll()
}
