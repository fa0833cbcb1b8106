package compile

import (
	"fmt"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/hashicorp/go-multierror"
	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/ordered"
	"github.com/mark3labs/qigen/internal/spec"
	"github.com/mark3labs/qigen/internal/topology"
)

// RefName returns the component name a "$ref" points at: the last token of
// its JSON pointer fragment, with "~1" and "~0" escapes decoded.
func RefName(ref string) string {
	frag := ref
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		frag = ref[i+1:]
	}
	if p, err := jsonpointer.New(frag); err == nil {
		if tokens := p.DecodedTokens(); len(tokens) > 0 {
			return tokens[len(tokens)-1]
		}
	}
	if i := strings.LastIndexByte(frag, '/'); i >= 0 {
		return frag[i+1:]
	}
	return frag
}

// Resolver answers "$ref" lookups against the components of one document.
// Component parameters are resolved once, up front; everything else is
// looked up by name on demand.
type Resolver struct {
	components *spec.Components
	params     *ordered.Map[string, ir.LocatedParameter]
}

// NewResolver prepares a resolver for doc. It fails when a component
// parameter is malformed or is itself a reference.
func NewResolver(doc *spec.Document) (*Resolver, error) {
	r := &Resolver{components: doc.Components, params: ordered.NewMap[string, ir.LocatedParameter]()}
	if r.components == nil {
		return r, nil
	}

	var errs *multierror.Error
	for name, p := range r.components.Parameters.All() {
		if p == nil {
			errs = multierror.Append(errs, fmt.Errorf("parameter %q: %w", name, &MissingFieldError{Field: "name"}))
			continue
		}
		if p.Ref != "" {
			errs = multierror.Append(errs, fmt.Errorf("parameter %q: component parameters cannot be references (%s)", name, p.Ref))
			continue
		}
		lp, err := buildParameter(p)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("parameter %q: %w", name, err))
			continue
		}
		r.params.Set(name, lp)
	}
	return r, errs.ErrorOrNil()
}

// Parameters returns the resolved component parameters keyed by component
// name, in declaration order.
func (r *Resolver) Parameters() *ordered.Map[string, ir.LocatedParameter] {
	return r.params
}

func (r *Resolver) Parameter(ref string) (ir.LocatedParameter, error) {
	if r.components == nil {
		return ir.LocatedParameter{}, &MissingComponentsError{Ref: ref}
	}
	p, ok := r.params.Get(RefName(ref))
	if !ok {
		return ir.LocatedParameter{}, &UnresolvedReferenceError{Ref: ref}
	}
	return p, nil
}

func (r *Resolver) Schema(ref string) (*spec.Schema, error) {
	return follow(r, ref, func(c *spec.Components) *spec.Map[*spec.Schema] { return &c.Schemas },
		func(s *spec.Schema) string { return schemaRef(s) })
}

func (r *Resolver) Response(ref string) (*spec.Response, error) {
	return follow(r, ref, func(c *spec.Components) *spec.Map[*spec.Response] { return &c.Responses },
		func(v *spec.Response) string {
			if v == nil {
				return ""
			}
			return v.Ref
		})
}

func (r *Resolver) RequestBody(ref string) (*spec.RequestBody, error) {
	return follow(r, ref, func(c *spec.Components) *spec.Map[*spec.RequestBody] { return &c.RequestBodies },
		func(v *spec.RequestBody) string {
			if v == nil {
				return ""
			}
			return v.Ref
		})
}

func (r *Resolver) Header(ref string) (*spec.Header, error) {
	return follow(r, ref, func(c *spec.Components) *spec.Map[*spec.Header] { return &c.Headers },
		func(v *spec.Header) string {
			if v == nil {
				return ""
			}
			return v.Ref
		})
}

func schemaRef(s *spec.Schema) string {
	if s == nil {
		return ""
	}
	return s.Ref
}

func lookup[V any](r *Resolver, ref string, section func(*spec.Components) *spec.Map[V]) (V, error) {
	var zero V
	if r.components == nil {
		return zero, &MissingComponentsError{Ref: ref}
	}
	v, ok := section(r.components).Get(RefName(ref))
	if !ok {
		return zero, &UnresolvedReferenceError{Ref: ref}
	}
	return v, nil
}

// follow looks ref up and keeps following while the target is itself a
// reference. A chain that revisits a pointer is a cycle.
func follow[V any](r *Resolver, ref string, section func(*spec.Components) *spec.Map[V], next func(V) string) (V, error) {
	var zero V
	var seen ordered.Set[string]
	for {
		if !seen.Add(ref) {
			return zero, &topology.CycleError[string]{Path: append(seen.Items(), ref)}
		}
		v, err := lookup(r, ref, section)
		if err != nil {
			return zero, err
		}
		n := next(v)
		if n == "" {
			return v, nil
		}
		ref = n
	}
}

// buildParameter turns an inline (non-reference) parameter into its
// resolved form. Path parameters are always mandatory.
func buildParameter(p *spec.Parameter) (ir.LocatedParameter, error) {
	if p.Name == "" {
		return ir.LocatedParameter{}, &MissingFieldError{Field: "name"}
	}
	if p.In == "" {
		return ir.LocatedParameter{}, &MissingFieldError{Field: "in"}
	}
	loc := ir.Location(p.In)
	switch loc {
	case ir.InPath, ir.InQuery, ir.InHeader:
	default:
		return ir.LocatedParameter{}, &InvalidLocationError{Name: p.Name, Location: p.In}
	}

	schema := p.Schema
	if schema == nil {
		if p.Content.Len() == 0 {
			return ir.LocatedParameter{}, fmt.Errorf("parameter %q: %w", p.Name, &MissingFieldError{Field: "schema"})
		}
		for _, mt := range p.Content.All() {
			if mt != nil {
				schema = mt.Schema
			}
			break
		}
	}
	m, err := MapSchema(schema)
	if err != nil {
		return ir.LocatedParameter{}, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return ir.LocatedParameter{
		Parameter: ir.Parameter{
			Name:        p.Name,
			Model:       m,
			Mandatory:   p.Required || loc == ir.InPath,
			Description: p.Description,
		},
		In: loc,
	}, nil
}
