package goemitter

import (
	"fmt"
	"strings"

	"github.com/mark3labs/qigen/internal/emitter"
	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/ordered"
)

// typeWriter renders models as Go type expressions and records the imports
// they need. One typeWriter serves one chunk and is not shared between
// goroutines.
type typeWriter struct {
	r        *Renderer
	svc      *ir.Service
	imports  ordered.Set[string]
	visiting map[string]bool
}

func (r *Renderer) newTypeWriter(svc *ir.Service) *typeWriter {
	return &typeWriter{r: r, svc: svc, visiting: map[string]bool{}}
}

func (w *typeWriter) use(pkg string) { w.imports.Add(pkg) }

func (w *typeWriter) goType(m ir.Model) (string, error) {
	switch m.Kind {
	case ir.Any:
		return "any", nil
	case ir.Boolean:
		return "bool", nil
	case ir.Byte:
		return "byte", nil
	case ir.Int, ir.Int8, ir.Int16, ir.Int32, ir.Int64,
		ir.Uint, ir.Uint8, ir.Uint16, ir.Uint32, ir.Uint64,
		ir.Float32, ir.Float64:
		return string(m.Kind), nil
	case ir.String, ir.Enum, ir.Time:
		return "string", nil
	case ir.Date, ir.Datetime:
		w.use("time")
		return "time.Time", nil
	case ir.Array:
		elem, err := w.goType(element(m))
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case ir.Map:
		elem, err := w.goType(element(m))
		if err != nil {
			return "", err
		}
		return "map[string]" + elem, nil
	case ir.Iterator:
		if element(m).Kind == ir.Byte {
			w.use("io")
			return "io.Reader", nil
		}
		elem, err := w.goType(element(m))
		if err != nil {
			return "", err
		}
		w.use("iter")
		return "iter.Seq[" + elem + "]", nil
	case ir.Struct:
		return w.structType(m.Properties)
	case ir.Reference:
		return w.reference(m.Name)
	default:
		return "", fmt.Errorf("unknown model kind %q", m.Kind)
	}
}

// reference renders a named struct by name and anything else by
// substituting the target's rendering.
func (w *typeWriter) reference(name string) (string, error) {
	target, ok := w.svc.Lookup(name)
	if !ok {
		return "", fmt.Errorf("unresolved reference %q", name)
	}
	if target.Kind == ir.Struct {
		if id, ok := w.r.types[name]; ok {
			return id, nil
		}
	}
	if w.visiting[name] {
		return "", fmt.Errorf("reference cycle through %q", name)
	}
	w.visiting[name] = true
	defer delete(w.visiting, name)
	return w.goType(target)
}

func (w *typeWriter) isStructRef(m ir.Model) bool {
	return w.svc.StructRef(m)
}

func (w *typeWriter) structType(props []ir.Property) (string, error) {
	if len(props) == 0 {
		return "struct{}", nil
	}
	names := newRegistry()
	var b strings.Builder
	b.WriteString("struct {\n")
	for _, p := range props {
		t, err := w.goType(p.Model)
		if err != nil {
			return "", fmt.Errorf("property %q: %w", p.Name, err)
		}
		if w.isStructRef(p.Model) {
			t = "*" + t
		}
		b.WriteString(comment("\t", p.Description))
		fmt.Fprintf(&b, "\t%s %s `json:%q`\n", names.claim(exported(p.Name)), t, p.Name)
	}
	b.WriteString("}")
	return b.String(), nil
}

// fieldsType renders the struct type of an Input or Output. Field names
// never take one of reserved.
func (w *typeWriter) fieldsType(fields []emitter.Field, reserved ...string) (string, error) {
	if len(fields) == 0 {
		return "struct{}", nil
	}
	names := newRegistry()
	for _, id := range reserved {
		names.claim(id)
	}
	var b strings.Builder
	b.WriteString("struct {\n")
	for _, f := range fields {
		t, err := w.goType(f.Model)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Name, err)
		}
		var tag string
		switch {
		case f.Whole:
			tag = `body:""`
		case f.From == emitter.FromBody:
			tag = fmt.Sprintf("json:%q", f.Name)
			if w.isStructRef(f.Model) {
				t = "*" + t
			}
		default:
			tag = fmt.Sprintf("%s:%q", f.From, f.Name)
			if !f.Mandatory && w.optional(f.Model) {
				t = "*" + t
			}
		}
		b.WriteString(comment("\t", f.Description))
		fmt.Fprintf(&b, "\t%s %s `%s`\n", names.claim(exported(f.Name)), t, tag)
	}
	b.WriteString("}")
	return b.String(), nil
}

// optional reports whether an absent parameter of model m needs a pointer
// to be told apart from its zero value.
func (w *typeWriter) optional(m ir.Model) bool {
	switch w.svc.Resolve(m, 8).Kind {
	case ir.Any, ir.Array, ir.Map, ir.Iterator:
		return false
	}
	return true
}

func element(m ir.Model) ir.Model {
	if m.Element == nil {
		return ir.Primitive(ir.Any)
	}
	return *m.Element
}
