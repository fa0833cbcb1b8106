package rustemitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/qigen/internal/emitter"
	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/ordered"
)

const serdeImport = "serde::{Deserialize, Serialize}"

// inlineKey identifies the inline struct found in slot i of parent. Arrays,
// maps and non-struct references share the slot of the field they sit in.
func inlineKey(parent string, i int) string {
	return parent + "/" + strconv.Itoa(i)
}

// planner walks models in exactly the order typeWriter renders them and
// claims a type name for each inline struct it meets.
type planner struct {
	svc      *ir.Service
	idents   *registry
	inline   map[string]string
	visiting map[string]bool
}

func (p *planner) props(parent string, props []ir.Property) {
	for i, prop := range props {
		p.model(parent, i, prop.Name, prop.Model)
	}
}

func (p *planner) model(parent string, slot int, name string, m ir.Model) {
	switch m.Kind {
	case ir.Struct:
		id := p.idents.claim(parent + typeName(name))
		p.inline[inlineKey(parent, slot)] = id
		p.props(id, m.Properties)
	case ir.Array, ir.Map, ir.Iterator:
		if m.Element != nil {
			p.model(parent, slot, name, *m.Element)
		}
	case ir.Reference:
		target, ok := p.svc.Lookup(m.Name)
		if !ok || target.Kind == ir.Struct || p.visiting[m.Name] {
			return
		}
		p.visiting[m.Name] = true
		defer delete(p.visiting, m.Name)
		p.model(parent, slot, name, target)
	}
}

// typeWriter renders models as Rust types. Inline structs become separate
// declarations collected in decls. One typeWriter serves one chunk.
type typeWriter struct {
	r        *Renderer
	svc      *ir.Service
	imports  ordered.Set[string]
	visiting map[string]bool
	decls    []string
}

func (r *Renderer) newTypeWriter(svc *ir.Service) *typeWriter {
	return &typeWriter{r: r, svc: svc, visiting: map[string]bool{}}
}

func (w *typeWriter) rustType(parent string, slot int, m ir.Model) (string, error) {
	switch m.Kind {
	case ir.Any:
		return "serde_json::Value", nil
	case ir.Boolean:
		return "bool", nil
	case ir.Byte, ir.Uint8:
		return "u8", nil
	case ir.Int:
		return "isize", nil
	case ir.Int8:
		return "i8", nil
	case ir.Int16:
		return "i16", nil
	case ir.Int32:
		return "i32", nil
	case ir.Int64:
		return "i64", nil
	case ir.Uint:
		return "usize", nil
	case ir.Uint16:
		return "u16", nil
	case ir.Uint32:
		return "u32", nil
	case ir.Uint64:
		return "u64", nil
	case ir.Float32:
		return "f32", nil
	case ir.Float64:
		return "f64", nil
	case ir.String, ir.Enum:
		return "String", nil
	case ir.Date:
		return "chrono::NaiveDate", nil
	case ir.Time:
		return "chrono::NaiveTime", nil
	case ir.Datetime:
		return "chrono::DateTime<chrono::Utc>", nil
	case ir.Array:
		elem, err := w.rustType(parent, slot, element(m))
		if err != nil {
			return "", err
		}
		return "Vec<" + elem + ">", nil
	case ir.Map:
		elem, err := w.rustType(parent, slot, element(m))
		if err != nil {
			return "", err
		}
		return "std::collections::HashMap<String, " + elem + ">", nil
	case ir.Iterator:
		elem, err := w.rustType(parent, slot, element(m))
		if err != nil {
			return "", err
		}
		return "Box<dyn Iterator<Item = " + elem + "> + Send>", nil
	case ir.Struct:
		id, ok := w.r.inline[inlineKey(parent, slot)]
		if !ok {
			return "", fmt.Errorf("no name for inline struct in %s", parent)
		}
		decl, err := w.structDecl(id, "", m.Properties)
		if err != nil {
			return "", err
		}
		w.decls = append(w.decls, decl)
		return id, nil
	case ir.Reference:
		return w.reference(parent, slot, m.Name)
	default:
		return "", fmt.Errorf("unknown model kind %q", m.Kind)
	}
}

func (w *typeWriter) reference(parent string, slot int, name string) (string, error) {
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
	return w.rustType(parent, slot, target)
}

func (w *typeWriter) isStructRef(m ir.Model) bool {
	return w.svc.StructRef(m)
}

// structDecl renders a serde struct. Fields holding a named struct are
// boxed options so that recursive schemas stay finite.
func (w *typeWriter) structDecl(id, doc string, props []ir.Property) (string, error) {
	w.imports.Add(serdeImport)
	names := newRegistry()
	var b strings.Builder
	b.WriteString(comment("", doc))
	b.WriteString("#[derive(Debug, Clone, Serialize, Deserialize)]\n")
	if len(props) == 0 {
		fmt.Fprintf(&b, "pub struct %s {}\n", id)
		return b.String(), nil
	}
	fmt.Fprintf(&b, "pub struct %s {\n", id)
	for i, p := range props {
		t, err := w.rustType(id, i, p.Model)
		if err != nil {
			return "", fmt.Errorf("property %q: %w", p.Name, err)
		}
		field := names.claim(fieldName(p.Name))
		b.WriteString(comment("    ", p.Description))
		if w.isStructRef(p.Model) {
			t = "Option<Box<" + t + ">>"
			b.WriteString("    #[serde(default, skip_serializing_if = \"Option::is_none\")]\n")
		}
		if strings.TrimPrefix(field, "r#") != p.Name {
			fmt.Fprintf(&b, "    #[serde(rename = %q)]\n", p.Name)
		}
		fmt.Fprintf(&b, "    pub %s: %s,\n", field, t)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// fieldsDecl renders an Input or Output struct. These may hold byte
// streams, so they derive nothing.
func (w *typeWriter) fieldsDecl(id, doc string, fields []emitter.Field) (string, error) {
	names := newRegistry()
	var b strings.Builder
	b.WriteString(comment("", doc))
	if len(fields) == 0 {
		fmt.Fprintf(&b, "pub struct %s {}\n", id)
		return b.String(), nil
	}
	fmt.Fprintf(&b, "pub struct %s {\n", id)
	for i, f := range fields {
		t, err := w.rustType(id, i, f.Model)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Name, err)
		}
		switch {
		case f.Whole:
		case f.From == emitter.FromBody:
			if w.isStructRef(f.Model) {
				t = "Option<Box<" + t + ">>"
			}
		case !f.Mandatory:
			t = "Option<" + t + ">"
		}
		b.WriteString(comment("    ", f.Description))
		fmt.Fprintf(&b, "    pub %s: %s,\n", names.claim(fieldName(f.Name)), t)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func element(m ir.Model) ir.Model {
	if m.Element == nil {
		return ir.Primitive(ir.Any)
	}
	return *m.Element
}

func comment(indent, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			b.WriteString(indent + "///\n")
			continue
		}
		b.WriteString(indent + "/// " + line + "\n")
	}
	return b.String()
}
