// Package ir defines the resolved intermediate representation produced by
// the compiler and consumed by the emitters.
package ir

// Kind discriminates the variants of Model.
type Kind string

const (
	Any      Kind = "any"
	Boolean  Kind = "boolean"
	Byte     Kind = "byte"
	Int      Kind = "int"
	Int8     Kind = "int8"
	Int16    Kind = "int16"
	Int32    Kind = "int32"
	Int64    Kind = "int64"
	Uint     Kind = "uint"
	Uint8    Kind = "uint8"
	Uint16   Kind = "uint16"
	Uint32   Kind = "uint32"
	Uint64   Kind = "uint64"
	Float32  Kind = "float32"
	Float64  Kind = "float64"
	String   Kind = "string"
	Date     Kind = "date"
	Time     Kind = "time"
	Datetime Kind = "datetime"

	Array     Kind = "array"
	Map       Kind = "map"
	Struct    Kind = "struct"
	Enum      Kind = "enum" // reserved; the type mapper never produces it
	Iterator  Kind = "iterator"
	Reference Kind = "reference"
)

// Primitive reports whether k has no children and no name.
func (k Kind) Primitive() bool {
	switch k {
	case Array, Map, Struct, Enum, Iterator, Reference:
		return false
	}
	return true
}

// Model is a tagged union over Kind. Element is set for Array, Map and
// Iterator; Properties for Struct; Name for Reference.
type Model struct {
	Kind       Kind
	Name       string
	Element    *Model
	Properties []Property
}

// Property is one named member of a Struct, in declaration order.
type Property struct {
	Name        string
	Model       Model
	Description string
}

func Primitive(k Kind) Model { return Model{Kind: k} }

func ArrayOf(elem Model) Model { return Model{Kind: Array, Element: &elem} }

func MapOf(elem Model) Model { return Model{Kind: Map, Element: &elem} }

func IteratorOf(elem Model) Model { return Model{Kind: Iterator, Element: &elem} }

func Ref(name string) Model { return Model{Kind: Reference, Name: name} }

func StructOf(props ...Property) Model { return Model{Kind: Struct, Properties: props} }

// Bytes is the model of a binary payload: Array<Byte>.
func Bytes() Model { return ArrayOf(Primitive(Byte)) }

// IsBytes reports whether m is Array<Byte>.
func (m Model) IsBytes() bool {
	return m.Kind == Array && m.Element != nil && m.Element.Kind == Byte
}

// Property looks up a Struct property by name.
func (m Model) Property(name string) (Property, bool) {
	for _, p := range m.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// References returns the names of every Reference reachable from m without
// crossing another reference, in first-seen order.
func (m Model) References() []string {
	var out []string
	seen := map[string]bool{}
	m.walkRefs(func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	})
	return out
}

func (m Model) walkRefs(fn func(string)) {
	switch m.Kind {
	case Reference:
		fn(m.Name)
	case Array, Map, Iterator:
		if m.Element != nil {
			m.Element.walkRefs(fn)
		}
	case Struct:
		for _, p := range m.Properties {
			p.Model.walkRefs(fn)
		}
	}
}

// String renders m in a compact, human readable form used in diagnostics and
// test failures, e.g. "array<reference(Pet)>".
func (m Model) String() string {
	switch m.Kind {
	case Reference:
		return "reference(" + m.Name + ")"
	case Array, Map, Iterator:
		elem := "?"
		if m.Element != nil {
			elem = m.Element.String()
		}
		return string(m.Kind) + "<" + elem + ">"
	case Struct:
		s := "struct{"
		for i, p := range m.Properties {
			if i > 0 {
				s += ", "
			}
			s += p.Name + ": " + p.Model.String()
		}
		return s + "}"
	}
	return string(m.Kind)
}
