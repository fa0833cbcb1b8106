package compile

import (
	"fmt"

	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/spec"
)

// MapSchema translates a schema into a model. It never looks references up:
// a "$ref" becomes a Reference to the last segment of the pointer. A nil
// schema or one without a type maps to Any.
func MapSchema(s *spec.Schema) (ir.Model, error) {
	if s == nil {
		return ir.Primitive(ir.Any), nil
	}
	if s.Ref != "" {
		return ir.Ref(RefName(s.Ref)), nil
	}

	switch s.Type {
	case "":
		return ir.Primitive(ir.Any), nil
	case "boolean":
		return ir.Primitive(ir.Boolean), nil
	case "integer":
		return ir.Primitive(integerKind(s.Format)), nil
	case "number":
		if s.Format == "double" {
			return ir.Primitive(ir.Float64), nil
		}
		return ir.Primitive(ir.Float32), nil
	case "string":
		switch s.Format {
		case "binary":
			return ir.Bytes(), nil
		case "date":
			return ir.Primitive(ir.Date), nil
		case "date-time":
			return ir.Primitive(ir.Datetime), nil
		case "time":
			return ir.Primitive(ir.Time), nil
		}
		return ir.Primitive(ir.String), nil
	case "array":
		if s.Items == nil {
			return ir.Model{}, &MissingFieldError{Field: "items"}
		}
		elem, err := MapSchema(s.Items)
		if err != nil {
			return ir.Model{}, fmt.Errorf("items: %w", err)
		}
		return ir.ArrayOf(elem), nil
	case "object":
		return mapObject(s)
	default:
		return ir.Model{}, &UnsupportedTypeError{Type: s.Type}
	}
}

func integerKind(format string) ir.Kind {
	switch format {
	case "int8":
		return ir.Int8
	case "int16":
		return ir.Int16
	case "int32":
		return ir.Int32
	case "int64":
		return ir.Int64
	case "uint":
		return ir.Uint
	case "uint8":
		return ir.Uint8
	case "uint16":
		return ir.Uint16
	case "uint32":
		return ir.Uint32
	case "uint64":
		return ir.Uint64
	}
	return ir.Int
}

func mapObject(s *spec.Schema) (ir.Model, error) {
	if s.Properties.Len() == 0 && s.AdditionalProperties != nil && s.AdditionalProperties.Allowed {
		elem, err := MapSchema(s.AdditionalProperties.Schema)
		if err != nil {
			return ir.Model{}, fmt.Errorf("additionalProperties: %w", err)
		}
		return ir.MapOf(elem), nil
	}

	var props []ir.Property
	for name, ps := range s.Properties.All() {
		m, err := MapSchema(ps)
		if err != nil {
			return ir.Model{}, fmt.Errorf("property %q: %w", name, err)
		}
		var desc string
		if ps != nil {
			desc = ps.Description
		}
		props = append(props, ir.Property{Name: name, Model: m, Description: desc})
	}
	return ir.StructOf(props...), nil
}
