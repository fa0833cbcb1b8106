package emitter

import (
	"fmt"

	"github.com/mark3labs/qigen/internal/ir"
)

// Source says where a generated field's value travels on the wire.
type Source string

const (
	FromPath   Source = "path"
	FromQuery  Source = "query"
	FromHeader Source = "header"
	FromBody   Source = "body"
)

// BodyField is the name of the field that carries a whole body.
const BodyField = "body"

// Field is one member of a generated Input or Output struct.
type Field struct {
	Name        string
	Model       ir.Model
	From        Source
	Mandatory   bool
	Description string
	// Whole is set when the field carries the entire body rather than one
	// of its properties.
	Whole bool
}

// InputFields lists the fields of op's Input struct: path, query and header
// parameters, then the request body.
func InputFields(svc *ir.Service, op ir.Operation) ([]Field, []ir.Diagnostic) {
	var fields []Field
	taken := map[string]bool{}
	for _, group := range []struct {
		from   Source
		params []ir.Parameter
	}{
		{FromPath, op.Input.Path},
		{FromQuery, op.Input.Query},
		{FromHeader, op.Input.Header},
	} {
		for _, p := range group.params {
			taken[p.Name] = true
			fields = append(fields, Field{
				Name:        p.Name,
				Model:       p.Model,
				From:        group.from,
				Mandatory:   p.Mandatory,
				Description: p.Description,
			})
		}
	}
	if op.Input.Body == nil {
		return fields, nil
	}
	body, diags := bodyFields(svc, op.ID, *op.Input.Body, op.Input.BodyRequired, taken)
	return append(fields, body...), diags
}

// OutputFields lists the fields of op's Output struct: response headers,
// then the response body.
func OutputFields(svc *ir.Service, op ir.Operation) ([]Field, []ir.Diagnostic) {
	var fields []Field
	taken := map[string]bool{}
	for _, p := range op.Output.Header {
		taken[p.Name] = true
		fields = append(fields, Field{
			Name:        p.Name,
			Model:       p.Model,
			From:        FromHeader,
			Mandatory:   p.Mandatory,
			Description: p.Description,
		})
	}
	if op.Output.Body == nil {
		return fields, nil
	}
	body, diags := bodyFields(svc, op.ID, *op.Output.Body, true, taken)
	return append(fields, body...), diags
}

// bodyFields expands a body model. Text and binary bodies become a single
// byte stream; a struct, or a reference to one, is flattened into its
// properties; anything else is carried whole.
func bodyFields(svc *ir.Service, opID string, body ir.Model, required bool, taken map[string]bool) ([]Field, []ir.Diagnostic) {
	target := svc.Resolve(body, 1)
	switch {
	case target.Kind == ir.String || target.IsBytes():
		return []Field{{
			Name:      BodyField,
			Model:     ir.IteratorOf(ir.Primitive(ir.Byte)),
			From:      FromBody,
			Mandatory: required,
			Whole:     true,
		}}, nil
	case target.Kind == ir.Struct:
		var (
			fields []Field
			diags  []ir.Diagnostic
		)
		for _, p := range target.Properties {
			if taken[p.Name] {
				diags = append(diags, ir.Diagnostic{
					Kind:      ir.ShadowedField,
					Operation: opID,
					Message:   fmt.Sprintf("body property %q is shadowed by a parameter of the same name", p.Name),
				})
				continue
			}
			taken[p.Name] = true
			fields = append(fields, Field{Name: p.Name, Model: p.Model, From: FromBody, Description: p.Description})
		}
		return fields, diags
	default:
		return []Field{{Name: BodyField, Model: body, From: FromBody, Mandatory: required, Whole: true}}, nil
	}
}
