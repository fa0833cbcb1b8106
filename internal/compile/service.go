// Package compile turns a decoded document into a resolved ir.Service:
// reference resolution, schema to model translation, per-operation
// parameter and response extraction, and dependency ordering of models.
package compile

import (
	"errors"
	"fmt"

	"github.com/go-openapi/jsonpointer"
	"github.com/hashicorp/go-multierror"
	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/ordered"
	"github.com/mark3labs/qigen/internal/spec"
)

// Build compiles doc into a Service. Structural problems in different
// schemas or operations are collected and returned together.
func Build(doc *spec.Document, opts ...BuildOption) (*ir.Service, error) {
	if doc == nil {
		return nil, errors.New("compile: nil document")
	}
	cfg, err := newBuildConfig(opts)
	if err != nil {
		return nil, err
	}
	r, err := NewResolver(doc)
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	models := ordered.NewMap[string, ir.Model]()
	if doc.Components != nil {
		for name, s := range doc.Components.Schemas.All() {
			m, err := MapSchema(s)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("schema %q: %w", name, err))
				continue
			}
			models.Set(name, m)
		}
	}
	errs = multierror.Append(errs, hoistParameters(models, r.Parameters()))

	b := &operationBuilder{cfg: cfg, resolver: r, models: models}
	ops, err := b.buildAll(doc)
	errs = multierror.Append(errs, err)

	svc := &ir.Service{
		Title:       doc.Info.Title,
		Version:     doc.Info.Version,
		Models:      models,
		Parameters:  r.Parameters(),
		Operations:  ops,
		Diagnostics: b.diags,
	}
	errs = multierror.Append(errs, checkReferences(svc, doc.Components != nil))
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	order, err := ModelOrder(models)
	if err != nil {
		return nil, err
	}
	svc.Order = order
	cfg.logger.Debug("built service", "models", models.Len(), "operations", len(ops), "diagnostics", len(b.diags))
	return svc, nil
}

// hoistParameters moves struct-typed component parameters into named models
// so emitters can declare them; the parameter then refers to the model.
func hoistParameters(models *ordered.Map[string, ir.Model], params *ordered.Map[string, ir.LocatedParameter]) error {
	var errs *multierror.Error
	for name, lp := range params.All() {
		if lp.Model.Kind != ir.Struct {
			continue
		}
		if models.Has(name) {
			errs = multierror.Append(errs, fmt.Errorf("parameter %q: %w", name, &DuplicateNameError{Kind: "model", Name: name}))
			continue
		}
		models.Set(name, lp.Model)
		lp.Model = ir.Ref(name)
		params.Set(name, lp)
	}
	return errs.ErrorOrNil()
}

// checkReferences verifies that every reference in svc names a model or a
// component parameter. Errors carry the schema pointer the reference was
// read from.
func checkReferences(svc *ir.Service, hasComponents bool) error {
	var errs *multierror.Error
	check := func(context string, m ir.Model) {
		for _, ref := range m.References() {
			if _, ok := svc.Lookup(ref); ok {
				continue
			}
			var err error = &UnresolvedReferenceError{Ref: schemaPointer(ref)}
			if !hasComponents {
				err = &MissingComponentsError{Ref: schemaPointer(ref)}
			}
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", context, err))
		}
	}
	for name, m := range svc.Models.All() {
		check(fmt.Sprintf("schema %q", name), m)
	}
	for name, lp := range svc.Parameters.All() {
		check(fmt.Sprintf("parameter %q", name), lp.Model)
	}
	for _, op := range svc.Operations {
		ctx := fmt.Sprintf("operation %q", op.ID)
		for _, list := range [][]ir.Parameter{op.Input.Path, op.Input.Query, op.Input.Header, op.Output.Header} {
			for _, p := range list {
				check(ctx, p.Model)
			}
		}
		if op.Input.Body != nil {
			check(ctx, *op.Input.Body)
		}
		if op.Output.Body != nil {
			check(ctx, *op.Output.Body)
		}
	}
	return errs.ErrorOrNil()
}

func schemaPointer(name string) string {
	return "#/components/schemas/" + jsonpointer.Escape(name)
}
