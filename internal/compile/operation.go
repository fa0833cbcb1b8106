package compile

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/ordered"
	"github.com/mark3labs/qigen/internal/spec"
)

// defaultStatusCode is used when an operation declares no success response.
const defaultStatusCode = 200

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

type operationBuilder struct {
	cfg      *buildConfig
	resolver *Resolver
	// models receives struct-typed inline parameters hoisted into named
	// models. It already holds the component schemas.
	models *ordered.Map[string, ir.Model]
	ids    ordered.Set[string]
	diags  []ir.Diagnostic
}

// BuildOperations builds every operation of doc that passes the filters in
// opts, in path declaration order and, per path, in the fixed method order
// get, put, post, delete, options, head, patch, trace.
func BuildOperations(doc *spec.Document, r *Resolver, opts ...BuildOption) ([]ir.Operation, []ir.Diagnostic, error) {
	cfg, err := newBuildConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	b := &operationBuilder{cfg: cfg, resolver: r, models: ordered.NewMap[string, ir.Model]()}
	ops, err := b.buildAll(doc)
	return ops, b.diags, err
}

func (b *operationBuilder) buildAll(doc *spec.Document) ([]ir.Operation, error) {
	var (
		ops  []ir.Operation
		errs *multierror.Error
	)
	for uri, item := range doc.Paths.All() {
		for _, mo := range item.Operations() {
			method := ir.Method(mo.Method)
			if !b.cfg.allow(method, uri, mo.Operation.Tags) {
				continue
			}
			op, err := b.build(uri, method, item, mo.Operation)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("operation %q: %w", op.ID, err))
				continue
			}
			ops = append(ops, op)
		}
	}
	return ops, errs.ErrorOrNil()
}

// DeriveOperationID names an operation that has no operationId, e.g.
// "get /pets/{id}" becomes "getPetsId".
func DeriveOperationID(method ir.Method, uri string) string {
	return strcase.ToLowerCamel(nonAlnum.ReplaceAllString(string(method)+"_"+uri, "_"))
}

func (b *operationBuilder) build(uri string, method ir.Method, item *spec.PathItem, src *spec.Operation) (ir.Operation, error) {
	op := ir.Operation{
		ID:          src.OperationID,
		Method:      method,
		URI:         uri,
		Summary:     src.Summary,
		Description: src.Description,
		Tags:        src.Tags,
	}
	if op.ID == "" {
		op.ID = DeriveOperationID(method, uri)
	}
	if !b.ids.Add(op.ID) {
		return op, &DuplicateNameError{Kind: "operation", Name: op.ID}
	}
	b.cfg.logger.Debug("building operation", "id", op.ID, "method", string(method), "uri", uri)

	if err := b.parameters(&op, item.Parameters, src.Parameters); err != nil {
		return op, err
	}
	if err := b.requestBody(&op, src.RequestBody); err != nil {
		return op, fmt.Errorf("request body: %w", err)
	}
	if err := b.responses(&op, &src.Responses); err != nil {
		return op, err
	}
	return op, nil
}

// parameters merges path-level and operation-level parameters. An
// operation-level parameter with the same location and name replaces the
// path-level one in place.
func (b *operationBuilder) parameters(op *ir.Operation, shared, own []*spec.Parameter) error {
	merged := ordered.NewMap[string, ir.LocatedParameter]()
	for _, list := range [][]*spec.Parameter{shared, own} {
		for _, p := range list {
			if p == nil {
				continue
			}
			lp, err := b.parameter(op.ID, p)
			if err != nil {
				return err
			}
			merged.Set(string(lp.In)+":"+lp.Name, lp)
		}
	}
	for _, lp := range merged.All() {
		switch lp.In {
		case ir.InPath:
			op.Input.Path = append(op.Input.Path, lp.Parameter)
		case ir.InQuery:
			op.Input.Query = append(op.Input.Query, lp.Parameter)
		case ir.InHeader:
			op.Input.Header = append(op.Input.Header, lp.Parameter)
		}
	}
	return nil
}

func (b *operationBuilder) parameter(opID string, p *spec.Parameter) (ir.LocatedParameter, error) {
	if p.Ref != "" {
		return b.resolver.Parameter(p.Ref)
	}
	lp, err := buildParameter(p)
	if err != nil {
		return lp, err
	}
	if lp.Model.Kind == ir.Struct {
		name := strcase.ToCamel(opID) + strcase.ToCamel(lp.Name)
		if b.models.Has(name) {
			return lp, &DuplicateNameError{Kind: "model", Name: name}
		}
		b.models.Set(name, lp.Model)
		lp.Model = ir.Ref(name)
	}
	return lp, nil
}

func (b *operationBuilder) requestBody(op *ir.Operation, rb *spec.RequestBody) error {
	if rb == nil {
		return nil
	}
	if rb.Ref != "" {
		resolved, err := b.resolver.RequestBody(rb.Ref)
		if err != nil {
			return err
		}
		if resolved == nil {
			return nil
		}
		rb = resolved
	}
	op.Input.BodyRequired = rb.Required
	body, err := firstMediaModel(&rb.Content)
	if err != nil {
		return err
	}
	op.Input.Body = body
	return nil
}

// firstMediaModel maps the schema of the first declared media type, or
// returns nil when content is empty.
func firstMediaModel(content *spec.Map[*spec.MediaType]) (*ir.Model, error) {
	for mime, mt := range content.All() {
		var s *spec.Schema
		if mt != nil {
			s = mt.Schema
		}
		m, err := MapSchema(s)
		if err != nil {
			return nil, fmt.Errorf("media type %q: %w", mime, err)
		}
		return &m, nil
	}
	return nil, nil
}

type successResponse struct {
	code int
	resp *spec.Response
}

func (b *operationBuilder) responses(op *ir.Operation, responses *spec.Map[*spec.Response]) error {
	var successes []successResponse
	seen := map[int]bool{}
	for key, resp := range responses.All() {
		if key == "default" {
			b.diag(ir.IgnoredDefault, op.ID, `the "default" response is not modelled`)
			continue
		}
		code, err := strconv.Atoi(key)
		if err != nil || code < 100 || code >= 300 || seen[code] {
			b.diag(ir.IgnoredResponse, op.ID, fmt.Sprintf("response %q ignored: not a success status code", key))
			continue
		}
		seen[code] = true
		if resp != nil && resp.Ref != "" {
			resp, err = b.resolver.Response(resp.Ref)
			if err != nil {
				return fmt.Errorf("response %s: %w", key, err)
			}
		}
		successes = append(successes, successResponse{code: code, resp: resp})
	}
	slices.SortFunc(successes, func(x, y successResponse) int { return x.code - y.code })

	op.Output.StatusCode = defaultStatusCode
	if len(successes) > 0 {
		op.Output.StatusCode = successes[0].code
	}
	chosen := false
	for _, s := range successes {
		op.Expect = append(op.Expect, s.code)
		if !hasContent(s.resp) {
			continue
		}
		if chosen {
			b.diag(ir.DuplicateOutput, op.ID, fmt.Sprintf("status %d also defines an output; using status %d", s.code, op.Output.StatusCode))
			continue
		}
		chosen = true
		out, err := b.output(s.code, s.resp)
		if err != nil {
			return fmt.Errorf("response %d: %w", s.code, err)
		}
		op.Output = out
	}
	return nil
}

func hasContent(r *spec.Response) bool {
	return r != nil && (r.Content.Len() > 0 || r.Headers.Len() > 0)
}

func (b *operationBuilder) output(code int, resp *spec.Response) (ir.Output, error) {
	out := ir.Output{StatusCode: code}
	for name, h := range resp.Headers.All() {
		if h != nil && h.Ref != "" {
			resolved, err := b.resolver.Header(h.Ref)
			if err != nil {
				return out, fmt.Errorf("header %q: %w", name, err)
			}
			h = resolved
		}
		var (
			schema   *spec.Schema
			required bool
			desc     string
		)
		if h != nil {
			schema, required, desc = h.Schema, h.Required, h.Description
		}
		m, err := MapSchema(schema)
		if err != nil {
			return out, fmt.Errorf("header %q: %w", name, err)
		}
		out.Header = append(out.Header, ir.Parameter{Name: name, Model: m, Mandatory: required, Description: desc})
	}
	body, err := firstMediaModel(&resp.Content)
	if err != nil {
		return out, err
	}
	out.Body = body
	return out, nil
}

func (b *operationBuilder) diag(kind ir.DiagnosticKind, opID, msg string) {
	b.diags = append(b.diags, ir.Diagnostic{Kind: kind, Operation: opID, Message: msg})
}
