// Package rustemitter renders a compiled service as a single Rust module:
// serde structs for named models, Input and Output structs per operation,
// and actix-web route registration with stub handlers.
package rustemitter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/qigen/internal/emitter"
	"github.com/mark3labs/qigen/internal/ir"
)

// DefaultModule names the generated file when Options.Package is empty.
const DefaultModule = "api"

var moduleName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Renderer implements emitter.Renderer for Rust. Use a fresh Renderer per
// Render call.
type Renderer struct {
	types    map[string]string // model name -> struct name
	inline   map[string]string // inlineKey -> hoisted struct name
	inputs   map[string]string
	outputs  map[string]string
	handlers map[string]string // operation ID -> handler fn
}

func New() *Renderer {
	return &Renderer{}
}

var _ emitter.Renderer = (*Renderer)(nil)

func (r *Renderer) Target() string { return "rust" }

func (r *Renderer) FileName(opts emitter.Options) string {
	return module(opts) + ".rs"
}

func module(opts emitter.Options) string {
	if m := strings.TrimSpace(opts.Package); m != "" {
		return m
	}
	return DefaultModule
}

// Prepare claims every type and function name before chunks are rendered
// concurrently. Named models and operation structs are claimed before any
// hoisted inline struct so they keep their plain names.
func (r *Renderer) Prepare(svc *ir.Service, opts emitter.Options) error {
	if m := module(opts); !moduleName.MatchString(m) || keywords[m] {
		return fmt.Errorf("invalid module name %q", m)
	}
	r.types = map[string]string{}
	r.inline = map[string]string{}
	r.inputs = map[string]string{}
	r.outputs = map[string]string{}
	r.handlers = map[string]string{}

	idents := newRegistry()
	var structs []string
	for _, name := range svc.Order {
		if m, ok := svc.Models.Get(name); ok && m.Kind == ir.Struct {
			r.types[name] = idents.claim(typeName(name))
			structs = append(structs, name)
		}
	}
	fns := newRegistry()
	if opts.Routes {
		fns.claim("configure")
	}
	for _, op := range svc.Operations {
		base := typeName(op.ID)
		r.inputs[op.ID] = idents.claim(base + "Input")
		r.outputs[op.ID] = idents.claim(base + "Output")
		r.handlers[op.ID] = fns.claim(fieldName(op.ID))
	}

	p := &planner{svc: svc, idents: idents, inline: r.inline, visiting: map[string]bool{}}
	for _, name := range structs {
		m, _ := svc.Models.Get(name)
		p.props(r.types[name], m.Properties)
	}
	for _, op := range svc.Operations {
		in, _ := emitter.InputFields(svc, op)
		out, _ := emitter.OutputFields(svc, op)
		for i, f := range in {
			p.model(r.inputs[op.ID], i, f.Name, f.Model)
		}
		for i, f := range out {
			p.model(r.outputs[op.ID], i, f.Name, f.Model)
		}
	}
	return nil
}

func (r *Renderer) Model(svc *ir.Service, name string, m ir.Model) (emitter.Chunk, error) {
	w := r.newTypeWriter(svc)
	id := r.types[name]
	decl, err := w.structDecl(id, fmt.Sprintf("%s is generated from the %q schema.", id, name), m.Properties)
	if err != nil {
		return emitter.Chunk{}, err
	}
	return w.chunk(decl), nil
}

func (r *Renderer) Operation(svc *ir.Service, op ir.Operation, in, out []emitter.Field) (emitter.Chunk, error) {
	w := r.newTypeWriter(svc)
	route := strings.ToUpper(string(op.Method)) + " " + op.URI
	inID, outID := r.inputs[op.ID], r.outputs[op.ID]

	doc := fmt.Sprintf("%s holds the request values of %s.", inID, route)
	if op.Summary != "" {
		doc += "\n\n" + op.Summary
	}
	inDecl, err := w.fieldsDecl(inID, doc, in)
	if err != nil {
		return emitter.Chunk{}, fmt.Errorf("input: %w", err)
	}
	outDecl, err := w.fieldsDecl(outID, fmt.Sprintf("%s holds the %d response of %s.", outID, op.Output.StatusCode, route), out)
	if err != nil {
		return emitter.Chunk{}, fmt.Errorf("output: %w", err)
	}

	var b strings.Builder
	b.WriteString(inDecl)
	b.WriteString("\n")
	b.WriteString(outDecl)
	b.WriteString("\n")
	fmt.Fprintf(&b, "impl %s {\n", outID)
	fmt.Fprintf(&b, "    pub const STATUS_CODE: u16 = %d;\n", op.Output.StatusCode)
	b.WriteString("}\n")
	return w.chunk(b.String()), nil
}

func (w *typeWriter) chunk(src string) emitter.Chunk {
	var b strings.Builder
	b.WriteString(src)
	for _, d := range w.decls {
		b.WriteString("\n")
		b.WriteString(d)
	}
	return emitter.Chunk{Source: b.String(), Imports: w.imports.Items()}
}

// Routes renders a configure function for actix-web's App::configure and
// one handler per operation answering 501 Not Implemented.
func (r *Renderer) Routes(svc *ir.Service, opts emitter.Options) (emitter.Chunk, error) {
	var b strings.Builder
	name := svc.Title
	if name == "" {
		name = "the service"
	}
	fmt.Fprintf(&b, "/// Registers the operations of %s.\n", name)
	b.WriteString("pub fn configure(cfg: &mut web::ServiceConfig) {\n")
	for _, op := range svc.Operations {
		fmt.Fprintf(&b, "    cfg.route(%s, %s.to(%s));\n", strconv.Quote(op.URI), routeBuilder(op.Method), r.handlers[op.ID])
	}
	b.WriteString("}\n")
	for _, op := range svc.Operations {
		b.WriteString("\n")
		fmt.Fprintf(&b, "/// Handles %s %s.\n", strings.ToUpper(string(op.Method)), op.URI)
		if len(op.Expect) > 0 {
			codes := make([]string, len(op.Expect))
			for i, c := range op.Expect {
				codes[i] = strconv.Itoa(c)
			}
			fmt.Fprintf(&b, "/// Success status codes: %s.\n", strings.Join(codes, ", "))
		}
		fmt.Fprintf(&b, "async fn %s() -> HttpResponse {\n", r.handlers[op.ID])
		b.WriteString("    HttpResponse::NotImplemented().finish()\n")
		b.WriteString("}\n")
	}
	return emitter.Chunk{Source: b.String(), Imports: []string{"actix_web::{web, HttpResponse}"}}, nil
}

func routeBuilder(m ir.Method) string {
	if m == ir.OPTIONS {
		return "web::route().method(actix_web::http::Method::OPTIONS)"
	}
	return "web::" + string(m) + "()"
}

func (r *Renderer) File(svc *ir.Service, opts emitter.Options, deps []string, chunks []emitter.Chunk) ([]byte, error) {
	var b strings.Builder
	b.WriteString("// Code generated by qigen. DO NOT EDIT.\n")
	if svc.Title != "" {
		title := svc.Title
		if svc.Version != "" {
			title += " " + svc.Version
		}
		fmt.Fprintf(&b, "\n//! Request and response types of %s.\n", title)
	}
	b.WriteString("\n")
	for _, d := range deps {
		fmt.Fprintf(&b, "use %s;\n", d)
	}
	if len(deps) > 0 {
		b.WriteString("\n")
	}
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Source)
	}
	return []byte(b.String()), nil
}
