// Package goemitter renders a compiled service as a single Go source file:
// struct declarations for named models, an Input and an Output struct per
// operation, and net/http route scaffolding.
package goemitter

import (
	"bytes"
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/mark3labs/qigen/internal/emitter"
	"github.com/mark3labs/qigen/internal/ir"
	"golang.org/x/tools/imports"
)

// DefaultPackage is the package name used when Options.Package is empty.
const DefaultPackage = "api"

// Renderer implements emitter.Renderer for Go. Use a fresh Renderer per
// Render call.
type Renderer struct {
	types   map[string]string // model name -> type identifier
	inputs  map[string]string // operation ID -> Input type identifier
	outputs map[string]string // operation ID -> Output type identifier
	methods map[string]string // operation ID -> Server method name
}

func New() *Renderer {
	return &Renderer{}
}

var _ emitter.Renderer = (*Renderer)(nil)

func (r *Renderer) Target() string { return "go" }

func (r *Renderer) FileName(opts emitter.Options) string {
	return packageName(opts) + ".go"
}

func packageName(opts emitter.Options) string {
	if p := strings.TrimSpace(opts.Package); p != "" {
		return p
	}
	return DefaultPackage
}

// Prepare assigns every package-level identifier up front so that chunks
// rendered concurrently agree on names.
func (r *Renderer) Prepare(svc *ir.Service, opts emitter.Options) error {
	if pkg := packageName(opts); !token.IsIdentifier(pkg) {
		return fmt.Errorf("invalid package name %q", pkg)
	}
	r.types = map[string]string{}
	r.inputs = map[string]string{}
	r.outputs = map[string]string{}
	r.methods = map[string]string{}

	idents := newRegistry()
	if opts.Routes {
		idents.claim("Server")
		idents.claim("UnimplementedServer")
		idents.claim("RegisterRoutes")
	}
	for name, m := range svc.Models.All() {
		if m.Kind == ir.Struct {
			r.types[name] = idents.claim(exported(name))
		}
	}
	methods := newRegistry()
	for _, op := range svc.Operations {
		base := exported(op.ID)
		r.inputs[op.ID] = idents.claim(base + "Input")
		r.outputs[op.ID] = idents.claim(base + "Output")
		r.methods[op.ID] = methods.claim(base)
	}
	return nil
}

func (r *Renderer) Model(svc *ir.Service, name string, m ir.Model) (emitter.Chunk, error) {
	w := r.newTypeWriter(svc)
	body, err := w.structType(m.Properties)
	if err != nil {
		return emitter.Chunk{}, err
	}
	id := r.types[name]
	var b strings.Builder
	fmt.Fprintf(&b, "// %s is generated from the %q schema.\n", id, name)
	fmt.Fprintf(&b, "type %s %s\n", id, body)
	return emitter.Chunk{Source: b.String(), Imports: w.imports.Items()}, nil
}

func (r *Renderer) Operation(svc *ir.Service, op ir.Operation, in, out []emitter.Field) (emitter.Chunk, error) {
	w := r.newTypeWriter(svc)
	inType, err := w.fieldsType(in)
	if err != nil {
		return emitter.Chunk{}, fmt.Errorf("input: %w", err)
	}
	outType, err := w.fieldsType(out, "StatusCode")
	if err != nil {
		return emitter.Chunk{}, fmt.Errorf("output: %w", err)
	}

	route := strings.ToUpper(string(op.Method)) + " " + op.URI
	inID, outID := r.inputs[op.ID], r.outputs[op.ID]

	var b strings.Builder
	fmt.Fprintf(&b, "// %s holds the request values of %s.\n", inID, route)
	if op.Summary != "" {
		b.WriteString("//\n")
		b.WriteString(comment("", op.Summary))
	}
	fmt.Fprintf(&b, "type %s %s\n\n", inID, inType)
	fmt.Fprintf(&b, "// %s holds the %d response of %s.\n", outID, op.Output.StatusCode, route)
	fmt.Fprintf(&b, "type %s %s\n\n", outID, outType)
	fmt.Fprintf(&b, "// StatusCode returns the status code %s is sent with.\n", outID)
	fmt.Fprintf(&b, "func (%s) StatusCode() int { return %d }\n", outID, op.Output.StatusCode)
	return emitter.Chunk{Source: b.String(), Imports: w.imports.Items()}, nil
}

func (r *Renderer) Routes(svc *ir.Service, opts emitter.Options) (emitter.Chunk, error) {
	var b strings.Builder
	name := svc.Title
	if name == "" {
		name = "the service"
	}
	fmt.Fprintf(&b, "// Server handles the operations of %s.\n", name)
	b.WriteString("type Server interface {\n")
	for _, op := range svc.Operations {
		fmt.Fprintf(&b, "\t// %s handles %s %s.\n", r.methods[op.ID], strings.ToUpper(string(op.Method)), op.URI)
		if len(op.Expect) > 0 {
			codes := make([]string, len(op.Expect))
			for i, c := range op.Expect {
				codes[i] = strconv.Itoa(c)
			}
			fmt.Fprintf(&b, "\t// Success status codes: %s.\n", strings.Join(codes, ", "))
		}
		fmt.Fprintf(&b, "\t%s(w http.ResponseWriter, r *http.Request)\n", r.methods[op.ID])
	}
	b.WriteString("}\n\n")

	b.WriteString("// UnimplementedServer answers every operation with 501 Not Implemented.\n")
	b.WriteString("type UnimplementedServer struct{}\n\n")
	for _, op := range svc.Operations {
		m := r.methods[op.ID]
		fmt.Fprintf(&b, "func (UnimplementedServer) %s(w http.ResponseWriter, r *http.Request) {\n", m)
		fmt.Fprintf(&b, "\thttp.Error(w, %q, http.StatusNotImplemented)\n", m+" is not implemented")
		b.WriteString("}\n\n")
	}
	b.WriteString("var _ Server = UnimplementedServer{}\n\n")

	b.WriteString("// RegisterRoutes binds every operation of s to mux.\n")
	b.WriteString("func RegisterRoutes(mux *http.ServeMux, s Server) {\n")
	for _, op := range svc.Operations {
		fmt.Fprintf(&b, "\tmux.HandleFunc(%q, s.%s)\n", MuxPattern(op.Method, op.URI), r.methods[op.ID])
	}
	b.WriteString("}\n")
	return emitter.Chunk{Source: b.String(), Imports: []string{"net/http"}}, nil
}

// MuxPattern builds the http.ServeMux pattern of an operation, e.g.
// "GET /widgets/{id}". Template variables are renamed to valid wildcard
// names and a trailing slash matches only itself.
func MuxPattern(method ir.Method, uri string) string {
	var b strings.Builder
	for i := 0; i < len(uri); {
		open := strings.IndexByte(uri[i:], '{')
		if open < 0 {
			b.WriteString(uri[i:])
			break
		}
		end := strings.IndexByte(uri[i+open:], '}')
		if end < 0 {
			b.WriteString(uri[i:])
			break
		}
		b.WriteString(uri[i : i+open])
		b.WriteString("{" + wildcard(uri[i+open+1:i+open+end]) + "}")
		i += open + end + 1
	}
	path := b.String()
	if strings.HasSuffix(path, "/") {
		path += "{$}"
	}
	return strings.ToUpper(string(method)) + " " + path
}

func (r *Renderer) File(svc *ir.Service, opts emitter.Options, deps []string, chunks []emitter.Chunk) ([]byte, error) {
	pkg := packageName(opts)
	var b bytes.Buffer
	b.WriteString("// Code generated by qigen. DO NOT EDIT.\n\n")
	if svc.Title != "" {
		title := svc.Title
		if svc.Version != "" {
			title += " " + svc.Version
		}
		fmt.Fprintf(&b, "// Package %s holds the request and response types of %s.\n", pkg, title)
	}
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	if len(deps) > 0 {
		b.WriteString("import (\n")
		for _, d := range deps {
			fmt.Fprintf(&b, "\t%q\n", d)
		}
		b.WriteString(")\n\n")
	}
	for _, c := range chunks {
		b.WriteString(c.Source)
		b.WriteString("\n")
	}

	src, err := imports.Process(r.FileName(opts), b.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return src, nil
}
