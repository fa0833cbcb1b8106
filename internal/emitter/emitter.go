// Package emitter renders a compiled ir.Service into source code for a
// backend. Targets plug in through the Renderer interface; this package
// owns field flattening, parallel rendering and writing the result.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/ordered"
	"golang.org/x/sync/errgroup"
)

// Options controls how a service is rendered and where it goes.
type Options struct {
	Package string // package (Go) or module (Rust) name of the generated file
	Routes  bool   // emit route-dispatch scaffolding
	OutDir  string // when set, the file is written under this directory
	Force   bool   // overwrite an existing file
	DryRun  bool   // don't write, only plan
}

// Chunk is one rendered declaration together with the imports it needs.
type Chunk struct {
	Source  string
	Imports []string
}

// Renderer produces source for one target. Prepare is called once, before
// Model and Operation are called concurrently from several goroutines.
type Renderer interface {
	Target() string
	FileName(opts Options) string
	Prepare(svc *ir.Service, opts Options) error
	Model(svc *ir.Service, name string, m ir.Model) (Chunk, error)
	Operation(svc *ir.Service, op ir.Operation, in, out []Field) (Chunk, error)
	Routes(svc *ir.Service, opts Options) (Chunk, error)
	File(svc *ir.Service, opts Options, imports []string, chunks []Chunk) ([]byte, error)
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result holds the rendered source, the planned file and any diagnostics
// raised while flattening fields.
type Result struct {
	Source      []byte
	Planned     []PlannedFile
	Diagnostics []ir.Diagnostic
}

// Emit renders svc with r and, when opts.OutDir is set and this is not a dry
// run, writes the file.
func Emit(ctx context.Context, svc *ir.Service, r Renderer, opts Options) (*Result, error) {
	res, err := Render(ctx, svc, r, opts)
	if err != nil {
		return nil, err
	}
	if opts.OutDir == "" || opts.DryRun {
		return res, nil
	}
	if err := writeFiles(opts.OutDir, map[string][]byte{r.FileName(opts): res.Source}, opts.Force); err != nil {
		return nil, err
	}
	return res, nil
}

// Render produces the source of one file. Struct models are declared in
// svc.Order; operations follow in their compiled order. Declarations are
// rendered in parallel but always assembled in the same order.
func Render(ctx context.Context, svc *ir.Service, r Renderer, opts Options) (*Result, error) {
	if svc == nil {
		return nil, errors.New("emitter: nil service")
	}
	if err := r.Prepare(svc, opts); err != nil {
		return nil, fmt.Errorf("%s: %w", r.Target(), err)
	}

	var structs []string
	for _, name := range svc.Order {
		if m, ok := svc.Models.Get(name); ok && m.Kind == ir.Struct {
			structs = append(structs, name)
		}
	}

	chunks := make([]Chunk, len(structs)+len(svc.Operations))
	diags := make([][]ir.Diagnostic, len(svc.Operations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range structs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, _ := svc.Models.Get(name)
			c, err := r.Model(svc, name, m)
			if err != nil {
				return fmt.Errorf("model %q: %w", name, err)
			}
			chunks[i] = c
			return nil
		})
	}
	for i, op := range svc.Operations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in, inDiags := InputFields(svc, op)
			out, outDiags := OutputFields(svc, op)
			diags[i] = append(inDiags, outDiags...)
			c, err := r.Operation(svc, op, in, out)
			if err != nil {
				return fmt.Errorf("operation %q: %w", op.ID, err)
			}
			chunks[len(structs)+i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Routes && len(svc.Operations) > 0 {
		c, err := r.Routes(svc, opts)
		if err != nil {
			return nil, fmt.Errorf("routes: %w", err)
		}
		chunks = append(chunks, c)
	}

	var imports ordered.Set[string]
	for _, c := range chunks {
		for _, imp := range c.Imports {
			imports.Add(imp)
		}
	}
	deps := imports.Items()
	slices.Sort(deps)

	src, err := r.File(svc, opts, deps, chunks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Target(), err)
	}
	res := &Result{
		Source:  src,
		Planned: []PlannedFile{{RelPath: r.FileName(opts), Size: len(src), Mode: 0o644}},
	}
	for _, d := range diags {
		res.Diagnostics = append(res.Diagnostics, d...)
	}
	return res, nil
}

func writeFiles(outDir string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	for rel, content := range files {
		p := filepath.Join(abs, rel)
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() && !force {
			return fmt.Errorf("emitter: output file %q already exists (use --force to overwrite)", p)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
