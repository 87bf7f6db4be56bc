// Package workspace decodes HCL workspace files into module builds.
//
// A workspace names the library and program modules of a build:
//
//	name = "demo"
//
//	library {
//	  module "consts" {
//	    source = "limit = ${var.limit}"
//	  }
//	}
//
//	program {
//	  module "main" {
//	    source_file = "main.star"
//	    isolated    = true
//
//	    module "setup" {
//	      source = "total = 0"
//	    }
//	  }
//	}
//
// Each module takes exactly one of source, source_file (relative to the
// workspace file) or source_url. Nested module blocks become children.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/robbyt/go-scripttree/engine"
	"github.com/robbyt/go-scripttree/internal/helpers"
	"github.com/robbyt/go-scripttree/module"
	"github.com/robbyt/go-scripttree/persist"
	"github.com/robbyt/go-scripttree/source"
	"github.com/zclconf/go-cty/cty"
)

type fileSpec struct {
	Name    string       `hcl:"name,optional"`
	Library *sectionSpec `hcl:"library,block"`
	Program *sectionSpec `hcl:"program,block"`
}

type sectionSpec struct {
	Modules []*moduleSpec `hcl:"module,block"`
}

type moduleSpec struct {
	Name         string        `hcl:"name,label"`
	CodeType     int           `hcl:"code_type,optional"`
	Isolated     bool          `hcl:"isolated,optional"`
	Flavor       string        `hcl:"flavor,optional"`
	FriendlyName string        `hcl:"friendly_name,optional"`
	Source       *string       `hcl:"source,optional"`
	SourceFile   string        `hcl:"source_file,optional"`
	SourceURL    string        `hcl:"source_url,optional"`
	Modules      []*moduleSpec `hcl:"module,block"`
}

// LoadFile reads and decodes the workspace file at path.
func LoadFile(ctx context.Context, path string, eng engine.Engine, opts ...Option) (*module.Build, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace %s: %w", path, err)
	}
	return Decode(ctx, path, src, eng, opts...)
}

// Decode decodes workspace text. filename labels diagnostics, names the build
// when the file sets no name, and anchors relative source_file paths.
func Decode(ctx context.Context, filename string, src []byte, eng engine.Engine, opts ...Option) (*module.Build, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying workspace option: %w", err)
		}
	}
	logger := cfg.logger
	if logger == nil {
		_, logger = helpers.SetupLogger(cfg.logHandler, "workspace", "Decode")
	}
	logger = logger.With("file", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidWorkspace, filename, diags)
	}

	var spec fileSpec
	diags = gohcl.DecodeBody(file.Body, evalContext(cfg.vars), &spec)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrInvalidWorkspace, filename, diags)
	}

	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace directory: %w", err)
	}
	r := &resolver{dir: dir, httpOptions: cfg.httpOptions, logger: logger}

	doc := &persist.BuildDoc{Name: spec.Name}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if doc.Library, err = r.section(ctx, spec.Library); err != nil {
		return nil, err
	}
	if doc.Program, err = r.section(ctx, spec.Program); err != nil {
		return nil, err
	}

	b, err := module.NewBuildFromDocument(eng, doc, cfg.moduleOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
	}
	logger.Debug("Workspace decoded", "build", b.Name(), "library", b.Library().Len(), "program", b.Len())
	return b, nil
}

func evalContext(vars map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(vars),
		},
	}
}

// resolver turns decoded module blocks into module documents, fetching
// external sources.
type resolver struct {
	dir         string
	httpOptions *source.HTTPOptions
	logger      *slog.Logger
}

func (r *resolver) section(ctx context.Context, s *sectionSpec) ([]persist.ModuleDoc, error) {
	if s == nil {
		return nil, nil
	}
	return r.modules(ctx, s.Modules)
}

func (r *resolver) modules(ctx context.Context, specs []*moduleSpec) ([]persist.ModuleDoc, error) {
	docs := make([]persist.ModuleDoc, 0, len(specs))
	for _, ms := range specs {
		text, err := r.text(ctx, ms)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", ms.Name, err)
		}
		children, err := r.modules(ctx, ms.Modules)
		if err != nil {
			return nil, err
		}

		doc := persist.ModuleDoc{
			Name:         ms.Name,
			CodeType:     ms.CodeType,
			FriendlyName: ms.FriendlyName,
			Flavor:       ms.Flavor,
			Isolated:     ms.Isolated,
			Source:       text,
			Modules:      children,
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// text returns the module source from whichever attribute set it.
func (r *resolver) text(ctx context.Context, ms *moduleSpec) (string, error) {
	var loader source.Loader
	var err error
	set := 0
	if ms.Source != nil {
		set++
	}
	if ms.SourceFile != "" {
		set++
		loader, err = source.NewFromDiskRelative(r.dir, ms.SourceFile)
	}
	if ms.SourceURL != "" {
		set++
		loader, err = source.NewFromHTTPWithOptions(ms.SourceURL, r.httpOptions)
	}

	switch {
	case set > 1:
		return "", fmt.Errorf("%w: only one of source, source_file and source_url may be set", ErrInvalidWorkspace)
	case err != nil:
		return "", err
	case ms.Source != nil:
		return *ms.Source, nil
	case loader == nil:
		return "", nil
	}

	text, err := source.ReadAll(ctx, loader)
	if err != nil {
		return "", err
	}
	r.logger.Debug("Module source loaded", "module", ms.Name, "from", loader.GetSourceURL().String())
	return text, nil
}
