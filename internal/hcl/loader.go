package hcl

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/shaderplan/internal/config"
	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/fsutil"
	"github.com/vk/shaderplan/internal/registry"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	factory *element.Factory
}

// NewLoader creates a new HCL scene loader. Element identities come from
// factory, so scenes loaded through the same factory never share ids.
func NewLoader(factory *element.Factory) *Loader {
	if factory == nil {
		factory = element.NewFactory()
	}
	return &Loader{factory: factory}
}

// sourced pairs a decoded block with the directory of its file, against
// which file() resolves relative paths.
type sourced[T any] struct {
	block T
	dir   string
}

// blocks gathers the decoded blocks of every file.
type blocks struct {
	shaders    []sourced[*shaderBlock]
	passes     []*passBlock
	contents   []*contentBlock
	components []*componentBlock
	fragments  []*fragmentBlock
	scenes     []*sceneBlock
}

// Load parses every .hcl file under paths and builds the scene they
// describe. Shaders are registered with reg.
func (l *Loader) Load(ctx context.Context, reg *registry.Registry, paths ...string) (*config.Scene, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var all blocks
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		dir := dirOf(file)
		for _, s := range root.Shaders {
			all.shaders = append(all.shaders, sourced[*shaderBlock]{block: s, dir: dir})
		}
		all.passes = append(all.passes, root.Passes...)
		all.contents = append(all.contents, root.Contents...)
		all.components = append(all.components, root.Components...)
		all.fragments = append(all.fragments, root.Fragments...)
		all.scenes = append(all.scenes, root.Scenes...)
	}

	shaderIDs, err := l.registerShaders(ctx, reg, all.shaders)
	if err != nil {
		return nil, err
	}

	b := newSceneBuilder(ctx, l.factory, shaderIDs)
	if err := b.declare(&all); err != nil {
		return nil, err
	}
	if err := b.checkReferences(&all); err != nil {
		return nil, err
	}
	if err := b.fill(&all); err != nil {
		return nil, err
	}

	scene, err := b.scene(all.scenes)
	if err != nil {
		return nil, err
	}
	scene.Files = files

	logger.Debug("HCL loading complete.",
		"shaders", len(shaderIDs),
		"passes", len(all.passes),
		"contents", len(all.contents),
		"components", len(all.components),
		"fragments", len(all.fragments),
	)
	return scene, nil
}

func (l *Loader) registerShaders(ctx context.Context, reg *registry.Registry, shaders []sourced[*shaderBlock]) (map[string]registry.ShaderID, error) {
	defs := make(map[string]registry.Shader, len(shaders))
	var errs []error
	for _, s := range shaders {
		if _, dup := defs[s.block.Name]; dup {
			errs = append(errs, fmt.Errorf("shader %q is defined more than once", s.block.Name))
			continue
		}
		val, diags := s.block.Frag.Value(fileEvalContext(s.dir))
		if diags.HasErrors() {
			errs = append(errs, fmt.Errorf("shader %q: %w", s.block.Name, diags))
			continue
		}
		frag, err := toNative(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("shader %q: frag: %w", s.block.Name, err))
			continue
		}
		src, _ := frag.(string)
		defs[s.block.Name] = registry.Shader{Name: s.block.Name, Frag: src}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	ids, err := reg.Register(defs)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)
	ctxlog.FromContext(ctx).Debug("Registered shaders.", "names", names)
	return ids, nil
}

// isExprDefined checks if an HCL expression was actually present in the
// source. gohcl fills omitted optional attributes with zero-width
// placeholder expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}
