package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
	"github.com/vk/shaderplan/internal/registry"
)

// maxExpandDepth bounds delegate expansion while looking for a nested pass.
const maxExpandDepth = 64

var errTooDeep = errors.New("delegate chain too deep")

// Shaders is the part of the shader registry the builder consumes.
type Shaders interface {
	Exists(id registry.ShaderID) bool
	NameOf(id registry.ShaderID) string
}

// Builder builds PassNode trees. It holds no per-build state and may be used
// concurrently.
type Builder struct {
	shaders Shaders
}

// New creates a Builder validating shader ids against shaders.
func New(shaders Shaders) *Builder {
	return &Builder{shaders: shaders}
}

// Build builds the pass with the given shader, inline uniforms, size and
// uniform declarations. The returned node has no identity; BuildPass sets
// it from the element.
func (b *Builder) Build(ctx context.Context, shader registry.ShaderID, uniforms map[string]any, width, height int, declarations []element.Node, preload bool) (*model.PassNode, error) {
	return b.build(ctx, &buildState{}, 0, shader, uniforms, width, height, declarations, preload)
}

// BuildPass builds p, using width, height and preload for whatever p leaves
// unset.
func (b *Builder) BuildPass(ctx context.Context, p *element.Pass, width, height int, preload bool) (*model.PassNode, error) {
	state := &buildState{}
	return b.buildPass(ctx, state, p, width, height, preload)
}

// buildState tracks the passes currently being built, to reject cycles in
// hand-assembled trees.
type buildState struct {
	stack []element.ID
}

func (s *buildState) push(id element.ID) bool {
	for _, open := range s.stack {
		if open == id {
			return false
		}
	}
	s.stack = append(s.stack, id)
	return true
}

func (s *buildState) pop() {
	s.stack = s.stack[:len(s.stack)-1]
}

func (b *Builder) buildPass(ctx context.Context, state *buildState, p *element.Pass, width, height int, preload bool) (*model.PassNode, error) {
	if p.Width != 0 {
		width = p.Width
	}
	if p.Height != 0 {
		height = p.Height
	}
	if p.Preload != nil {
		preload = *p.Preload
	}
	if !state.push(p.ID()) {
		return nil, &model.Error{
			Kind:       model.ErrCyclicPass,
			Shader:     p.Shader,
			ShaderName: b.shaders.NameOf(p.Shader),
			Detail:     fmt.Sprintf("%s samples its own output", p),
		}
	}
	defer state.pop()

	return b.build(ctx, state, p.ID(), p.Shader, p.Uniforms, width, height, p.Children, preload)
}

func (b *Builder) build(ctx context.Context, state *buildState, id element.ID, shader registry.ShaderID, inline map[string]any, width, height int, declarations []element.Node, preload bool) (*model.PassNode, error) {
	logger := ctxlog.FromContext(ctx)

	if !b.shaders.Exists(shader) {
		return nil, &model.Error{Kind: model.ErrUnknownShader, Shader: shader, Detail: fmt.Sprintf("shader #%d does not exist", shader)}
	}
	shaderName := b.shaders.NameOf(shader)
	fail := func(kind error, uniform, detail string) error {
		return &model.Error{Kind: kind, Shader: shader, ShaderName: shaderName, Uniform: uniform, Detail: detail}
	}

	if width <= 0 || height <= 0 {
		return nil, fail(model.ErrInvalidSize, "", fmt.Sprintf("%dx%d", width, height))
	}

	raw, order, err := collectUniforms(inline, declarations, fail)
	if err != nil {
		return nil, err
	}

	node := &model.PassNode{
		ID:       id,
		Shader:   shader,
		Uniforms: make(map[string]model.Value, len(raw)),
		Width:    width,
		Height:   height,
		Preload:  preload,
	}

	for _, name := range order {
		c, err := classify(raw[name])
		if err != nil {
			logger.Error("Invalid uniform value.", "shader", shader, "shader_name", shaderName, "uniform", name, "value", fmt.Sprintf("%#v", raw[name]))
			return nil, fail(model.ErrInvalidUniformFormat, name, err.Error())
		}
		if c.node == nil {
			node.Uniforms[name] = c.value
			continue
		}

		if c.node.ID() == 0 {
			return nil, fail(model.ErrInvalidUniformFormat, name, fmt.Sprintf("%s has no identity", c.node))
		}
		pass, err := findPass(c.node)
		if err != nil {
			kind := model.ErrInvalidUniformFormat
			if errors.Is(err, errTooDeep) {
				kind = model.ErrDelegateDepth
			}
			return nil, fail(kind, name, err.Error())
		}
		if pass == nil {
			node.Contents = append(node.Contents, model.ContentUse{ID: c.node.ID(), Uniform: name, Element: c.node, Opts: c.opts})
			node.Uniforms[name] = model.ContentRef{ID: c.node.ID(), Opts: c.opts}
			continue
		}
		if pass.ID() == 0 {
			return nil, fail(model.ErrInvalidUniformFormat, name, fmt.Sprintf("%s renders a pass with no identity", c.node))
		}
		child, err := b.buildPass(ctx, state, pass, width, height, preload)
		if err != nil {
			return nil, err
		}
		// The pass is known by the element the uniform points at, which may be
		// a delegate wrapping it.
		child.ID = c.node.ID()
		node.Children = append(node.Children, model.ChildPass{ID: c.node.ID(), Uniform: name, Node: child})
		node.Uniforms[name] = model.FramebufferRef{ID: c.node.ID()}
	}

	logger.Debug("Built pass.", "shader", shader, "shader_name", shaderName, "uniforms", len(node.Uniforms), "children", len(node.Children), "contents", len(node.Contents))
	return node, nil
}

// collectUniforms merges the inline uniforms with the declarations. The
// returned order lists inline names sorted, then declared names in
// declaration order.
func collectUniforms(inline map[string]any, declarations []element.Node, fail func(kind error, uniform, detail string) error) (map[string]any, []string, error) {
	raw := make(map[string]any, len(inline)+len(declarations))
	order := make([]string, 0, len(inline)+len(declarations))
	for name, v := range inline {
		raw[name] = v
		order = append(order, name)
	}
	sort.Strings(order)

	for _, child := range declarations {
		u, ok := child.(*element.Uniform)
		if !ok {
			return nil, nil, fail(model.ErrInvalidChildKind, "", fmt.Sprintf("a pass can only contain uniform declarations, got %s", describe(child)))
		}
		if u.Name == "" {
			return nil, nil, fail(model.ErrDuplicateUniform, "", "a uniform declaration must define a non-empty name")
		}
		if _, exists := inline[u.Name]; exists {
			return nil, nil, fail(model.ErrDuplicateUniform, u.Name, "already set by the inline uniforms")
		}
		if _, exists := raw[u.Name]; exists {
			return nil, nil, fail(model.ErrDuplicateUniform, u.Name, "already defined by another uniform declaration")
		}
		raw[u.Name] = declaredValue(u)
		order = append(order, u.Name)
	}
	return raw, order, nil
}

// declaredValue attaches the declaration's opts to its value, unless the
// value is blank or already carries its own wrapper.
func declaredValue(u *element.Uniform) any {
	if isFalsy(u.Value) || len(u.Opts) == 0 {
		return u.Value
	}
	if _, _, wrapped := unwrap(u.Value); wrapped {
		return u.Value
	}
	return element.Wrapped{Value: u.Value, Opts: u.Opts}
}

func describe(n element.Node) string {
	if n == nil {
		return "nil"
	}
	return fmt.Sprintf("%s (%s)", n, n.Kind())
}

// findPass looks through transparent delegates for a pass. It returns nil
// when the chain ends on anything else.
func findPass(n element.Node) (*element.Pass, error) {
	for depth := 0; depth < maxExpandDepth; depth++ {
		if p, ok := n.(*element.Pass); ok {
			return p, nil
		}
		d, ok := n.(element.Delegate)
		if !ok {
			return nil, nil
		}
		rendered, err := d.Expand()
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", n, err)
		}
		if len(rendered) != 1 || rendered[0] == nil {
			return nil, nil
		}
		n = rendered[0]
	}
	return nil, fmt.Errorf("%w: %s did not settle after %d expansions", errTooDeep, n, maxExpandDepth)
}
