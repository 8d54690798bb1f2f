package hcl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shaderplan/internal/config"
	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/dag"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Namespaces under which blocks are referenced from expressions.
const (
	nsShader    = "shader"
	nsPass      = "pass"
	nsContent   = "content"
	nsComponent = "component"
	nsFragment  = "fragment"
)

// sceneBuilder turns decoded blocks into elements in three steps: declare
// creates one element per block, checkReferences rejects unknown and
// cyclic references, fill evaluates every attribute.
type sceneBuilder struct {
	ctx     context.Context
	logger  *slog.Logger
	factory *element.Factory
	shaders map[string]registry.ShaderID

	elements   map[string]element.Node
	passes     map[string]*element.Pass
	contents   map[string]*element.Content
	components map[string]*element.Component
	fragments  map[string]*element.Fragment

	evalCtx *hcl.EvalContext
}

func newSceneBuilder(ctx context.Context, factory *element.Factory, shaders map[string]registry.ShaderID) *sceneBuilder {
	return &sceneBuilder{
		ctx:        ctx,
		logger:     ctxlog.FromContext(ctx),
		factory:    factory,
		shaders:    shaders,
		elements:   make(map[string]element.Node),
		passes:     make(map[string]*element.Pass),
		contents:   make(map[string]*element.Content),
		components: make(map[string]*element.Component),
		fragments:  make(map[string]*element.Fragment),
	}
}

func address(namespace, name string) string {
	return namespace + "." + name
}

func (b *sceneBuilder) add(namespace, name string, n element.Node) error {
	addr := address(namespace, name)
	if _, dup := b.elements[addr]; dup {
		return fmt.Errorf("%s %q is defined more than once", namespace, name)
	}
	b.elements[addr] = n
	return nil
}

func (b *sceneBuilder) declare(all *blocks) error {
	for _, p := range all.passes {
		n := b.factory.Pass(0, nil)
		n.Label = address(nsPass, p.Name)
		if err := b.add(nsPass, p.Name, n); err != nil {
			return err
		}
		b.passes[p.Name] = n
	}
	for _, c := range all.contents {
		n := b.factory.Content(c.Type, nil)
		n.Label = address(nsContent, c.Name)
		if err := b.add(nsContent, c.Name, n); err != nil {
			return err
		}
		b.contents[c.Name] = n
	}
	for _, c := range all.components {
		n := b.factory.Component(nil, nil)
		n.Label = address(nsComponent, c.Name)
		if err := b.add(nsComponent, c.Name, n); err != nil {
			return err
		}
		b.components[c.Name] = n
	}
	for _, f := range all.fragments {
		n := b.factory.Fragment()
		n.Label = address(nsFragment, f.Name)
		if err := b.add(nsFragment, f.Name, n); err != nil {
			return err
		}
		b.fragments[f.Name] = n
	}

	b.evalCtx = &hcl.EvalContext{
		Variables: map[string]cty.Value{
			nsShader:    shaderObject(b.shaders),
			nsPass:      nodeObject(b.passes),
			nsContent:   nodeObject(b.contents),
			nsComponent: nodeObject(b.components),
			nsFragment:  nodeObject(b.fragments),
		},
	}
	return nil
}

func shaderObject(ids map[string]registry.ShaderID) cty.Value {
	if len(ids) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(ids))
	for name, id := range ids {
		attrs[name] = cty.NumberIntVal(int64(id))
	}
	return cty.ObjectVal(attrs)
}

func nodeObject[N element.Node](nodes map[string]N) cty.Value {
	if len(nodes) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(nodes))
	for name, n := range nodes {
		attrs[name] = nodeVal(n)
	}
	return cty.ObjectVal(attrs)
}

// blockExprs lists the expressions of every element block by address.
func blockExprs(all *blocks) map[string][]hcl.Expression {
	exprs := make(map[string][]hcl.Expression)
	for _, p := range all.passes {
		list := []hcl.Expression{p.Shader, p.Width, p.Height, p.Preload, p.Uniforms}
		for _, u := range p.Declared {
			list = append(list, u.Value, u.Opts)
		}
		exprs[address(nsPass, p.Name)] = list
	}
	for _, c := range all.contents {
		exprs[address(nsContent, c.Name)] = []hcl.Expression{c.Props}
	}
	for _, c := range all.components {
		exprs[address(nsComponent, c.Name)] = []hcl.Expression{c.Renders, c.Props}
	}
	for _, f := range all.fragments {
		exprs[address(nsFragment, f.Name)] = []hcl.Expression{f.Children}
	}
	return exprs
}

// checkReferences builds the reference graph between element blocks and
// fails on references to missing blocks and on cycles.
func (b *sceneBuilder) checkReferences(all *blocks) error {
	g := dag.New()
	for addr := range b.elements {
		g.AddNode(addr)
	}

	exprs := blockExprs(all)
	froms := make([]string, 0, len(exprs))
	for from := range exprs {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	for _, from := range froms {
		for _, expr := range exprs[from] {
			if expr == nil {
				continue
			}
			for _, traversal := range expr.Variables() {
				to, ok := traversalAddress(traversal)
				if !ok {
					continue
				}
				if _, known := b.elements[to]; !known {
					rng := traversal.SourceRange()
					return fmt.Errorf("%s: %s references undefined block %s", rng.String(), from, to)
				}
				if err := g.AddEdge(from, to); err != nil {
					return fmt.Errorf("scene: %w", err)
				}
				b.logger.Debug("Found block reference.", "from", from, "to", to)
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	return nil
}

// traversalAddress returns the block address of a traversal such as
// pass.blur. Shader references and other roots are not element blocks.
func traversalAddress(t hcl.Traversal) (string, bool) {
	switch t.RootName() {
	case nsPass, nsContent, nsComponent, nsFragment:
	default:
		return "", false
	}
	if len(t) < 2 {
		return "", false
	}
	attr, ok := t[1].(hcl.TraverseAttr)
	if !ok {
		return "", false
	}
	return address(t.RootName(), attr.Name), true
}

func (b *sceneBuilder) fill(all *blocks) error {
	for _, p := range all.passes {
		if err := b.fillPass(p, b.passes[p.Name]); err != nil {
			return fmt.Errorf("pass %q: %w", p.Name, err)
		}
	}
	for _, c := range all.contents {
		props, err := b.evalMap(c.Props, "props")
		if err != nil {
			return fmt.Errorf("content %q: %w", c.Name, err)
		}
		b.contents[c.Name].Props = props
	}
	for _, c := range all.components {
		if err := b.fillComponent(c, b.components[c.Name]); err != nil {
			return fmt.Errorf("component %q: %w", c.Name, err)
		}
	}
	for _, f := range all.fragments {
		children, err := b.evalNodes(f.Children)
		if err != nil {
			return fmt.Errorf("fragment %q: children: %w", f.Name, err)
		}
		b.fragments[f.Name].Children = children
	}
	return nil
}

func (b *sceneBuilder) fillPass(block *passBlock, p *element.Pass) error {
	shaderVal, diags := block.Shader.Value(b.evalCtx)
	if diags.HasErrors() {
		return fmt.Errorf("shader: %w", diags)
	}
	p.Shader = b.shaderID(shaderVal)

	var err error
	if p.Width, err = b.evalInt(block.Width, "width"); err != nil {
		return err
	}
	if p.Height, err = b.evalInt(block.Height, "height"); err != nil {
		return err
	}
	if isExprDefined(b.ctx, block.Preload, "preload") {
		val, diags := block.Preload.Value(b.evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("preload: %w", diags)
		}
		var preload bool
		if err := decodeTo(val, cty.Bool, &preload); err != nil {
			return fmt.Errorf("preload: %w", err)
		}
		p.Preload = element.Bool(preload)
	}

	if p.Uniforms, err = b.evalUniforms(block.Uniforms); err != nil {
		return err
	}

	for _, u := range block.Declared {
		var value any
		if isExprDefined(b.ctx, u.Value, "value") {
			val, diags := u.Value.Value(b.evalCtx)
			if diags.HasErrors() {
				return fmt.Errorf("uniform %q: %w", u.Name, diags)
			}
			if value, err = uniformValue(val); err != nil {
				return fmt.Errorf("uniform %q: %w", u.Name, err)
			}
		}
		opts, err := b.evalMap(u.Opts, "opts")
		if err != nil {
			return fmt.Errorf("uniform %q: %w", u.Name, err)
		}
		decl := b.factory.Uniform(u.Name, value)
		decl.Opts = opts
		decl.Label = p.Label + ".uniform." + u.Name
		p.Children = append(p.Children, decl)
	}
	return nil
}

// shaderID accepts a shader reference, a shader name or a raw id. Unknown
// names map to 0, which the builder reports as an unknown shader.
func (b *sceneBuilder) shaderID(v cty.Value) registry.ShaderID {
	if v.IsNull() || !v.IsKnown() {
		return 0
	}
	switch v.Type() {
	case cty.String:
		return b.shaders[v.AsString()]
	case cty.Number:
		var id int
		if err := gocty.FromCtyValue(v, &id); err == nil {
			return registry.ShaderID(id)
		}
	}
	return 0
}

func (b *sceneBuilder) fillComponent(block *componentBlock, c *element.Component) error {
	props, err := b.evalMap(block.Props, "props")
	if err != nil {
		return err
	}
	rendered, err := b.evalNodes(block.Renders)
	if err != nil {
		return fmt.Errorf("renders: %w", err)
	}
	c.Props = props
	c.Render = func(element.Props) ([]element.Node, error) {
		return rendered, nil
	}
	return nil
}

func (b *sceneBuilder) evalInt(expr hcl.Expression, attr string) (int, error) {
	if !isExprDefined(b.ctx, expr, attr) {
		return 0, nil
	}
	val, diags := expr.Value(b.evalCtx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("%s: %w", attr, diags)
	}
	var n int
	if err := decodeTo(val, cty.Number, &n); err != nil {
		return 0, fmt.Errorf("%s: %w", attr, err)
	}
	return n, nil
}

func (b *sceneBuilder) evalMap(expr hcl.Expression, attr string) (map[string]any, error) {
	if !isExprDefined(b.ctx, expr, attr) {
		return nil, nil
	}
	val, diags := expr.Value(b.evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", attr, diags)
	}
	native, err := toNative(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attr, err)
	}
	if native == nil {
		return nil, nil
	}
	m, ok := native.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %s", attr, val.Type().FriendlyName())
	}
	return m, nil
}

// evalUniforms evaluates the inline uniforms object, converting each value
// with uniformValue.
func (b *sceneBuilder) evalUniforms(expr hcl.Expression) (map[string]any, error) {
	if !isExprDefined(b.ctx, expr, "uniforms") {
		return nil, nil
	}
	val, diags := expr.Value(b.evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("uniforms: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("uniforms: expected an object, got %s", val.Type().FriendlyName())
	}

	out := make(map[string]any, val.LengthInt())
	it := val.ElementIterator()
	for it.Next() {
		key, elem := it.Element()
		native, err := uniformValue(elem)
		if err != nil {
			return nil, fmt.Errorf("uniforms: in attribute %q: %w", key.AsString(), err)
		}
		out[key.AsString()] = native
	}
	return out, nil
}

// evalNodes evaluates a single element reference or a list of them.
func (b *sceneBuilder) evalNodes(expr hcl.Expression) ([]element.Node, error) {
	val, diags := expr.Value(b.evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	native, err := toNative(val)
	if err != nil {
		return nil, err
	}
	switch v := native.(type) {
	case nil:
		return nil, nil
	case element.Node:
		return []element.Node{v}, nil
	case []any:
		nodes := make([]element.Node, 0, len(v))
		for i, item := range v {
			n, ok := item.(element.Node)
			if !ok {
				return nil, fmt.Errorf("element %d is not a block reference", i)
			}
			nodes = append(nodes, n)
		}
		return nodes, nil
	}
	return nil, fmt.Errorf("expected a block reference or a list of them, got %s", val.Type().FriendlyName())
}

// scene resolves the single scene block into the root pass.
func (b *sceneBuilder) scene(scenes []*sceneBlock) (*config.Scene, error) {
	switch len(scenes) {
	case 0:
		return nil, errors.New("no scene block found")
	case 1:
	default:
		return nil, fmt.Errorf("found %d scene blocks, expected exactly one", len(scenes))
	}
	s := scenes[0]

	val, diags := s.Root.Value(b.evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("scene: root: %w", diags)
	}
	native, err := toNative(val)
	if err != nil {
		return nil, fmt.Errorf("scene: root: %w", err)
	}
	root, ok := native.(*element.Pass)
	if !ok {
		return nil, errors.New("scene: root must reference a pass block")
	}

	if root.Width == 0 {
		root.Width = s.Width
	}
	if root.Height == 0 {
		root.Height = s.Height
	}
	if root.Preload == nil && s.Preload != nil {
		root.Preload = element.Bool(*s.Preload)
	}

	return &config.Scene{
		Shaders:  b.shaders,
		Root:     root,
		Elements: b.elements,
	}, nil
}

// decodeTo converts val to ty and decodes it into target, the way the rest
// of the loader treats attribute values.
func decodeTo(val cty.Value, ty cty.Type, target any) error {
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}
