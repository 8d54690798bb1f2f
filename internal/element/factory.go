package element

import (
	"sync/atomic"

	"github.com/vk/shaderplan/internal/registry"
)

// Factory creates nodes and assigns their identity. Ids increase
// monotonically and are unique for the lifetime of the factory. A Factory
// is safe for concurrent use.
type Factory struct {
	last atomic.Uint64
}

// NewFactory creates a Factory whose first id is 1.
func NewFactory() *Factory {
	return &Factory{}
}

// NewID reserves a fresh identity token.
func (f *Factory) NewID() ID {
	return ID(f.last.Add(1))
}

// Pass creates a pass node.
func (f *Factory) Pass(shader registry.ShaderID, uniforms map[string]any, children ...Node) *Pass {
	return &Pass{
		base:     base{id: f.NewID()},
		Shader:   shader,
		Uniforms: uniforms,
		Children: children,
	}
}

// Uniform creates a uniform declaration.
func (f *Factory) Uniform(name string, value any) *Uniform {
	return &Uniform{base: base{id: f.NewID()}, Name: name, Value: value}
}

// Component creates a delegate node.
func (f *Factory) Component(props Props, render RenderFunc) *Component {
	return &Component{base: base{id: f.NewID()}, Props: props, Render: render}
}

// Content creates an external content node.
func (f *Factory) Content(typ string, props Props) *Content {
	return &Content{base: base{id: f.NewID()}, Type: typ, Props: props}
}

// Fragment creates a fragment node.
func (f *Factory) Fragment(children ...Node) *Fragment {
	return &Fragment{base: base{id: f.NewID()}, Children: children}
}
