package element

import (
	"fmt"

	"github.com/vk/shaderplan/internal/registry"
)

// ID is a stable identity token. The zero ID is never assigned.
type ID uint64

// Kind tags the role of a node in the scene tree.
type Kind uint8

const (
	KindPass Kind = iota + 1
	KindUniform
	KindComponent
	KindContent
	KindFragment
)

func (k Kind) String() string {
	switch k {
	case KindPass:
		return "pass"
	case KindUniform:
		return "uniform"
	case KindComponent:
		return "component"
	case KindContent:
		return "content"
	case KindFragment:
		return "fragment"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Props is the property bag of a node.
type Props map[string]any

// Node is one element of the declarative tree.
type Node interface {
	ID() ID
	Kind() Kind
	String() string
}

// Delegate is a node that deterministically renders child nodes from its own
// props. A delegate that renders exactly one node is transparent: the
// builder looks through it.
type Delegate interface {
	Node
	Expand() ([]Node, error)
}

type base struct {
	id ID
	// Label is a human readable name used in diagnostics.
	Label string
}

// ID returns the identity token of the node.
func (b *base) ID() ID { return b.id }

func (b *base) describe(k Kind) string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("%s#%d", k, b.id)
}

// Pass describes one render pass.
type Pass struct {
	base
	Shader   registry.ShaderID
	Uniforms map[string]any
	// Width and Height are inherited from the enclosing pass when zero.
	Width  int
	Height int
	// Preload is inherited from the enclosing pass when nil.
	Preload *bool
	// Children holds the Uniform declarations of the pass.
	Children []Node
}

func (p *Pass) Kind() Kind      { return KindPass }
func (p *Pass) String() string { return p.describe(KindPass) }

// Uniform declares a single uniform on its parent pass. Opts are sampling
// options that travel with the value.
type Uniform struct {
	base
	Name  string
	Value any
	Opts  map[string]any
}

func (u *Uniform) Kind() Kind      { return KindUniform }
func (u *Uniform) String() string { return u.describe(KindUniform) }

// RenderFunc renders the children of a component from its props. It must be
// deterministic for a given props value.
type RenderFunc func(props Props) ([]Node, error)

// Component is a delegate wrapper around other nodes.
type Component struct {
	base
	Props  Props
	Render RenderFunc
}

func (c *Component) Kind() Kind      { return KindComponent }
func (c *Component) String() string { return c.describe(KindComponent) }

// Expand renders the component. A component without a render function
// renders nothing.
func (c *Component) Expand() ([]Node, error) {
	if c.Render == nil {
		return nil, nil
	}
	return c.Render(c.Props)
}

// Content is opaque external content rendered by the host and sampled as a
// texture.
type Content struct {
	base
	Type  string
	Props Props
}

func (c *Content) Kind() Kind      { return KindContent }
func (c *Content) String() string { return c.describe(KindContent) }

// Fragment groups nodes under one identity.
type Fragment struct {
	base
	Children []Node
}

func (f *Fragment) Kind() Kind      { return KindFragment }
func (f *Fragment) String() string { return f.describe(KindFragment) }

// Expand returns the children of the fragment.
func (f *Fragment) Expand() ([]Node, error) { return f.Children, nil }

// Wrapped attaches sampling options to a uniform value.
type Wrapped struct {
	Value any
	Opts  map[string]any
}

// Bool returns a pointer to b, for Pass.Preload.
func Bool(b bool) *bool { return &b }
