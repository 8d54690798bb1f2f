package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a scene file may contain.
type fileRoot struct {
	Shaders    []*shaderBlock    `hcl:"shader,block"`
	Passes     []*passBlock      `hcl:"pass,block"`
	Contents   []*contentBlock   `hcl:"content,block"`
	Components []*componentBlock `hcl:"component,block"`
	Fragments  []*fragmentBlock  `hcl:"fragment,block"`
	Scenes     []*sceneBlock     `hcl:"scene,block"`
}

type shaderBlock struct {
	Name string         `hcl:"name,label"`
	Frag hcl.Expression `hcl:"frag"`
}

type passBlock struct {
	Name     string          `hcl:"name,label"`
	Shader   hcl.Expression  `hcl:"shader"`
	Width    hcl.Expression  `hcl:"width,optional"`
	Height   hcl.Expression  `hcl:"height,optional"`
	Preload  hcl.Expression  `hcl:"preload,optional"`
	Uniforms hcl.Expression  `hcl:"uniforms,optional"`
	Declared []*uniformBlock `hcl:"uniform,block"`
}

type uniformBlock struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value,optional"`
	Opts  hcl.Expression `hcl:"opts,optional"`
}

type contentBlock struct {
	Name  string         `hcl:"name,label"`
	Type  string         `hcl:"type"`
	Props hcl.Expression `hcl:"props,optional"`
}

type componentBlock struct {
	Name    string         `hcl:"name,label"`
	Renders hcl.Expression `hcl:"renders"`
	Props   hcl.Expression `hcl:"props,optional"`
}

type fragmentBlock struct {
	Name     string         `hcl:"name,label"`
	Children hcl.Expression `hcl:"children"`
}

type sceneBlock struct {
	Root    hcl.Expression `hcl:"root"`
	Width   int            `hcl:"width"`
	Height  int            `hcl:"height"`
	Preload *bool          `hcl:"preload,optional"`
}
