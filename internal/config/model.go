package config

import (
	"context"

	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/registry"
)

// Loader is the interface for a format-specific scene loader.
type Loader interface {
	// Load reads the scene from the given files or directories. Shaders are
	// registered with reg so that passes carry valid shader ids.
	Load(ctx context.Context, reg *registry.Registry, paths ...string) (*Scene, error)
}

// Scene is one loaded scene.
type Scene struct {
	// Shaders maps shader names to the ids reg issued for them.
	Shaders map[string]registry.ShaderID
	// Root is the pass rendered to the visible output. Its Width and Height
	// already carry the scene size.
	Root *element.Pass
	// Elements lists every named element by its block address, such as
	// "pass.blur".
	Elements map[string]element.Node
	// Files lists the files the scene was read from.
	Files []string
}
