// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines PassNode, the builder's output. A PassNode is a plain
// tree: nested passes appear once per referencing uniform, even when two
// uniforms reference the same identity. Detecting that sharing is the
// resolver's job.
package model

import (
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/registry"
)

// PassNode is the unresolved, validated description of one render pass.
type PassNode struct {
	// ID is the identity of the element the pass was built from.
	ID       element.ID
	Shader   registry.ShaderID
	Uniforms map[string]Value
	Width    int
	Height   int
	// Children lists nested passes in discovery order.
	Children []ChildPass
	// Contents lists external content uses in discovery order.
	Contents []ContentUse
	// Preload is the effective preload flag, inheritance applied.
	Preload bool
}

// ChildPass is a nested pass sampled through a uniform.
type ChildPass struct {
	// ID is the identity of the uniform value, which may be a delegate
	// wrapping the pass.
	ID      element.ID
	Uniform string
	Node    *PassNode
}

// ContentUse is external content sampled through a uniform.
type ContentUse struct {
	ID      element.ID
	Uniform string
	Element element.Node
	Opts    Opts
}
