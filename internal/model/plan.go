// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the resolver's output: the execution tree handed to the
// rendering backend.
//
// Rendering order for one ExecutionNode is: every ContextChildren entry,
// then every Children entry, then the node itself into its Slot. Context
// children are shared by the whole subtree and are referenced by slot only.
package model

import (
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/registry"
)

// RootSlot is the slot of the root pass, which renders to the visible output.
const RootSlot = -1

// ExecutionNode is one resolved render pass.
type ExecutionNode struct {
	ID              element.ID        `json:"id"`
	Shader          registry.ShaderID `json:"shader"`
	Uniforms        map[string]Value  `json:"uniforms"`
	Width           int               `json:"width"`
	Height          int               `json:"height"`
	Children        []*ExecutionNode  `json:"children"`
	ContextChildren []*ExecutionNode  `json:"contextChildren"`
	Slot            int               `json:"fboId"`
}

// Plan is the complete result of one compilation.
type Plan struct {
	Root *ExecutionNode `json:"data"`
	// Contents is the ordered, deduplicated list of external captures. A
	// Content value indexes into it.
	Contents []ContentUse `json:"contents"`
	// PreloadImages is the deduplicated list of images to load before the
	// first frame.
	PreloadImages []Image `json:"imagesToPreload"`
}

// Walk visits n and every node below it in pre-order, context children
// before children. The parent of the root is nil. Walk does not descend
// into a node for which fn returns false.
func Walk(n *ExecutionNode, fn func(node, parent *ExecutionNode) bool) {
	var rec func(node, parent *ExecutionNode)
	rec = func(node, parent *ExecutionNode) {
		if !fn(node, parent) {
			return
		}
		for _, c := range node.ContextChildren {
			rec(c, node)
		}
		for _, c := range node.Children {
			rec(c, node)
		}
	}
	if n != nil {
		rec(n, nil)
	}
}

// Count returns the number of execution nodes in the tree.
func (p *Plan) Count() int {
	count := 0
	Walk(p.Root, func(*ExecutionNode, *ExecutionNode) bool {
		count++
		return true
	})
	return count
}
