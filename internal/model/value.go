// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the closed set of classified uniform values. The builder
// produces Scalar, Blank, Image, NDArray, ContentRef and FramebufferRef; the
// resolver replaces the two reference variants with Content and Framebuffer,
// which carry concrete indices instead of identities.
package model

import (
	"github.com/vk/shaderplan/internal/element"
)

// Opts are sampling options attached to a texture value.
type Opts map[string]any

// Value is a classified uniform value.
type Value interface {
	isValue()
}

// Scalar is a number, a boolean or a homogeneous array of them. It is passed
// to the shader unchanged.
type Scalar struct {
	Value any
}

// Blank is an explicit empty texture, set by a falsy uniform value.
type Blank struct{}

// Image is a texture loaded from a URI or a platform image descriptor.
type Image struct {
	URI string
	// Source keeps every field of an object descriptor, uri included.
	Source map[string]any
	Opts   Opts
}

// NDArray is a texture uploaded from a raw pixel buffer.
type NDArray struct {
	Data   any
	Shape  []int
	Stride []int
	Offset int
	Opts   Opts
}

// ContentRef points at external content by identity. Only the builder
// emits it.
type ContentRef struct {
	ID   element.ID
	Opts Opts
}

// FramebufferRef points at a nested pass by identity. Only the builder
// emits it.
type FramebufferRef struct {
	ID element.ID
}

// Content samples the capture at Index in Plan.Contents.
type Content struct {
	Index int
	Opts  Opts
}

// Framebuffer samples the output of the pass rendered into Slot.
type Framebuffer struct {
	Slot int
}

func (Scalar) isValue()         {}
func (Blank) isValue()          {}
func (Image) isValue()          {}
func (NDArray) isValue()        {}
func (ContentRef) isValue()     {}
func (FramebufferRef) isValue() {}
func (Content) isValue()        {}
func (Framebuffer) isValue()    {}
