// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the error taxonomy. Every stage fails eagerly with an
// *Error wrapping one of the sentinels below; callers match with errors.Is.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/shaderplan/internal/registry"
)

var (
	// ErrUnknownShader means a pass names a shader id the registry never issued.
	ErrUnknownShader = errors.New("unknown shader")
	// ErrInvalidChildKind means a pass has a child that is not a uniform declaration.
	ErrInvalidChildKind = errors.New("invalid child kind")
	// ErrDuplicateUniform means a uniform name is missing or set more than once.
	ErrDuplicateUniform = errors.New("duplicate uniform")
	// ErrInvalidUniformFormat means a texture uniform value has an unrecognized shape.
	ErrInvalidUniformFormat = errors.New("invalid uniform format")
	// ErrInvalidSize means the root pass lacks a positive width or height.
	ErrInvalidSize = errors.New("invalid size")
	// ErrDelegateDepth means delegate expansion did not settle within the depth limit.
	ErrDelegateDepth = errors.New("delegate expansion too deep")
	// ErrCyclicPass means a pass samples its own output, directly or not.
	ErrCyclicPass = errors.New("cyclic pass reference")

	// ErrDanglingContentRef is an internal invariant violation: a content
	// identity was not found in the content list computed for the same tree.
	ErrDanglingContentRef = errors.New("dangling content reference")
	// ErrSlotCollision means two simultaneously live passes share a slot.
	ErrSlotCollision = errors.New("slot collision")
	// ErrDuplicateEvaluation means one identity was resolved more than once.
	ErrDuplicateEvaluation = errors.New("duplicate evaluation")
)

// Error describes a failure at a specific pass and uniform.
type Error struct {
	Kind       error
	Shader     registry.ShaderID
	ShaderName string
	Uniform    string
	Detail     string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Shader != 0 {
		fmt.Fprintf(&sb, "shader #%d", e.Shader)
		if e.ShaderName != "" {
			fmt.Fprintf(&sb, " ('%s')", e.ShaderName)
		}
		sb.WriteString(": ")
	}
	if e.Kind != nil {
		sb.WriteString(e.Kind.Error())
	} else {
		sb.WriteString("compile error")
	}
	if e.Uniform != "" {
		fmt.Fprintf(&sb, ": uniform '%s'", e.Uniform)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

// Unwrap returns the sentinel kind.
func (e *Error) Unwrap() error {
	return e.Kind
}
