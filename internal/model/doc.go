// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the data shapes that flow through the compiler:
//
//   - PassNode: the canonical, validated description of one render pass as
//     produced by the builder. Every uniform is already classified into a
//     Value variant and nested passes and contents are listed separately.
//
//   - ExecutionNode and Plan: the resolver's output. Each execution node owns
//     a slot (an offscreen target index), the passes it must render first
//     and the shared passes computed once for its whole subtree.
//
//   - The error taxonomy shared by every stage.
//
// Why a separate model package?
//
// The builder, annotator and resolver are pure functions from one shape to
// the next. Keeping the shapes here lets each stage depend on the data
// rather than on the stage that produced it, and gives the rendering backend
// a single import for everything it consumes.
//
// Nothing in this package outlives one compilation: trees are rebuilt from
// scratch on every invocation and never point back at their parents.
package model
