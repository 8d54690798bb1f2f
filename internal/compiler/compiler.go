// Package compiler runs the full pipeline: build, annotate, resolve.
package compiler

import (
	"context"
	"fmt"

	"github.com/vk/shaderplan/internal/annotate"
	"github.com/vk/shaderplan/internal/builder"
	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
	"github.com/vk/shaderplan/internal/resolver"
)

// Compiler compiles root passes into execution plans. Every call is
// independent; a Compiler may be shared between goroutines as long as each
// call gets its own tree.
type Compiler struct {
	builder *builder.Builder
	shaders builder.Shaders
}

// New creates a Compiler validating shaders against the given registry.
func New(shaders builder.Shaders) *Compiler {
	return &Compiler{builder: builder.New(shaders), shaders: shaders}
}

// Compile compiles the tree rooted at root. The root must carry a positive
// width and height; its preload flag defaults to false.
func (c *Compiler) Compile(ctx context.Context, root *element.Pass) (*model.Plan, error) {
	if root == nil {
		return nil, &model.Error{Kind: model.ErrInvalidChildKind, Detail: "no root pass"}
	}
	if root.Width <= 0 || root.Height <= 0 {
		return nil, &model.Error{
			Kind:       model.ErrInvalidSize,
			Shader:     root.Shader,
			ShaderName: c.shaders.NameOf(root.Shader),
			Detail:     fmt.Sprintf("root pass needs a positive width and height, got %dx%d", root.Width, root.Height),
		}
	}

	logger := ctxlog.FromContext(ctx)
	node, err := c.builder.BuildPass(ctx, root, root.Width, root.Height, false)
	if err != nil {
		return nil, err
	}
	plan, err := resolver.Resolve(ctx, annotate.Annotate(node))
	if err != nil {
		return nil, err
	}
	logger.Debug("Compiled plan.", "root", root.ID(), "passes", plan.Count(), "contents", len(plan.Contents), "preload_images", len(plan.PreloadImages))
	return plan, nil
}
