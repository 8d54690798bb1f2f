package compiler

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
	"github.com/vk/shaderplan/internal/registry"
	"github.com/vk/shaderplan/internal/resolver"
)

func newRegistry(t *testing.T) (*registry.Registry, map[string]registry.ShaderID) {
	t.Helper()
	reg := registry.New()
	ids, err := reg.Register(map[string]registry.Shader{
		"blur":  {Frag: "void main() {}"},
		"mix":   {Frag: "void main() {}"},
		"tonal": {Frag: "void main() {}"},
	})
	require.NoError(t, err)
	return reg, ids
}

func TestCompile_EndToEnd(t *testing.T) {
	reg, ids := newRegistry(t)
	f := element.NewFactory()

	blur := f.Pass(ids["blur"], map[string]any{"img": "photo.jpg", "radius": 4.0})
	tonal := f.Pass(ids["tonal"], map[string]any{"src": blur})
	video := f.Content("video", element.Props{"src": "clip.mp4"})
	root := f.Pass(ids["mix"], map[string]any{"a": blur, "b": tonal}, f.Uniform("overlay", video))
	root.Width, root.Height = 640, 480
	root.Preload = element.Bool(true)

	plan, err := New(reg).Compile(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, resolver.Verify(plan))

	assert.Equal(t, model.RootSlot, plan.Root.Slot)
	assert.Equal(t, 640, plan.Root.Width)
	require.Len(t, plan.Root.ContextChildren, 1)
	assert.Equal(t, blur.ID(), plan.Root.ContextChildren[0].ID)
	require.Len(t, plan.Root.Children, 1)
	assert.Equal(t, 480, plan.Root.Children[0].Height)
	assert.Equal(t, 3, plan.Count())

	require.Len(t, plan.Contents, 1)
	assert.Equal(t, model.Content{Index: 0}, plan.Root.Uniforms["overlay"])
	require.Len(t, plan.PreloadImages, 1)
	assert.Equal(t, "photo.jpg", plan.PreloadImages[0].URI)
}

func TestCompile_RootValidation(t *testing.T) {
	reg, ids := newRegistry(t)
	f := element.NewFactory()

	_, err := New(reg).Compile(context.Background(), nil)
	assert.Error(t, err)

	unsized := f.Pass(ids["mix"], nil)
	_, err = New(reg).Compile(context.Background(), unsized)
	assert.ErrorIs(t, err, model.ErrInvalidSize)

	unknown := f.Pass(99, nil)
	unknown.Width, unknown.Height = 1, 1
	_, err = New(reg).Compile(context.Background(), unknown)
	assert.ErrorIs(t, err, model.ErrUnknownShader)
}

func TestCompile_PreloadDefaultsToFalse(t *testing.T) {
	reg, ids := newRegistry(t)
	f := element.NewFactory()
	root := f.Pass(ids["mix"], map[string]any{"img": "a.png"})
	root.Width, root.Height = 2, 2

	plan, err := New(reg).Compile(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, plan.PreloadImages)
}

func TestCompile_LogsInvalidUniform(t *testing.T) {
	reg, ids := newRegistry(t)
	f := element.NewFactory()
	root := f.Pass(ids["blur"], map[string]any{"tex": map[string]any{}})
	root.Width, root.Height = 2, 2

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	_, err := New(reg).Compile(ctx, root)

	require.ErrorIs(t, err, model.ErrInvalidUniformFormat)
	assert.Contains(t, buf.String(), "uniform=tex")
	assert.Contains(t, buf.String(), "shader_name=blur")
}
