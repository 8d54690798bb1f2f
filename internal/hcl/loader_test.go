package hcl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shaderplan/internal/config"
	"github.com/vk/shaderplan/internal/dag"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
	"github.com/vk/shaderplan/internal/registry"
)

func writeScene(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func load(t *testing.T, files map[string]string) (*config.Scene, error) {
	t.Helper()
	return NewLoader(nil).Load(context.Background(), registry.New(), writeScene(t, files))
}

const shaders = `
shader "blur" { frag = "void main() { gl_FragColor = vec4(0.0); }" }
shader "mix"  { frag = file("mix.frag") }
`

func TestLoad_FullScene(t *testing.T) {
	dir := writeScene(t, map[string]string{
		"shaders.hcl": shaders,
		"mix.frag":    "void main() {}",
		"scene.hcl": `
pass "blur" {
  shader   = shader.blur
  uniforms = { img = "photo.jpg", radius = 4, dir = [1, 0] }
}

component "wrap" {
  renders = pass.blur
  props   = { radius = 2 }
}

content "video" {
  type  = "video"
  props = { src = "clip.mp4" }
}

pass "main" {
  shader  = shader.mix
  preload = true
  uniforms = {
    a = pass.blur
    b = component.wrap
  }
  uniform "overlay" {
    value = content.video
    opts  = { interpolation = "nearest" }
  }
}

scene {
  root   = pass.main
  width  = 640
  height = 480
}
`,
	})

	reg := registry.New()
	scene, err := NewLoader(nil).Load(context.Background(), reg, dir)
	require.NoError(t, err)

	require.Len(t, scene.Shaders, 2)
	assert.Equal(t, "void main() {}", mustShader(t, reg, scene.Shaders["mix"]).Frag)
	assert.Len(t, scene.Files, 2)

	root := scene.Root
	assert.Equal(t, "pass.main", root.String())
	assert.Equal(t, scene.Shaders["mix"], root.Shader)
	assert.Equal(t, 640, root.Width)
	assert.Equal(t, 480, root.Height)
	require.NotNil(t, root.Preload)
	assert.True(t, *root.Preload)

	blur := scene.Elements["pass.blur"].(*element.Pass)
	assert.Same(t, blur, root.Uniforms["a"], "references keep identity")
	assert.Equal(t, map[string]any{"img": "photo.jpg", "radius": 4.0, "dir": []any{1.0, 0.0}}, blur.Uniforms)

	wrap := root.Uniforms["b"].(*element.Component)
	rendered, err := wrap.Expand()
	require.NoError(t, err)
	require.Len(t, rendered, 1)
	assert.Same(t, blur, rendered[0])
	assert.Equal(t, element.Props{"radius": 2.0}, wrap.Props)

	require.Len(t, root.Children, 1)
	overlay := root.Children[0].(*element.Uniform)
	assert.Equal(t, "overlay", overlay.Name)
	assert.Same(t, scene.Elements["content.video"], overlay.Value)
	assert.Equal(t, map[string]any{"interpolation": "nearest"}, overlay.Opts)

	video := scene.Elements["content.video"].(*element.Content)
	assert.Equal(t, "video", video.Type)
	assert.Equal(t, element.Props{"src": "clip.mp4"}, video.Props)
}

func mustShader(t *testing.T, reg *registry.Registry, id registry.ShaderID) registry.Shader {
	t.Helper()
	s, ok := reg.Get(id)
	require.True(t, ok)
	return s
}

func TestLoad_FragmentsAndNamedShaders(t *testing.T) {
	scene, err := load(t, map[string]string{
		"scene.hcl": `
shader "copy" { frag = "void main() {}" }
content "a" { type = "canvas" }
content "b" { type = "canvas" }
fragment "pair" { children = [content.a, content.b] }
pass "main" {
  shader   = "copy"
  width    = 8
  height   = 4
  uniforms = { tex = fragment.pair }
}
scene {
  root    = pass.main
  width   = 100
  height  = 100
  preload = false
}
`,
	})
	require.NoError(t, err)

	main := scene.Root
	assert.Equal(t, 8, main.Width, "an explicit pass size wins over the scene size")
	assert.Equal(t, 4, main.Height)
	assert.NotZero(t, main.Shader)
	require.NotNil(t, main.Preload)
	assert.False(t, *main.Preload)

	pair := main.Uniforms["tex"].(*element.Fragment)
	assert.Len(t, pair.Children, 2)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		scene   string
		wantErr string
	}{
		{
			name:    "no scene block",
			scene:   `shader "copy" { frag = "x" }`,
			wantErr: "no scene block found",
		},
		{
			name: "two scene blocks",
			scene: `
shader "copy" { frag = "x" }
pass "main" { shader = shader.copy }
scene {
  root   = pass.main
  width  = 1
  height = 1
}
scene {
  root   = pass.main
  width  = 1
  height = 1
}`,
			wantErr: "found 2 scene blocks",
		},
		{
			name: "duplicate pass",
			scene: `
shader "copy" { frag = "x" }
pass "main" { shader = shader.copy }
pass "main" { shader = shader.copy }`,
			wantErr: `pass "main" is defined more than once`,
		},
		{
			name: "undefined reference",
			scene: `
shader "copy" { frag = "x" }
pass "main" {
  shader   = shader.copy
  uniforms = { tex = pass.missing }
}`,
			wantErr: "references undefined block pass.missing",
		},
		{
			name: "root is not a pass",
			scene: `
shader "copy" { frag = "x" }
content "video" { type = "video" }
scene {
  root   = content.video
  width  = 1
  height = 1
}`,
			wantErr: "root must reference a pass",
		},
		{
			name:    "empty shader source",
			scene:   `shader "copy" { frag = "" }`,
			wantErr: "shader registration failed",
		},
		{
			name:    "unknown block type",
			scene:   `view "main" {}`,
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "syntax error",
			scene:   `pass "main" {`,
			wantErr: "failed to parse HCL file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, map[string]string{"scene.hcl": tc.scene})
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoad_RejectsReferenceCycles(t *testing.T) {
	_, err := load(t, map[string]string{
		"scene.hcl": `
shader "copy" { frag = "x" }
pass "a" {
  shader = shader.copy
  uniform "src" { value = component.loop }
}
component "loop" { renders = pass.a }
scene {
  root   = pass.a
  width  = 1
  height = 1
}`,
	})

	var cycle *dag.CycleError
	require.True(t, errors.As(err, &cycle), "expected a cycle error, got %v", err)
	assert.Equal(t, []string{"component.loop", "pass.a", "component.loop"}, cycle.Path)
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), registry.New(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = NewLoader(nil).Load(context.Background(), registry.New(), t.TempDir())
	assert.ErrorContains(t, err, "no .hcl files")
}

func TestLoad_TextureDescriptors(t *testing.T) {
	scene, err := load(t, map[string]string{
		"scene.hcl": `
shader "copy" { frag = "void main() {}" }
pass "main" {
  shader   = shader.copy
  uniforms = {
    photo = { uri = "photo.jpg", crossOrigin = "anonymous" }
    noise = { data = [0, 128, 255, 64], shape = [2, 2, 1], stride = [2, 1, 1] }
  }
  uniform "mask" {
    value = { value = { uri = "mask.png" }, opts = { interpolation = "nearest" } }
  }
}
scene {
  root   = pass.main
  width  = 2
  height = 2
}
`,
	})
	require.NoError(t, err)

	root := scene.Root
	assert.Equal(t, model.Image{
		URI:    "photo.jpg",
		Source: map[string]any{"uri": "photo.jpg", "crossOrigin": "anonymous"},
	}, root.Uniforms["photo"])
	assert.Equal(t, model.NDArray{
		Data:   []any{0.0, 128.0, 255.0, 64.0},
		Shape:  []int{2, 2, 1},
		Stride: []int{2, 1, 1},
	}, root.Uniforms["noise"])

	require.Len(t, root.Children, 1)
	mask := root.Children[0].(*element.Uniform)
	assert.Equal(t, map[string]any{
		"value": model.Image{URI: "mask.png", Source: map[string]any{"uri": "mask.png"}},
		"opts":  map[string]any{"interpolation": "nearest"},
	}, mask.Value)
}
