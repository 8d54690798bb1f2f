package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shaderplan/internal/element"
)

func TestValueJSON(t *testing.T) {
	testCases := []struct {
		name  string
		value Value
		want  string
	}{
		{"scalar number", Scalar{Value: 0.5}, `0.5`},
		{"scalar array", Scalar{Value: []float64{1, 2}}, `[1,2]`},
		{"blank", Blank{}, `null`},
		{"image", Image{URI: "a.png", Source: map[string]any{"uri": "a.png", "isStatic": true}}, `{"isStatic":true,"type":"uri","uri":"a.png"}`},
		{"image with opts", Image{URI: "a.png", Opts: Opts{"disableLinearInterpolation": true}}, `{"opts":{"disableLinearInterpolation":true},"type":"uri","uri":"a.png"}`},
		{"ndarray", NDArray{Data: []float64{1}, Shape: []int{1, 1, 1}, Stride: []int{1, 1, 1}}, `{"type":"ndarray","ndarray":{"data":[1],"offset":0,"shape":[1,1,1],"stride":[1,1,1]}}`},
		{"content", Content{Index: 2}, `{"type":"content","id":2}`},
		{"framebuffer", Framebuffer{Slot: 1}, `{"type":"fbo","id":1}`},
		{"content ref", ContentRef{ID: 9}, `{"type":"content_ref","element":9}`},
		{"framebuffer ref", FramebufferRef{ID: 4}, `{"type":"fbo_ref","element":4}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.value)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestPlanJSON(t *testing.T) {
	f := element.NewFactory()
	video := f.Content("video", element.Props{"src": "clip.mp4"})
	video.Label = "content.clip"

	plan := &Plan{
		Root: &ExecutionNode{
			ID:       1,
			Shader:   3,
			Width:    64,
			Height:   32,
			Slot:     RootSlot,
			Uniforms: map[string]Value{"t": Framebuffer{Slot: 0}, "v": Content{Index: 0}},
			Children: []*ExecutionNode{{
				ID: 2, Shader: 4, Width: 64, Height: 32, Slot: 0,
				Uniforms: map[string]Value{"img": Image{URI: "a.png"}},
			}},
		},
		Contents:      []ContentUse{{ID: video.ID(), Uniform: "v", Element: video}},
		PreloadImages: []Image{{URI: "a.png"}},
	}

	raw, err := json.Marshal(plan)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	root := decoded["data"].(map[string]any)
	assert.Equal(t, float64(-1), root["fboId"])
	assert.Equal(t, float64(3), root["shader"])
	child := root["children"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(0), child["fboId"])

	contents := decoded["contents"].([]any)
	require.Len(t, contents, 1)
	c := contents[0].(map[string]any)
	assert.Equal(t, "video", c["type"])
	assert.Equal(t, "content.clip", c["label"])
	assert.Equal(t, map[string]any{"src": "clip.mp4"}, c["props"])

	images := decoded["imagesToPreload"].([]any)
	assert.Equal(t, "a.png", images[0].(map[string]any)["uri"])
}

func TestWalkAndCount(t *testing.T) {
	shared := &ExecutionNode{ID: 3, Slot: 0}
	root := &ExecutionNode{
		ID:              1,
		Slot:            RootSlot,
		ContextChildren: []*ExecutionNode{shared},
		Children:        []*ExecutionNode{{ID: 2, Slot: 1}},
	}

	var order []element.ID
	Walk(root, func(n, parent *ExecutionNode) bool {
		if n == root {
			assert.Nil(t, parent)
		} else {
			assert.Same(t, root, parent)
		}
		order = append(order, n.ID)
		return true
	})
	assert.Equal(t, []element.ID{1, 3, 2}, order)
	assert.Equal(t, 3, (&Plan{Root: root}).Count())

	visited := 0
	Walk(root, func(*ExecutionNode, *ExecutionNode) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: ErrInvalidUniformFormat, Shader: 7, ShaderName: "blur", Uniform: "tex"}
	assert.Equal(t, "shader #7 ('blur'): invalid uniform format: uniform 'tex'", err.Error())
	assert.ErrorIs(t, err, ErrInvalidUniformFormat)

	bare := &Error{Kind: ErrDanglingContentRef, Detail: "content #3"}
	assert.Equal(t, "dangling content reference: content #3", bare.Error())
}
