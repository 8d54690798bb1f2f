package hcl

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
	"github.com/zclconf/go-cty/cty"
)

func TestToNative(t *testing.T) {
	f := element.NewFactory()
	pass := f.Pass(1, nil)

	testCases := []struct {
		name string
		in   cty.Value
		want any
	}{
		{name: "null", in: cty.NullVal(cty.String), want: nil},
		{name: "string", in: cty.StringVal("a.png"), want: "a.png"},
		{name: "number", in: cty.NumberFloatVal(0.25), want: 0.25},
		{name: "bool", in: cty.True, want: true},
		{name: "tuple", in: cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.False}), want: []any{1.0, false}},
		{name: "node", in: nodeVal(pass), want: pass},
		{
			name: "object with node",
			in:   cty.ObjectVal(map[string]cty.Value{"value": nodeVal(pass), "opts": cty.EmptyObjectVal}),
			want: map[string]any{"value": pass, "opts": map[string]any{}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toNative(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNodeValKeepsIdentity(t *testing.T) {
	f := element.NewFactory()
	a := f.Content("canvas", nil)
	b := f.Content("canvas", nil)

	av, err := toNative(nodeVal(a))
	require.NoError(t, err)
	bv, err := toNative(nodeVal(b))
	require.NoError(t, err)

	assert.Same(t, a, av)
	assert.Same(t, b, bv)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestTraversalAddress(t *testing.T) {
	testCases := []struct {
		root, attr string
		want       string
		ok         bool
	}{
		{root: "pass", attr: "blur", want: "pass.blur", ok: true},
		{root: "fragment", attr: "pair", want: "fragment.pair", ok: true},
		{root: "shader", attr: "blur", ok: false},
		{root: "var", attr: "x", ok: false},
	}
	for _, tc := range testCases {
		got, ok := traversalAddress(traversal(tc.root, tc.attr))
		assert.Equal(t, tc.ok, ok, tc.root)
		assert.Equal(t, tc.want, got)
	}
}

func traversal(root, attr string) hcl.Traversal {
	return hcl.Traversal{hcl.TraverseRoot{Name: root}, hcl.TraverseAttr{Name: attr}}
}

func TestUniformValue(t *testing.T) {
	nums := func(ns ...float64) cty.Value {
		vals := make([]cty.Value, len(ns))
		for i, n := range ns {
			vals[i] = cty.NumberFloatVal(n)
		}
		return cty.TupleVal(vals)
	}

	testCases := []struct {
		name string
		in   cty.Value
		want any
	}{
		{name: "string", in: cty.StringVal("a.png"), want: "a.png"},
		{name: "number", in: cty.NumberIntVal(2), want: 2.0},
		{
			name: "uri object",
			in:   cty.ObjectVal(map[string]cty.Value{"uri": cty.StringVal("a.png"), "flipY": cty.True}),
			want: model.Image{URI: "a.png", Source: map[string]any{"uri": "a.png", "flipY": true}},
		},
		{
			name: "uri map",
			in:   cty.MapVal(map[string]cty.Value{"uri": cty.StringVal("b.png")}),
			want: model.Image{URI: "b.png", Source: map[string]any{"uri": "b.png"}},
		},
		{
			name: "ndarray",
			in: cty.ObjectVal(map[string]cty.Value{
				"data":   nums(0, 255),
				"shape":  nums(1, 1, 2),
				"stride": nums(2, 2, 1),
				"offset": cty.NumberIntVal(1),
			}),
			want: model.NDArray{Data: []any{0.0, 255.0}, Shape: []int{1, 1, 2}, Stride: []int{2, 2, 1}, Offset: 1},
		},
		{
			name: "ndarray with fractional shape is left to the builder",
			in: cty.ObjectVal(map[string]cty.Value{
				"data":   nums(0),
				"shape":  nums(1.5),
				"stride": nums(1),
			}),
			want: map[string]any{"data": []any{0.0}, "shape": []any{1.5}, "stride": []any{1.0}},
		},
		{
			name: "wrapper converts its value",
			in: cty.ObjectVal(map[string]cty.Value{
				"value": cty.ObjectVal(map[string]cty.Value{"uri": cty.StringVal("c.png")}),
				"opts":  cty.ObjectVal(map[string]cty.Value{"wrap": cty.StringVal("clamp")}),
			}),
			want: map[string]any{
				"value": model.Image{URI: "c.png", Source: map[string]any{"uri": "c.png"}},
				"opts":  map[string]any{"wrap": "clamp"},
			},
		},
		{
			name: "other object",
			in:   cty.ObjectVal(map[string]cty.Value{"nope": cty.NumberIntVal(1)}),
			want: map[string]any{"nope": 1.0},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := uniformValue(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
