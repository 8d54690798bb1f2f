package hcl

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"
)

// nodeType carries element references through expressions. Equality of two
// capsule values is pointer equality, so identity survives evaluation.
var nodeType = cty.Capsule("element", reflect.TypeOf((*element.Node)(nil)).Elem())

func nodeVal(n element.Node) cty.Value {
	return cty.CapsuleVal(nodeType, &n)
}

// toNative converts an evaluated value into the Go shapes the builder
// classifies: nil, string, float64, bool, []any, map[string]any and
// element.Node.
func toNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == nodeType:
		return *(v.EncapsulatedValue().(*element.Node)), nil

	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := toNative(elem)
			if err != nil {
				return nil, err
			}
			slice = append(slice, native)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := toNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}

// fileEvalContext provides file(path), reading path relative to dir.
func fileEvalContext(dir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"file": fileFunc(dir),
		},
	}
}

func fileFunc(dir string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "path", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			path := args[0].AsString()
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return cty.NilVal, fmt.Errorf("reading %s: %w", path, err)
			}
			return cty.StringVal(string(src)), nil
		},
	})
}

func dirOf(file string) string {
	return filepath.Dir(file)
}

// uniformValue converts a uniform value, recognizing texture descriptors by
// their cty type: an object with a string uri becomes a model.Image and one
// with data, shape and stride a model.NDArray. A {value, opts} wrapper keeps
// its shape with the inner value converted the same way. Descriptors that do
// not convert cleanly are left to the builder, which reports them.
func uniformValue(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() || !(v.Type().IsObjectType() || v.Type().IsMapType()) {
		return toNative(v)
	}

	if inner, ok := attr(v, "value"); ok {
		native, err := toNative(v)
		if err != nil {
			return nil, err
		}
		m := native.(map[string]any)
		if m["value"], err = uniformValue(inner); err != nil {
			return nil, fmt.Errorf("in attribute \"value\": %w", err)
		}
		return m, nil
	}

	if uri, ok := attr(v, "uri"); ok && uri.Type() == cty.String {
		source, err := toNative(v)
		if err != nil {
			return nil, err
		}
		return model.Image{URI: uri.AsString(), Source: source.(map[string]any)}, nil
	}

	if nd, ok := ndarrayValue(v); ok {
		return nd, nil
	}
	return toNative(v)
}

// attr returns a non-null attribute of an object or map value.
func attr(v cty.Value, name string) (cty.Value, bool) {
	ty := v.Type()
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(name) {
			return cty.NilVal, false
		}
		a := v.GetAttr(name)
		return a, !a.IsNull() && a.IsKnown()
	case ty.IsMapType():
		key := cty.StringVal(name)
		if v.HasIndex(key).False() {
			return cty.NilVal, false
		}
		a := v.Index(key)
		return a, !a.IsNull() && a.IsKnown()
	}
	return cty.NilVal, false
}

func ndarrayValue(v cty.Value) (model.NDArray, bool) {
	data, okData := attr(v, "data")
	shape, okShape := attr(v, "shape")
	stride, okStride := attr(v, "stride")
	if !okData || !okShape || !okStride {
		return model.NDArray{}, false
	}

	native, err := toNative(data)
	if err != nil {
		return model.NDArray{}, false
	}
	nd := model.NDArray{Data: native}
	if nd.Shape, err = intsOf(shape); err != nil || len(nd.Shape) == 0 {
		return model.NDArray{}, false
	}
	if nd.Stride, err = intsOf(stride); err != nil || len(nd.Stride) == 0 {
		return model.NDArray{}, false
	}
	if offset, ok := attr(v, "offset"); ok {
		if err := gocty.FromCtyValue(offset, &nd.Offset); err != nil {
			return model.NDArray{}, false
		}
	}
	return nd, true
}

// intsOf converts a tuple or list of whole numbers.
func intsOf(v cty.Value) ([]int, error) {
	list, err := convert.Convert(v, cty.List(cty.Number))
	if err != nil {
		return nil, err
	}
	var out []int
	if err := gocty.FromCtyValue(list, &out); err != nil {
		return nil, err
	}
	return out, nil
}
