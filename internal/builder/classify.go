package builder

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
)

// classified is the outcome of classifying one uniform value. Exactly one of
// value and node is set.
type classified struct {
	value model.Value
	node  element.Node
	opts  model.Opts
}

var errUnrecognized = errors.New("unrecognized format")

func classify(v any) (classified, error) {
	if isScalar(v) {
		return classified{value: model.Scalar{Value: v}}, nil
	}

	v, opts, _ := unwrap(v)
	if isFalsy(v) {
		return classified{value: model.Blank{}}, nil
	}

	switch t := v.(type) {
	case string:
		return classified{value: model.Image{URI: t, Opts: opts}}, nil
	case model.Image:
		if t.Opts == nil {
			t.Opts = opts
		}
		return classified{value: t}, nil
	case model.NDArray:
		if t.Data == nil || len(t.Shape) == 0 || len(t.Stride) == 0 {
			return classified{}, fmt.Errorf("%w: ndarray needs data, shape and stride", errUnrecognized)
		}
		if t.Opts == nil {
			t.Opts = opts
		}
		return classified{value: t}, nil
	case map[string]any:
		if uri, ok := t["uri"].(string); ok {
			return classified{value: model.Image{URI: uri, Source: t, Opts: opts}}, nil
		}
		if nd, ok, err := ndarrayOf(t); ok {
			if err != nil {
				return classified{}, err
			}
			nd.Opts = opts
			return classified{value: nd}, nil
		}
	case element.Node:
		return classified{node: t, opts: opts}, nil
	case []element.Node:
		if len(t) == 1 && t[0] != nil {
			return classified{node: t[0], opts: opts}, nil
		}
		return classified{}, fmt.Errorf("%w: %d elements, wrap them in a fragment", errUnrecognized, len(t))
	}
	return classified{}, errUnrecognized
}

// unwrap opens a {value, opts} wrapper. Opts are kept only when they are an
// object.
func unwrap(v any) (any, model.Opts, bool) {
	switch w := v.(type) {
	case element.Wrapped:
		return w.Value, model.Opts(w.Opts), true
	case *element.Wrapped:
		if w == nil {
			return nil, nil, false
		}
		return w.Value, model.Opts(w.Opts), true
	case map[string]any:
		inner, ok := w["value"]
		if !ok {
			return v, nil, false
		}
		opts, _ := w["opts"].(map[string]any)
		return inner, model.Opts(opts), true
	}
	return v, nil, false
}

func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case element.Node:
		return isNilNode(t)
	}
	rv := reflect.ValueOf(v)
	switch {
	case isNumberKind(rv.Kind()):
		return rv.IsZero()
	case rv.Kind() == reflect.Pointer, rv.Kind() == reflect.Map, rv.Kind() == reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func isNilNode(n element.Node) bool {
	rv := reflect.ValueOf(n)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// isScalar reports numbers, booleans and arrays whose elements are all
// numbers or all booleans.
func isScalar(v any) bool {
	if v == nil {
		return false
	}
	if items, ok := v.([]any); ok {
		return homogeneous(items)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return true
	case reflect.Slice, reflect.Array:
		ek := rv.Type().Elem().Kind()
		return ek == reflect.Bool || isNumberKind(ek)
	}
	return isNumberKind(rv.Kind())
}

func homogeneous(items []any) bool {
	if len(items) == 0 {
		return false
	}
	_, wantBool := items[0].(bool)
	for _, item := range items {
		if item == nil {
			return false
		}
		if _, isBool := item.(bool); isBool != wantBool {
			return false
		}
		if !wantBool && !isNumberKind(reflect.TypeOf(item).Kind()) {
			return false
		}
	}
	return true
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// ndarrayOf reads an ndarray descriptor. ok is false when m does not carry
// data, shape and stride at all.
func ndarrayOf(m map[string]any) (model.NDArray, bool, error) {
	data, shape, stride := m["data"], m["shape"], m["stride"]
	if isFalsy(data) || isFalsy(shape) || isFalsy(stride) {
		return model.NDArray{}, false, nil
	}
	nd := model.NDArray{Data: data}
	var err error
	if nd.Shape, err = intList(shape); err != nil {
		return model.NDArray{}, true, fmt.Errorf("%w: ndarray shape: %v", errUnrecognized, err)
	}
	if nd.Stride, err = intList(stride); err != nil {
		return model.NDArray{}, true, fmt.Errorf("%w: ndarray stride: %v", errUnrecognized, err)
	}
	if offset, ok := m["offset"]; ok && offset != nil {
		n, err := toInt(offset)
		if err != nil {
			return model.NDArray{}, true, fmt.Errorf("%w: ndarray offset: %v", errUnrecognized, err)
		}
		nd.Offset = n
	}
	return nd, true, nil
}

func intList(v any) ([]int, error) {
	if ints, ok := v.([]int); ok {
		return append([]int(nil), ints...), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]int, rv.Len())
	for i := range out {
		n, err := toInt(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func toInt(v any) (int, error) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return int(rv.Int()), nil
	case rv.CanUint():
		return int(rv.Uint()), nil
	case rv.CanFloat():
		f := rv.Float()
		if f != float64(int(f)) {
			return 0, fmt.Errorf("%v is not an integer", f)
		}
		return int(f), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
