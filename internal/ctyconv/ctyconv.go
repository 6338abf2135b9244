// Package ctyconv converts between native Go values, as produced by JSON
// decoding and command-line parsing, and cty values used by the function
// language.
package ctyconv

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToCty converts a native Go value into a cty.Value. Slices become tuples and
// string-keyed maps become objects, so heterogeneous JSON data keeps its shape.
func ToCty(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return tv, nil
	case bool:
		return cty.BoolVal(tv), nil
	case string:
		return cty.StringVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int8:
		return cty.NumberIntVal(int64(tv)), nil
	case int16:
		return cty.NumberIntVal(int64(tv)), nil
	case int32:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case uint:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint64:
		return cty.NumberUIntVal(tv), nil
	case float32:
		return floatVal(float64(tv))
	case float64:
		return floatVal(tv)
	case json.Number:
		n, err := cty.ParseNumberVal(tv.String())
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q: %w", tv.String(), err)
		}
		return n, nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(tv))
		for i, item := range tv {
			ev, err := ToCty(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("at index %d: %w", i, err)
			}
			elems = append(elems, ev)
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(tv) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(tv))
		for k, item := range tv {
			av, err := ToCty(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("in attribute '%s': %w", k, err)
			}
			attrs[k] = av
		}
		return cty.ObjectVal(attrs), nil
	}

	// Anything else (typed slices, structs with cty tags) goes through gocty.
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

// MapToCty converts every entry of m. The result is never nil.
func MapToCty(m map[string]any) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(m))
	for k, v := range m {
		cv, err := ToCty(v)
		if err != nil {
			return nil, fmt.Errorf("value for '%s': %w", k, err)
		}
		out[k] = cv
	}
	return out, nil
}

func floatVal(f float64) (cty.Value, error) {
	if math.IsNaN(f) {
		return cty.NilVal, fmt.Errorf("NaN is not a supported number")
	}
	return cty.NumberFloatVal(f), nil
}

// ToNative recursively converts a cty.Value to its most natural Go
// counterpart. Integral numbers that fit become int64, every other number
// becomes float64.
func ToNative(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	v, _ = v.Unmark()

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		return numberToNative(v.AsBigFloat())

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type for conversion: %s", ty.FriendlyName())
	}
}

func numberToNative(bf *big.Float) (any, error) {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
	}
	f, _ := bf.Float64()
	if math.IsInf(f, 0) {
		return nil, fmt.Errorf("number %s is out of range", bf.Text('g', 10))
	}
	return f, nil
}
