package script

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// builtins is the function library available to every program. User
// definitions with the same name take precedence.
var builtins = map[string]function.Function{
	// numbers
	"abs":      stdlib.AbsoluteFunc,
	"ceil":     stdlib.CeilFunc,
	"floor":    stdlib.FloorFunc,
	"log":      stdlib.LogFunc,
	"pow":      stdlib.PowFunc,
	"signum":   stdlib.SignumFunc,
	"min":      stdlib.MinFunc,
	"max":      stdlib.MaxFunc,
	"int":      stdlib.IntFunc,
	"parseint": stdlib.ParseIntFunc,
	"float":    floatFunc,
	"round":    roundFunc,
	"sum":      sumFunc,

	// strings
	"upper":      stdlib.UpperFunc,
	"lower":      stdlib.LowerFunc,
	"strlen":     stdlib.StrlenFunc,
	"substr":     stdlib.SubstrFunc,
	"join":       stdlib.JoinFunc,
	"split":      stdlib.SplitFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"replace":    stdlib.ReplaceFunc,
	"format":     stdlib.FormatFunc,
	"formatlist": stdlib.FormatListFunc,
	"regex":      stdlib.RegexFunc,
	"regexall":   stdlib.RegexAllFunc,
	"str":        strFunc,

	// collections
	"length":   stdlib.LengthFunc,
	"len":      stdlib.LengthFunc,
	"keys":     stdlib.KeysFunc,
	"values":   stdlib.ValuesFunc,
	"contains": stdlib.ContainsFunc,
	"lookup":   stdlib.LookupFunc,
	"merge":    stdlib.MergeFunc,
	"concat":   stdlib.ConcatFunc,
	"range":    stdlib.RangeFunc,
	"reverse":  stdlib.ReverseListFunc,
	"sort":     stdlib.SortFunc,
	"distinct": stdlib.DistinctFunc,
	"flatten":  stdlib.FlattenFunc,
	"element":  stdlib.ElementFunc,
	"slice":    stdlib.SliceFunc,
	"zipmap":   stdlib.ZipmapFunc,

	// general
	"bool":       boolFunc,
	"coalesce":   stdlib.CoalesceFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
	"jsondecode": stdlib.JSONDecodeFunc,
	"try":        tryfunc.TryFunc,
	"can":        tryfunc.CanFunc,
}

// BuiltinNames returns the names of the builtin functions, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var floatFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "value", Type: cty.DynamicPseudoType, AllowNull: true},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return convert.Convert(args[0], cty.Number)
	},
})

var strFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "value", Type: cty.DynamicPseudoType, AllowNull: true},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		s, err := stringify(args[0])
		if err != nil {
			return cty.UnknownVal(cty.String), err
		}
		return cty.StringVal(s), nil
	},
})

var boolFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "value", Type: cty.DynamicPseudoType, AllowNull: true},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.BoolVal(truthy(args[0])), nil
	},
})

// roundFunc rounds half to even.
var roundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		f, _ := args[0].AsBigFloat().Float64()
		if math.IsInf(f, 0) {
			return args[0], nil
		}
		return cty.NumberFloatVal(math.RoundToEven(f)), nil
	},
})

var sumFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "values", Type: cty.DynamicPseudoType},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		coll := args[0]
		ty := coll.Type()
		if !(ty.IsListType() || ty.IsTupleType() || ty.IsSetType()) {
			return cty.UnknownVal(cty.Number), fmt.Errorf("sum requires a list, got %s", ty.FriendlyName())
		}
		total := new(big.Float)
		it := coll.ElementIterator()
		for it.Next() {
			_, v := it.Element()
			n, err := convert.Convert(v, cty.Number)
			if err != nil {
				return cty.UnknownVal(cty.Number), fmt.Errorf("sum: %w", err)
			}
			if n.IsNull() {
				return cty.UnknownVal(cty.Number), fmt.Errorf("sum: null element")
			}
			total.Add(total, n.AsBigFloat())
		}
		return cty.NumberVal(total), nil
	},
})

// truthy reports the truth value of v. Null, false, zero, the empty string
// and empty collections are false.
func truthy(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	v, _ = v.Unmark()
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		return !v.Equals(cty.Zero).True()
	case ty == cty.String:
		return v.AsString() != ""
	case ty.IsObjectType():
		return len(ty.AttributeTypes()) > 0
	case ty.IsCollectionType() || ty.IsTupleType():
		return v.LengthInt() > 0
	}
	return true
}

// stringify renders v for messages and str(). Strings are returned as is,
// other primitives use their cty string conversion and everything else is
// encoded as JSON.
func stringify(v cty.Value) (string, error) {
	if v.IsNull() {
		return "null", nil
	}
	v, _ = v.Unmark()
	ty := v.Type()
	if ty.IsPrimitiveType() {
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			return "", err
		}
		return sv.AsString(), nil
	}
	data, err := ctyjson.Marshal(v, ty)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
