package script

import (
	"errors"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// The HCL operators divide and take the modulus without complaint when the
// divisor is zero. The language reports it as an error instead.
var (
	opCheckedDivide = &hclsyntax.Operation{
		Impl: checkedNumberOp("division by zero", stdlib.Divide),
		Type: cty.Number,
	}
	opCheckedModulo = &hclsyntax.Operation{
		Impl: checkedNumberOp("modulo by zero", stdlib.Modulo),
		Type: cty.Number,
	}
)

func checkedNumberOp(msg string, op func(a, b cty.Value) (cty.Value, error)) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "a", Type: cty.Number, AllowDynamicType: true},
			{Name: "b", Type: cty.Number, AllowDynamicType: true},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if args[1].Equals(cty.Zero).True() {
				return cty.UnknownVal(cty.Number), errors.New(msg)
			}
			return op(args[0], args[1])
		},
	})
}

// useCheckedOperators replaces the division and modulo operations in expr
// with their zero-checking versions.
func useCheckedOperators(expr hclsyntax.Expression) {
	hclsyntax.VisitAll(expr, func(node hclsyntax.Node) hcl.Diagnostics {
		if bin, ok := node.(*hclsyntax.BinaryOpExpr); ok {
			switch bin.Op {
			case hclsyntax.OpDivide:
				bin.Op = opCheckedDivide
			case hclsyntax.OpModulo:
				bin.Op = opCheckedModulo
			}
		}
		return nil
	})
}

// FunctionInfo summarizes the static structure of one function.
type FunctionInfo struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Kwargs string   `json:"kwargs,omitempty"`
	// Calls lists every function called by the body, sorted.
	Calls []string `json:"calls"`
	// UnknownCalls lists called names that are neither builtins nor defined
	// in the module.
	UnknownCalls []string `json:"unknown_calls,omitempty"`
	// UnknownNames lists referenced variables that are not parameters,
	// locals or module-level names.
	UnknownNames []string `json:"unknown_names,omitempty"`
}

// Describe analyzes every function defined in the module, in name order.
func (m *Module) Describe() []FunctionInfo {
	names := make([]string, 0, len(m.funcs))
	for name := range m.funcs {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]FunctionInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, m.describe(m.funcs[name]))
	}
	return infos
}

func (m *Module) describe(def *FuncDef) FunctionInfo {
	var exprs []hclsyntax.Expression
	scope := make(map[string]struct{})
	for _, p := range def.Params {
		scope[p] = struct{}{}
	}
	if def.Kwargs != "" {
		scope[def.Kwargs] = struct{}{}
	}
	for _, stmt := range def.Body {
		exprs = append(exprs, expressions(stmt)...)
		collectAssigned(stmt, scope)
	}

	refs, calls := extractReferencesAndFunctions(exprs...)

	info := FunctionInfo{
		Name:   def.Name,
		Params: append([]string{}, def.Params...),
		Kwargs: def.Kwargs,
		Calls:  calls,
	}
	for _, call := range calls {
		if _, ok := m.funcs[call]; ok {
			continue
		}
		if _, ok := builtins[call]; ok {
			continue
		}
		info.UnknownCalls = append(info.UnknownCalls, call)
	}
	for _, ref := range refs {
		if _, ok := scope[ref]; ok {
			continue
		}
		if _, ok := m.globals[ref]; ok {
			continue
		}
		info.UnknownNames = append(info.UnknownNames, ref)
	}
	return info
}

func collectAssigned(stmt Statement, scope map[string]struct{}) {
	switch st := stmt.(type) {
	case *Assign:
		scope[st.Name] = struct{}{}
	case *If:
		collectAssigned(st.Then, scope)
	case *Block:
		for _, inner := range st.Body {
			collectAssigned(inner, scope)
		}
	}
}

// extractReferencesAndFunctions walks through expressions to find the root
// names of all variable references and all called functions. The returned
// slices are sorted and free of duplicates.
func extractReferencesAndFunctions(exprs ...hclsyntax.Expression) ([]string, []string) {
	refs := make(map[string]struct{})
	functions := make(map[string]struct{})

	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		for _, traversal := range expr.Variables() {
			refs[traversal.RootName()] = struct{}{}
		}
		hclsyntax.VisitAll(expr, func(node hclsyntax.Node) hcl.Diagnostics {
			if call, ok := node.(*hclsyntax.FunctionCallExpr); ok {
				functions[call.Name] = struct{}{}
			}
			return nil
		})
	}

	return sortedSet(refs), sortedSet(functions)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
