package script

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// MaxCallDepth bounds the nesting of calls between user functions.
const MaxCallDepth = 256

var (
	// ErrUndefined is returned by Module.Function for unknown names.
	ErrUndefined = errors.New("not defined")
	// ErrNotCallable is returned by Module.Function for names bound to values.
	ErrNotCallable = errors.New("not a function")
)

// RuntimeError reports a failure while executing statements.
type RuntimeError struct {
	Message string
	Subject *hcl.Range
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Module is the environment left behind by executing a program's top-level
// statements. It is read-only once Exec returns, so its functions may be
// called concurrently.
type Module struct {
	prog    *Program
	globals map[string]cty.Value
	funcs   map[string]*FuncDef
}

// Exec runs the top-level statements of prog in an empty environment.
func Exec(prog *Program) (mod *Module, err error) {
	m := &Module{
		prog:    prog,
		globals: make(map[string]cty.Value),
		funcs:   make(map[string]*FuncDef),
	}
	st := &callState{module: m}

	defer func() {
		if r := recover(); r != nil {
			mod, err = nil, &RuntimeError{Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	for _, stmt := range prog.Statements {
		if def, ok := stmt.(*FuncDef); ok {
			m.funcs[def.Name] = def
			delete(m.globals, def.Name)
			st.fns = nil
			continue
		}
		if _, _, err := st.exec(stmt, st.rootContext(), m.globals, true); err != nil {
			return nil, st.unwrap(err)
		}
	}
	return m, nil
}

// Function returns the function bound to name.
func (m *Module) Function(name string) (*Function, error) {
	if def, ok := m.funcs[name]; ok {
		return &Function{module: m, def: def}, nil
	}
	if _, ok := m.globals[name]; ok {
		return nil, fmt.Errorf("%q is %w", name, ErrNotCallable)
	}
	return nil, fmt.Errorf("%q is %w", name, ErrUndefined)
}

// Function is a callable user definition.
type Function struct {
	module *Module
	def    *FuncDef
}

// Name returns the declared name.
func (f *Function) Name() string { return f.def.Name }

// Params returns the declared formal parameter names in order. The **
// collector, if any, is not included.
func (f *Function) Params() []string {
	return append([]string{}, f.def.Params...)
}

// AcceptsExtra reports whether the function collects unknown keyword
// arguments with a ** parameter.
func (f *Function) AcceptsExtra() bool { return f.def.Kwargs != "" }

// Call invokes the function with keyword arguments.
func (f *Function) Call(args map[string]cty.Value) (result cty.Value, err error) {
	st := &callState{module: f.module}
	defer func() {
		if r := recover(); r != nil {
			result, err = cty.NilVal, &RuntimeError{Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	locals := make(map[string]cty.Value, len(args)+1)
	extra := make(map[string]cty.Value)
	declared := make(map[string]struct{}, len(f.def.Params))
	for _, p := range f.def.Params {
		declared[p] = struct{}{}
	}

	var unexpected []string
	for name, v := range args {
		switch {
		case isDeclared(declared, name):
			locals[name] = v
		case f.def.Kwargs != "":
			extra[name] = v
		default:
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return cty.NilVal, &RuntimeError{
			Message: fmt.Sprintf("%s() got an unexpected keyword argument '%s'", f.def.Name, unexpected[0]),
		}
	}

	var missing []string
	for _, p := range f.def.Params {
		if _, ok := locals[p]; !ok {
			missing = append(missing, "'"+p+"'")
		}
	}
	if len(missing) > 0 {
		return cty.NilVal, &RuntimeError{
			Message: fmt.Sprintf("%s() missing %d required argument(s): %s", f.def.Name, len(missing), strings.Join(missing, ", ")),
		}
	}

	if f.def.Kwargs != "" {
		locals[f.def.Kwargs] = cty.ObjectVal(extra)
	}

	ret, err := st.invoke(f.def, locals)
	if err != nil {
		return cty.NilVal, st.unwrap(err)
	}
	return ret, nil
}

func isDeclared(declared map[string]struct{}, name string) bool {
	_, ok := declared[name]
	return ok
}

// callState carries the mutable state of one Exec or one Call.
type callState struct {
	module *Module
	depth  int
	fns    map[string]function.Function
	// fatal is an error that must reach the caller unchanged instead of being
	// wrapped by every enclosing function call.
	fatal error
}

func (s *callState) unwrap(err error) error {
	if s.fatal != nil {
		return s.fatal
	}
	return err
}

func (s *callState) rootContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: s.module.globals,
		Functions: s.functions(),
	}
}

func (s *callState) functions() map[string]function.Function {
	if s.fns != nil {
		return s.fns
	}
	fns := make(map[string]function.Function, len(builtins)+len(s.module.funcs))
	for name, fn := range builtins {
		fns[name] = fn
	}
	for name, def := range s.module.funcs {
		fns[name] = s.userFunction(def)
	}
	s.fns = fns
	return fns
}

// userFunction exposes a definition to expressions. Expression calls are
// positional, so a ** collector receives an empty object.
func (s *callState) userFunction(def *FuncDef) function.Function {
	params := make([]function.Parameter, len(def.Params))
	for i, name := range def.Params {
		params[i] = function.Parameter{
			Name:             name,
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowDynamicType: true,
		}
	}
	return function.New(&function.Spec{
		Params: params,
		Type:   function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			locals := make(map[string]cty.Value, len(args)+1)
			for i, name := range def.Params {
				locals[name] = args[i]
			}
			if def.Kwargs != "" {
				locals[def.Kwargs] = cty.EmptyObjectVal
			}
			return s.invoke(def, locals)
		},
	})
}

func (s *callState) invoke(def *FuncDef, locals map[string]cty.Value) (cty.Value, error) {
	// HCL evaluates every operand before looking at diagnostics, so sibling
	// calls still arrive here after the depth limit was hit.
	if s.fatal != nil {
		return cty.NilVal, s.fatal
	}
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > MaxCallDepth {
		s.fatal = &RuntimeError{Message: fmt.Sprintf("maximum call depth of %d exceeded in %s()", MaxCallDepth, def.Name)}
		return cty.NilVal, s.fatal
	}

	ctx := s.rootContext().NewChild()
	ctx.Variables = locals

	for _, stmt := range def.Body {
		ret, returned, err := s.exec(stmt, ctx, locals, false)
		if err != nil {
			return cty.NilVal, err
		}
		if returned {
			return ret, nil
		}
	}
	return cty.NullVal(cty.DynamicPseudoType), nil
}

// exec runs one statement. Assignments write to vars. It reports whether a
// return statement was executed.
func (s *callState) exec(stmt Statement, ctx *hcl.EvalContext, vars map[string]cty.Value, topLevel bool) (cty.Value, bool, error) {
	switch st := stmt.(type) {
	case *Pass:
		return cty.NilVal, false, nil

	case *Assign:
		v, err := s.eval(st.Expr, ctx)
		if err != nil {
			return cty.NilVal, false, err
		}
		vars[st.Name] = v
		if topLevel {
			delete(s.module.funcs, st.Name)
			s.fns = nil
		}
		return cty.NilVal, false, nil

	case *ExprStmt:
		_, err := s.eval(st.Expr, ctx)
		return cty.NilVal, false, err

	case *Return:
		if st.Expr == nil {
			return cty.NullVal(cty.DynamicPseudoType), true, nil
		}
		v, err := s.eval(st.Expr, ctx)
		if err != nil {
			return cty.NilVal, false, err
		}
		return v, true, nil

	case *Raise:
		v, err := s.eval(st.Expr, ctx)
		if err != nil {
			return cty.NilVal, false, err
		}
		msg, err := stringify(v)
		if err != nil {
			msg = fmt.Sprintf("error raised with unprintable value: %s", err)
		}
		rng := st.SrcRange
		return cty.NilVal, false, &RuntimeError{Message: msg, Subject: &rng}

	case *Assert:
		v, err := s.eval(st.Cond, ctx)
		if err != nil {
			return cty.NilVal, false, err
		}
		if truthy(v) {
			return cty.NilVal, false, nil
		}
		msg := "assertion failed"
		if st.Message != nil {
			mv, err := s.eval(st.Message, ctx)
			if err != nil {
				return cty.NilVal, false, err
			}
			if text, err := stringify(mv); err == nil {
				msg += ": " + text
			}
		}
		rng := st.SrcRange
		return cty.NilVal, false, &RuntimeError{Message: msg, Subject: &rng}

	case *If:
		v, err := s.eval(st.Cond, ctx)
		if err != nil {
			return cty.NilVal, false, err
		}
		if !truthy(v) {
			return cty.NilVal, false, nil
		}
		return s.exec(st.Then, ctx, vars, topLevel)

	case *Block:
		for _, inner := range st.Body {
			ret, returned, err := s.exec(inner, ctx, vars, topLevel)
			if err != nil || returned {
				return ret, returned, err
			}
		}
		return cty.NilVal, false, nil
	}

	rng := stmt.Range()
	return cty.NilVal, false, &RuntimeError{Message: fmt.Sprintf("unsupported statement %T", stmt), Subject: &rng}
}

func (s *callState) eval(expr hclsyntax.Expression, ctx *hcl.EvalContext) (cty.Value, error) {
	v, diags := expr.Value(ctx)
	if s.fatal != nil {
		return cty.NilVal, s.fatal
	}
	if diags.HasErrors() {
		rng := expr.Range()
		return cty.NilVal, &RuntimeError{Message: diags.Error(), Subject: &rng}
	}
	if !v.IsWhollyKnown() {
		rng := expr.Range()
		return cty.NilVal, &RuntimeError{Message: "expression result is not known", Subject: &rng}
	}
	return v, nil
}
