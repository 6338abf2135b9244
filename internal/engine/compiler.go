package engine

import (
	"errors"
	"strings"

	"github.com/specialistvlad/paramfn/internal/script"
)

var errNoDefKeyword = errors.New("code must start with a function definition ('def')")

// Unit is a compiled function ready to be called. A Unit is not reused
// across executions.
type Unit struct {
	name   string
	fn     *script.Function
	module *script.Module
}

// Name returns the function name the unit was compiled for.
func (u *Unit) Name() string { return u.name }

// Params returns the declared parameter names in declaration order.
func (u *Unit) Params() []string { return u.fn.Params() }

// AcceptsExtra reports whether the function collects undeclared keyword
// arguments.
func (u *Unit) AcceptsExtra() bool { return u.fn.AcceptsExtra() }

// Describe returns the static analysis of every function in the source.
func (u *Unit) Describe() []script.FunctionInfo { return u.module.Describe() }

// Compile parses code, runs its top-level statements in an empty environment
// and returns the function named expectedName. Surrounding whitespace is
// removed before parsing.
func Compile(code, expectedName string) (*Unit, error) {
	code = strings.TrimSpace(code)
	if !script.StartsWithDef(code) {
		return nil, compileError(expectedName, errNoDefKeyword)
	}

	prog, err := script.Parse([]byte(code), expectedName)
	if err != nil {
		return nil, compileError(expectedName, err)
	}

	mod, err := script.Exec(prog)
	if err != nil {
		return nil, compileError(expectedName, err)
	}

	fn, err := mod.Function(expectedName)
	if err != nil {
		return nil, definitionNotFound(expectedName, err)
	}

	return &Unit{name: expectedName, fn: fn, module: mod}, nil
}
