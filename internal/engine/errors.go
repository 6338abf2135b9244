package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an execution failure.
type Kind int

const (
	// KindCompile means the source could not be parsed or its top-level
	// statements failed.
	KindCompile Kind = iota + 1
	// KindDefinitionNotFound means the source compiled but does not define a
	// function under the expected name.
	KindDefinitionNotFound
	// KindFunctionNotFound means no definition is stored under the name.
	KindFunctionNotFound
	// KindMissingArguments means declared parameters received no value.
	KindMissingArguments
	// KindRuntime means the function failed while running.
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindCompile:
		return "CompileError"
	case KindDefinitionNotFound:
		return "DefinitionNotFound"
	case KindFunctionNotFound:
		return "FunctionNotFound"
	case KindMissingArguments:
		return "MissingArguments"
	case KindRuntime:
		return "RuntimeFailure"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for use with errors.Is.
var (
	ErrCompile            = &Error{Kind: KindCompile}
	ErrDefinitionNotFound = &Error{Kind: KindDefinitionNotFound}
	ErrFunctionNotFound   = &Error{Kind: KindFunctionNotFound}
	ErrMissingArguments   = &Error{Kind: KindMissingArguments}
	ErrRuntime            = &Error{Kind: KindRuntime}
)

// Error is the single failure type of the engine. Message is the complete
// human-readable description.
type Error struct {
	Kind     Kind
	Function string
	Message  string
	// Missing lists the absent parameter names, in declaration order, for
	// KindMissingArguments.
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func compileError(name string, err error) *Error {
	return &Error{
		Kind:     KindCompile,
		Function: name,
		Message:  "compile error: " + err.Error(),
		Err:      err,
	}
}

func definitionNotFound(name string, err error) *Error {
	return &Error{
		Kind:     KindDefinitionNotFound,
		Function: name,
		Message:  fmt.Sprintf("function '%s' not found in code", name),
		Err:      err,
	}
}

func functionNotFound(name string) *Error {
	return &Error{
		Kind:     KindFunctionNotFound,
		Function: name,
		Message:  fmt.Sprintf("function '%s' not found", name),
	}
}

func missingArguments(name string, missing []string) *Error {
	quoted := make([]string, len(missing))
	for i, m := range missing {
		quoted[i] = "'" + m + "'"
	}
	return &Error{
		Kind:     KindMissingArguments,
		Function: name,
		Message:  fmt.Sprintf("missing required arguments: [%s]", strings.Join(quoted, ", ")),
		Missing:  missing,
	}
}

func runtimeFailure(name string, err error) *Error {
	return &Error{
		Kind:     KindRuntime,
		Function: name,
		Message:  "function execution failed: " + err.Error(),
		Err:      err,
	}
}
