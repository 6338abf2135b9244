package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/paramfn/internal/ctxlog"
	"github.com/specialistvlad/paramfn/internal/model"
	"github.com/specialistvlad/paramfn/internal/script"
)

// Lookuper is the read side of a function store.
type Lookuper interface {
	Lookup(name string) (*model.FunctionDefinition, bool)
}

// Engine executes stored functions. It holds no state besides its
// collaborators and is safe for concurrent use when the Lookuper is.
type Engine struct {
	store Lookuper
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the generator for execution ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an Engine reading definitions from store.
func New(store Lookuper, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		newID: newExecutionID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newExecutionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Execute looks up, compiles, binds and calls the function stored under
// name. It stops at the first failing stage.
func (e *Engine) Execute(ctx context.Context, name string, inputs, parameters map[string]any) (*model.ExecutionResult, error) {
	id := e.newID()
	ctx = ctxlog.With(ctx, "function", name, "execution_id", id)
	logger := ctxlog.FromContext(ctx)
	start := e.now()

	def, ok := e.store.Lookup(name)
	if !ok {
		logger.Debug("Function not found in registry.")
		return nil, functionNotFound(name)
	}

	unit, err := Compile(def.Code, name)
	if err != nil {
		logger.Debug("Compilation failed.", "error", err)
		return nil, err
	}
	logger.Debug("Function compiled.", "params", unit.Params())

	args, err := Bind(unit, inputs, parameters)
	if err != nil {
		logger.Debug("Argument binding failed.", "error", err)
		return nil, err
	}
	logger.Debug("Arguments bound.", "count", len(args))

	result, err := Call(unit, args)
	if err != nil {
		logger.Debug("Function call failed.", "error", err)
		return nil, err
	}

	end := e.now()
	logger.Debug("Function executed.", "duration", end.Sub(start))
	return &model.ExecutionResult{
		Result:       result,
		FunctionName: name,
		ExecutedAt:   end,
		ExecutionID:  id,
		DurationMS:   float64(end.Sub(start).Microseconds()) / 1000,
	}, nil
}

// CheckReport describes a stored function without running it.
type CheckReport struct {
	Function     string                `json:"function"`
	Params       []string              `json:"params"`
	AcceptsExtra bool                  `json:"accepts_extra"`
	Functions    []script.FunctionInfo `json:"functions"`
	Warnings     []string              `json:"warnings,omitempty"`
}

// OK reports whether the check found nothing suspicious.
func (r *CheckReport) OK() bool { return len(r.Warnings) == 0 }

// Check compiles the function stored under name and reports its structure.
// Calls to functions that are neither builtins nor defined in the source,
// and references to undefined names, become warnings: they only fail once
// the code path is executed.
func (e *Engine) Check(ctx context.Context, name string) (*CheckReport, error) {
	ctx = ctxlog.With(ctx, "function", name)
	logger := ctxlog.FromContext(ctx)

	def, ok := e.store.Lookup(name)
	if !ok {
		return nil, functionNotFound(name)
	}

	unit, err := Compile(def.Code, name)
	if err != nil {
		logger.Debug("Check compilation failed.", "error", err)
		return nil, err
	}

	report := &CheckReport{
		Function:     name,
		Params:       unit.Params(),
		AcceptsExtra: unit.AcceptsExtra(),
		Functions:    unit.Describe(),
	}
	for _, info := range report.Functions {
		for _, call := range info.UnknownCalls {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s() calls undefined function '%s'", info.Name, call))
		}
		for _, ref := range info.UnknownNames {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s() references undefined name '%s'", info.Name, ref))
		}
	}
	logger.Debug("Check finished.", "warnings", len(report.Warnings))
	return report, nil
}
