package engine

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/paramfn/internal/ctxlog"
	"github.com/specialistvlad/paramfn/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a Lookuper backed by a map.
type memStore struct {
	mu   sync.RWMutex
	defs map[string]*model.FunctionDefinition
}

func newMemStore(defs ...*model.FunctionDefinition) *memStore {
	s := &memStore{defs: make(map[string]*model.FunctionDefinition)}
	for _, d := range defs {
		s.put(d)
	}
	return s
}

func (s *memStore) put(def *model.FunctionDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[def.Name()] = def
}

// putAs stores def under a key that may differ from its metadata name.
func (s *memStore) putAs(key string, def *model.FunctionDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[key] = def
}

func (s *memStore) Lookup(name string) (*model.FunctionDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[name]
	return def, ok
}

func define(name, code string) *model.FunctionDefinition {
	return model.NewFunctionDefinition(name, code, model.FunctionSignature{}, "")
}

var fixedTime = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestEngine(store Lookuper) *Engine {
	return New(store,
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "exec-1" }),
	)
}

func TestExecute_Add(t *testing.T) {
	store := newMemStore(model.NewFunctionDefinition(
		"add",
		"def add(x, factor): return x + factor",
		model.FunctionSignature{InputParams: []string{"x"}, ParamNames: []string{"factor"}, OutputType: "float"},
		"",
	))
	eng := newTestEngine(store)

	res, err := eng.Execute(context.Background(), "add", map[string]any{"x": 2}, map[string]any{"factor": 3})
	require.NoError(t, err)

	assert.Equal(t, int64(5), res.Result)
	assert.Equal(t, "add", res.FunctionName)
	assert.Equal(t, fixedTime, res.ExecutedAt)
	assert.Equal(t, "exec-1", res.ExecutionID)
	assert.Zero(t, res.DurationMS)
}

func TestExecute_Failures(t *testing.T) {
	store := newMemStore(
		define("add", "def add(x, factor): return x + factor"),
		define("broken", "def broken(): return 1/0"),
		define("bad_syntax", "def bad_syntax(: return 1"),
		define("renamed", "def other(): return 1"),
		define("fails", "def fails(x):\n    assert x > 0, \"x must be positive\"\n    return x"),
		define("huge", "def huge(): return pow(10, 400)"),
		define("fib", "def fib(n): return n < 2 ? n : fib(n - 1) + fib(n - 2)"),
	)
	eng := newTestEngine(store)

	testCases := []struct {
		name       string
		function   string
		inputs     map[string]any
		parameters map[string]any
		wantErr    error
		wantMsg    string
		contains   string
	}{
		{
			name:     "function not found",
			function: "missing_fn",
			wantErr:  ErrFunctionNotFound,
			wantMsg:  "function 'missing_fn' not found",
		},
		{
			name:     "division by zero",
			function: "broken",
			wantErr:  ErrRuntime,
			contains: "division by zero",
		},
		{
			name:     "compile error",
			function: "bad_syntax",
			wantErr:  ErrCompile,
		},
		{
			name:     "definition not found",
			function: "renamed",
			wantErr:  ErrDefinitionNotFound,
			wantMsg:  "function 'renamed' not found in code",
		},
		{
			name:     "missing arguments",
			function: "add",
			inputs:   map[string]any{"x": 1},
			wantErr:  ErrMissingArguments,
			wantMsg:  "missing required arguments: ['factor']",
		},
		{
			name:       "unexpected argument",
			function:   "add",
			inputs:     map[string]any{"x": 1, "y": 2},
			parameters: map[string]any{"factor": 1},
			wantErr:    ErrRuntime,
			wantMsg:    "function execution failed: add() got an unexpected keyword argument 'y'",
		},
		{
			name:     "assertion",
			function: "fails",
			inputs:   map[string]any{"x": -3},
			wantErr:  ErrRuntime,
			wantMsg:  "function execution failed: assertion failed: x must be positive",
		},
		{
			name:     "result out of range",
			function: "huge",
			wantErr:  ErrRuntime,
			contains: "function execution failed: unsupported result: number",
		},
		{
			name:     "call depth exceeded by tree recursion",
			function: "fib",
			inputs:   map[string]any{"n": 5},
			wantErr:  ErrRuntime,
			wantMsg:  "function execution failed: maximum call depth of 256 exceeded in fib()",
		},
		{
			name:     "type error",
			function: "add",
			inputs:   map[string]any{"x": "two", "factor": 1},
			wantErr:  ErrRuntime,
			contains: "function execution failed: ",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := eng.Execute(context.Background(), tc.function, tc.inputs, tc.parameters)
			require.Error(t, err)
			require.Nil(t, res)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantMsg != "" {
				require.Equal(t, tc.wantMsg, err.Error())
			}
			if tc.contains != "" {
				require.Contains(t, err.Error(), tc.contains)
			}
		})
	}
}

func TestExecute_ParametersOverrideInputs(t *testing.T) {
	eng := newTestEngine(newMemStore(define("scale", "def scale(x, k): return x * k")))

	res, err := eng.Execute(context.Background(), "scale",
		map[string]any{"x": 2, "k": 100},
		map[string]any{"k": 3},
	)
	require.NoError(t, err)
	require.Equal(t, int64(6), res.Result)
}

func TestExecute_CompilesAgainstRequestedName(t *testing.T) {
	store := newMemStore()
	store.putAs("alias", define("add", "def add(x): return x"))
	eng := newTestEngine(store)

	_, err := eng.Execute(context.Background(), "alias", map[string]any{"x": 1}, nil)
	require.ErrorIs(t, err, ErrDefinitionNotFound)
	require.Equal(t, "function 'alias' not found in code", err.Error())

	store.putAs("alias", define("add", "def alias(x): return x * 2"))
	res, err := eng.Execute(context.Background(), "alias", map[string]any{"x": 4}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(8), res.Result)
	require.Equal(t, "alias", res.FunctionName)
}

func TestExecute_ExtraArgumentsWithCollector(t *testing.T) {
	eng := newTestEngine(newMemStore(define("opts", "def opts(x, **rest): return keys(rest)")))

	res, err := eng.Execute(context.Background(), "opts", map[string]any{"x": 1, "b": 2}, map[string]any{"a": 3})
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, res.Result)
}

func TestExecute_StructuredResult(t *testing.T) {
	code := `def stats(values, precision):
    total = sum(values)
    return {
        total = total
        mean  = total / length(values)
        label = "n=${length(values)}"
        tags  = ["a", "b"]
    }`
	eng := newTestEngine(newMemStore(define("stats", code)))

	res, err := eng.Execute(context.Background(), "stats",
		map[string]any{"values": []any{1, 2, 4}},
		map[string]any{"precision": 2},
	)
	require.NoError(t, err)

	out, ok := res.Result.(map[string]any)
	require.True(t, ok, "result is %T", res.Result)
	assert.Equal(t, int64(7), out["total"])
	assert.InDelta(t, 7.0/3.0, out["mean"], 1e-9)
	assert.Equal(t, "n=3", out["label"])
	assert.Equal(t, []any{"a", "b"}, out["tags"])
}

func TestExecute_RecompilesOnEveryCall(t *testing.T) {
	store := newMemStore(define("f", "def f(x): return x + 1"))
	eng := newTestEngine(store)

	res, err := eng.Execute(context.Background(), "f", map[string]any{"x": 1}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Result)

	store.put(define("f", "def f(x): return x * 10"))

	res, err = eng.Execute(context.Background(), "f", map[string]any{"x": 1}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(10), res.Result)
}

func TestExecute_Concurrent(t *testing.T) {
	eng := New(newMemStore(define("fib", `def fib(n):
    if n < 2: return n
    return fib(n - 1) + fib(n - 2)`)))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := eng.Execute(context.Background(), "fib", map[string]any{"n": 10}, nil)
			if err != nil {
				errs <- err
				return
			}
			if res.Result != int64(55) {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestExecute_DefaultIDsAreUnique(t *testing.T) {
	eng := New(newMemStore(define("one", "def one(): return 1")))

	a, err := eng.Execute(context.Background(), "one", nil, nil)
	require.NoError(t, err)
	b, err := eng.Execute(context.Background(), "one", nil, nil)
	require.NoError(t, err)

	require.NotEmpty(t, a.ExecutionID)
	require.NotEqual(t, a.ExecutionID, b.ExecutionID)
}

func TestExecute_LogsStages(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	eng := newTestEngine(newMemStore(define("add", "def add(x, y): return x + y")))
	_, err := eng.Execute(ctx, "add", map[string]any{"x": 1, "y": 2}, nil)
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "Function compiled.")
	assert.Contains(t, logs, "Arguments bound.")
	assert.Contains(t, logs, "Function executed.")
	assert.Contains(t, logs, "function=add")
	assert.Contains(t, logs, "execution_id=exec-1")
}

func TestCheck(t *testing.T) {
	code := `def report(x, **opts):
    y = helper(x)
    return lookup_table(y) + offset

def helper(v): return v * 2`
	eng := newTestEngine(newMemStore(
		define("report", code),
		define("clean", "def clean(a, b): return max(a, b)"),
		define("broken", "def broken(: return"),
	))

	t.Run("warnings", func(t *testing.T) {
		rep, err := eng.Check(context.Background(), "report")
		require.NoError(t, err)
		require.Equal(t, "report", rep.Function)
		require.Equal(t, []string{"x"}, rep.Params)
		require.True(t, rep.AcceptsExtra)
		require.Len(t, rep.Functions, 2)
		require.False(t, rep.OK())
		require.Equal(t, []string{
			"report() calls undefined function 'lookup_table'",
			"report() references undefined name 'offset'",
		}, rep.Warnings)
	})

	t.Run("clean", func(t *testing.T) {
		rep, err := eng.Check(context.Background(), "clean")
		require.NoError(t, err)
		require.True(t, rep.OK())
		require.Equal(t, []string{"max"}, rep.Functions[0].Calls)
	})

	t.Run("compile error", func(t *testing.T) {
		_, err := eng.Check(context.Background(), "broken")
		require.ErrorIs(t, err, ErrCompile)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := eng.Check(context.Background(), "nope")
		require.ErrorIs(t, err, ErrFunctionNotFound)
	})
}
