package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes args against a functions directory and returns stdout and
// the error.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--functions-dir", dir}, args...)
	err := Execute(context.Background(), full, &out, &errOut)
	if errOut.Len() > 0 {
		t.Logf("stderr: %s", errOut.String())
	}
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	require.NoError(t, err)
	return out
}

func createAdd(t *testing.T, dir string) {
	t.Helper()
	out := mustRun(t, dir, "create", "add",
		"--code", "def add(x, factor): return x + factor",
		"--input-params", "x",
		"--param-names", "factor",
		"--output-type", "float",
		"--description", "Adds factor to x",
	)
	require.Equal(t, "Function 'add' created.\n", out)
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCreateAndExecute(t *testing.T) {
	dir := t.TempDir()
	createAdd(t, dir)

	out := mustRun(t, dir, "execute", "add", "--input", "x=2", "--param", "factor=3")
	assert.Equal(t, "Result: 5\n", out)

	out = mustRun(t, dir, "execute", "add", "--input", "x=0.5", "--param", "factor=0.25")
	assert.Equal(t, "Result: 0.75\n", out)

	// The parameter overrides the input of the same name.
	out = mustRun(t, dir, "execute", "add", "--input", "x=2", "--input", "factor=100", "--param", "factor=3")
	assert.Equal(t, "Result: 5\n", out)

	_, err := os.Stat(filepath.Join(dir, "add.json"))
	require.NoError(t, err)
}

func TestCreate_Replaces(t *testing.T) {
	dir := t.TempDir()
	createAdd(t, dir)

	out := mustRun(t, dir, "create", "add", "--code", "def add(x, factor): return x * factor")
	assert.Equal(t, "Function 'add' updated.\n", out)

	out = mustRun(t, dir, "execute", "add", "--input", "x=2", "--param", "factor=3")
	assert.Equal(t, "Result: 6\n", out)
}

func TestExecute_Output(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "create", "greet", "--code", `def greet(name, greeting): return "${greeting}, ${name}!"`)
	mustRun(t, dir, "create", "pair", "--code", `def pair(a, b): return {first = a, second = b}`)

	out := mustRun(t, dir, "execute", "greet", "--input", "name=Ann", "--param", "greeting=Hi")
	assert.Equal(t, "Result: Hi, Ann!\n", out)

	out = mustRun(t, dir, "execute", "pair", "--input", "a=1", "--input", "b=x.y")
	assert.Equal(t, `Result: {"first":1,"second":"x.y"}`+"\n", out)

	out = mustRun(t, dir, "execute", "greet", "--json", "--input", "name=Bo", "--param", "greeting=Hey")
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Hey, Bo!", res["result"])
	assert.Equal(t, "greet", res["function_name"])
	assert.Contains(t, res, "executed_at")
}

func TestExecute_Failures(t *testing.T) {
	dir := t.TempDir()
	createAdd(t, dir)
	mustRun(t, dir, "create", "broken", "--code", "def broken(): return 1/0")

	testCases := []struct {
		name     string
		args     []string
		wantCode int
		contains string
	}{
		{"runtime failure", []string{"execute", "broken"}, ExitFailure, "division by zero"},
		{"missing function", []string{"execute", "missing_fn"}, ExitFailure, "function 'missing_fn' not found"},
		{"missing argument", []string{"execute", "add", "--input", "x=1"}, ExitFailure, "missing required arguments: ['factor']"},
		{"bad input pair", []string{"execute", "add", "--input", "x"}, ExitUsage, `invalid input "x": expected key=value`},
		{"bad parameter pair", []string{"execute", "add", "--param", "=1"}, ExitUsage, "invalid parameter"},
		{"no name", []string{"execute"}, ExitUsage, "accepts 1 arg(s)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, dir, tc.args...)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, ExitCode(err))
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	createAdd(t, dir)

	out := mustRun(t, dir, "info", "add")
	newGoldie(t).Assert(t, "info_add", []byte(out))

	_, err := runCLI(t, dir, "info", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Equal(t, "function 'nope' not found", err.Error())
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "list")
	assert.Equal(t, "No saved functions.\n", out)

	mustRun(t, dir, "create", "broken", "--code", "def broken(): return 1/0")
	createAdd(t, dir)

	out = mustRun(t, dir, "list")
	newGoldie(t).Assert(t, "list", []byte(out))
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	createAdd(t, dir)

	out := mustRun(t, dir, "delete", "add")
	assert.Equal(t, "Function 'add' deleted.\n", out)

	_, err := runCLI(t, dir, "delete", "add")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))

	out = mustRun(t, dir, "list")
	assert.Equal(t, "No saved functions.\n", out)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	code := "def report(x, **opts):\n    y = helper(x)\n    return lookup_table(y) + offset\n\ndef helper(v): return v * 2"
	mustRun(t, dir, "create", "report", "--code", code)
	createAdd(t, dir)
	mustRun(t, dir, "create", "bad", "--code", "def bad(x) return x")

	out := mustRun(t, dir, "validate", "report")
	newGoldie(t).Assert(t, "validate_report", []byte(out))

	out = mustRun(t, dir, "validate", "add")
	assert.Contains(t, out, "Parameters: x, factor\n")
	assert.Contains(t, out, "No problems found.\n")

	_, err := runCLI(t, dir, "validate", "bad")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "compile error")
}

func TestValidate_Builtins(t *testing.T) {
	dir := t.TempDir()
	createAdd(t, dir)

	out := mustRun(t, dir, "validate", "add", "--builtins")
	assert.Contains(t, out, "No problems found.\nBuiltins: abs, bool, can, ceil,")
	assert.Contains(t, out, " pow, ")

	out = mustRun(t, dir, "validate", "add", "--builtins", "--json")
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "add", report["function"])
	assert.Contains(t, report["builtins"], "round")
}

func TestCreate_FromFile(t *testing.T) {
	dir := t.TempDir()
	src := t.TempDir()

	yamlDef := `metadata:
  name: scale
  signature:
    input_params: [x]
    param_names: [k]
    output_type: float
  description: Scales x by k
code: |
  def scale(x, k):
      return x * k
`
	yamlPath := filepath.Join(src, "scale.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDef), 0o644))

	out := mustRun(t, dir, "create", "scale", "--file", yamlPath)
	assert.Equal(t, "Function 'scale' created.\n", out)
	out = mustRun(t, dir, "execute", "scale", "--input", "x=4", "--param", "k=2.5")
	assert.Equal(t, "Result: 10\n", out)

	var md map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "info", "scale")), &md))
	assert.Equal(t, "Scales x by k", md["description"])

	codePath := filepath.Join(src, "double.fn")
	require.NoError(t, os.WriteFile(codePath, []byte("def double(x):\n    return x * 2\n"), 0o644))
	mustRun(t, dir, "create", "double", "--file", codePath)
	out = mustRun(t, dir, "execute", "double", "--input", "x=21")
	assert.Equal(t, "Result: 42\n", out)

	_, err := runCLI(t, dir, "create", "other", "--file", yamlPath)
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
	assert.Contains(t, err.Error(), "does not match")
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"unknown flag", []string{"list", "--nope"}},
		{"bad log level", []string{"--log-level", "loud", "list"}},
		{"bad log format", []string{"--log-format", "xml", "list"}},
		{"create without code", []string{"create", "f"}},
		{"create with both sources", []string{"create", "f", "--code", "def f(): return 1", "--file", "x.fn"}},
		{"create with invalid name", []string{"create", "bad-name", "--code", "def f(): return 1"}},
		{"extra argument", []string{"list", "extra"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, dir, tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitUsage, ExitCode(err), "error: %v", err)
		})
	}
}

func TestHelp(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "execute")

	out, err = runCLI(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
}

func TestFunctionsDirFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvFunctionsDir, dir)

	var out bytes.Buffer
	err := Execute(context.Background(), []string{"create", "one", "--code", "def one(): return 1"}, &out, &bytes.Buffer{})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "one.json"))
	require.NoError(t, err)
}

func TestServe_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	err := Execute(ctx, []string{"--functions-dir", t.TempDir(), "--log-level", "info", "serve", "--addr", "127.0.0.1:0"}, &out, &errOut)
	require.NoError(t, err)
	assert.Contains(t, errOut.String(), "Shutting down HTTP server")
}

func TestParseValue(t *testing.T) {
	testCases := []struct {
		in   string
		want any
	}{
		{"5", int64(5)},
		{"-12", int64(-12)},
		{"2.5", 2.5},
		{".5", 0.5},
		{"1.2.3", "1.2.3"},
		{"abc", "abc"},
		{"1e3", "1e3"},
		{"", ""},
		{"a=b", "a=b"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, parseValue(tc.in))
		})
	}
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "null", formatResult(nil))
	assert.Equal(t, "true", formatResult(true))
	assert.Equal(t, "7", formatResult(int64(7)))
	assert.Equal(t, "0.1", formatResult(0.1))
	assert.Equal(t, "text", formatResult("text"))
	assert.Equal(t, `[1,"a"]`, formatResult([]any{int64(1), "a"}))
	assert.Equal(t, `{"k":[]}`, formatResult(map[string]any{"k": []any{}}))
}
