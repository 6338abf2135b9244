package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/paramfn/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error for help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
	require.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{
		"--functions-dir", dir, "create", "add", "--code", "def add(x, factor): return x + factor",
	})
	require.NoError(t, err)

	out.Reset()
	err = run(context.Background(), out, &bytes.Buffer{}, []string{
		"--functions-dir", dir, "execute", "add", "--input", "x=2", "--param", "factor=3",
	})
	require.NoError(t, err)
	require.Equal(t, "Result: 5\n", out.String())

	err = run(context.Background(), out, &bytes.Buffer{}, []string{"--functions-dir", dir, "execute", "missing_fn"})
	require.Error(t, err)
	require.Equal(t, cli.ExitFailure, cli.ExitCode(err))
}
