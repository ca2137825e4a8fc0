package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/transflow/internal/parser"
)

func newPythonRunner(t *testing.T) pythonRunner {
	t.Helper()
	bin, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return pythonRunner{interpreter: bin}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parser.py")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPythonRunner_RunScript(t *testing.T) {
	runner := newPythonRunner(t)
	script := writeScript(t, `
def parse(text):
    return [line.upper() for line in text.splitlines()]

def as_text(text):
    return "first\nsecond"
`)

	lines, err := runner.RunScript(script, "parse", "こんにちは\nworld")
	require.NoError(t, err)
	assert.Equal(t, []string{"こんにちは", "WORLD"}, lines)

	lines, err = runner.RunScript(script, "as_text", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lines)
}

func TestPythonRunner_Errors(t *testing.T) {
	runner := newPythonRunner(t)
	script := writeScript(t, `
def number(text):
    return 42

def mixed(text):
    return ["ok", 1]

def noisy(text):
    print("debug output")
    return ["ok"]

def broken(text):
    raise ValueError("bad response")
`)

	_, err := runner.RunScript(script, "number", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number must return a string or a list of strings")

	_, err = runner.RunScript(script, "mixed", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixed must return a string or a list of strings")

	_, err = runner.RunScript(script, "noisy", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script output is not a list of strings")

	_, err = runner.RunScript(script, "broken", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad response")

	_, err = runner.RunScript(script, "missing", "x")
	assert.Error(t, err)
}

func TestPythonRunner_Cascade(t *testing.T) {
	runner := newPythonRunner(t)
	script := writeScript(t, "def parse(text):\n    return text.strip().split(' | ')\n")

	cascade := parser.Cascade{Scripts: runner}
	res, err := cascade.Parse(parser.Rule{Type: parser.TypePython, Script: script}, "a | b\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Lines)

	res, err = cascade.Parse(parser.Rule{Type: parser.TypePython, Script: script, Function: "nope"}, "a")
	assert.Equal(t, parser.CodeScriptFailed, parser.CodeOf(err))
	assert.Empty(t, res.Lines)
}
