package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/example/jsviz/lint"
	"github.com/example/jsviz/trace"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestTraceCommand(t *testing.T) {
	path := writeProgram(t, "var x = 1;\noutput(x + 1);\n")
	out, err := run(t, "trace", "--mode", "macro", "--compact", path)
	require.NoError(t, err)

	var tr trace.Trace
	require.NoError(t, json.Unmarshal([]byte(out), &tr))
	assert.Equal(t, "var x = 1;\noutput(x + 1);\n", tr.ProgramCode)
	require.Len(t, tr.Steps, 3)
	assert.Equal(t, []trace.Output{{Content: "2", Line: 2}}, tr.Steps[2].Stdout)
}

func TestTraceCommandAnswersInput(t *testing.T) {
	path := writeProgram(t, "output(input() * 2);\n")
	answers := filepath.Join(t.TempDir(), "answers.txt")
	require.NoError(t, os.WriteFile(answers, []byte("21\n"), 0o644))

	out, err := run(t, "trace", "--mode", "macro", "--compact", "--input", answers, path)
	require.NoError(t, err)
	var tr trace.Trace
	require.NoError(t, json.Unmarshal([]byte(out), &tr))
	last := tr.Steps[len(tr.Steps)-1]
	assert.Equal(t, []trace.Output{{Content: "42", Line: 1}}, last.Stdout)
	traceCmd.Flags().Set("input", "")
}

func TestLintCommand(t *testing.T) {
	path := writeProgram(t, "var a = 1;\nif (a == 1) { a = 2; }\n")
	out, err := run(t, "lint", "--format", "json", path)
	require.NoError(t, err)
	var diags []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, "eqeqeq", diags[0]["rule"])
	assert.Equal(t, "warning", diags[0]["severity"])

	path = writeProgram(t, "with (Math) { floor(1.5); }\n")
	out, err = run(t, "lint", "--format", "yaml", path)
	assert.Error(t, err)
	var ydiags []struct {
		Rule     string `yaml:"rule"`
		Severity string `yaml:"severity"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &ydiags))
	require.NotEmpty(t, ydiags)
	assert.Equal(t, "no-with", ydiags[0].Rule)
	assert.Equal(t, lint.SeverityError.String(), ydiags[0].Severity)

	_, err = run(t, "lint", "--format", "xml", path)
	assert.Error(t, err)
	lintCmd.Flags().Set("format", "text")
}

func TestASTCommand(t *testing.T) {
	path := writeProgram(t, "var x = 1;")
	out, err := run(t, "ast", "--text", path)
	require.NoError(t, err)

	var root struct {
		Kind     string `yaml:"kind"`
		Children []struct {
			Kind string `yaml:"kind"`
			Text string `yaml:"text"`
		} `yaml:"children"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &root))
	assert.Equal(t, "Program", root.Kind)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "VariableDeclaration", root.Children[0].Kind)
	assert.Equal(t, "var x = 1;", root.Children[0].Text)

	_, err = run(t, "ast", writeProgram(t, "var = ;"))
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, "check", "--mode", "macro", "../../../testrunner/testdata/examples")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Failed:  0")
	assert.Contains(t, out, "SKIP input.js")
}

func TestUnknownMode(t *testing.T) {
	_, err := run(t, "trace", "--mode", "sideways", writeProgram(t, "var a;"))
	assert.Error(t, err)
	rootCmd.PersistentFlags().Set("mode", "")
}
