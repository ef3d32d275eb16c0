package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/tacc/internal/compiler/diagnostics"
)

func TestCompileSuccessfulProgram(t *testing.T) {
	r := Compile("x = 1\ny = x + 2\n", Options{})
	require.True(t, r.Success)
	assert.Empty(t, r.Diagnostics)
	assert.NotNil(t, r.AST)
	assert.NotNil(t, r.Scope)
	require.Len(t, r.Instructions, 3)
	assert.Equal(t, ExitSuccess, r.ExitCode())
}

func TestCompileAppendsMissingTrailingNewline(t *testing.T) {
	r := Compile("x = 1", Options{})
	require.True(t, r.Success)
	require.Len(t, r.Instructions, 1)
}

func TestCompileHaltsBeforeResolverOnParseError(t *testing.T) {
	r := Compile("1 = 2\n", Options{})
	require.False(t, r.Success)
	require.Nil(t, r.Scope)
	assert.Nil(t, r.Instructions)
	assert.Equal(t, ExitParse, r.ExitCode())
}

func TestCompileHaltsBeforeEmitterOnSemanticError(t *testing.T) {
	r := Compile("x = y\n", Options{})
	require.False(t, r.Success)
	require.NotNil(t, r.AST)
	require.NotNil(t, r.Scope)
	assert.Nil(t, r.Instructions)
	assert.Equal(t, ExitSemantic, r.ExitCode())

	var found bool
	for _, d := range r.Diagnostics {
		if d.Phase == diagnostics.Semantic && d.Kind == diagnostics.Kind("UndefinedVariable") {
			found = true
		}
	}
	assert.True(t, found, "expected an UndefinedVariable diagnostic, got %v", r.Diagnostics)
}

func TestCompileReportsMultipleParseErrorsWithoutAborting(t *testing.T) {
	r := Compile("1 = 2\n3 = 4\n", Options{})
	require.False(t, r.Success)

	count := 0
	for _, d := range r.Diagnostics {
		if d.Phase == diagnostics.Parse && d.Severity == diagnostics.Error {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestCompileEmptySourceSucceeds(t *testing.T) {
	r := Compile("", Options{})
	require.True(t, r.Success)
	assert.Empty(t, r.Instructions)
}

func TestResultExitCodeSuccess(t *testing.T) {
	r := Result{Success: true}
	assert.Equal(t, ExitSuccess, r.ExitCode())
}

func TestResultExitCodePrefersEarliestPhase(t *testing.T) {
	r := Result{Diagnostics: []diagnostics.Diagnostic{
		{Phase: diagnostics.Semantic, Severity: diagnostics.Error},
		{Phase: diagnostics.Parse, Severity: diagnostics.Error},
	}}
	assert.Equal(t, ExitParse, r.ExitCode())
}

// TestScenarioE_UndefinedVariable reproduces spec.md §8 Scenario E
// byte-for-byte: one diagnostic, no instructions.
func TestScenarioE_UndefinedVariable(t *testing.T) {
	r := Compile("y = z + 1\n", Options{})
	require.False(t, r.Success)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, "semantic error at line 1:5: UndefinedVariable: z", r.Diagnostics[0].String())
	assert.Empty(t, r.Instructions)
	assert.Equal(t, ExitSemantic, r.ExitCode())
}
