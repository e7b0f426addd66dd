package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarete/pmvm"
	"github.com/clarete/pmvm/compiler"
)

func TestCompileUndefinedStartRule(t *testing.T) {
	_, err := compiler.Compile(compiler.Grammar{
		Start: "Missing",
		Rules: map[string]compiler.Pattern{},
	})
	assert.Error(t, err)
}

func TestCompileUndefinedCallTarget(t *testing.T) {
	_, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Call("NeverDefined"),
		},
	})
	assert.Error(t, err)
}

func TestCompileResolvesForwardReferences(t *testing.T) {
	// A calls B before B has been compiled; Compile must resolve B's
	// address regardless of map iteration order.
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "A",
		Rules: map[string]compiler.Pattern{
			"A": compiler.Call("B"),
			"B": compiler.Literal("z"),
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("z"), pmvm.DefaultLimits)
	require.NoError(t, err)
	assert.True(t, result.Matched)
}

func TestAnalyzeDirectLeftRecursion(t *testing.T) {
	g := compiler.Grammar{
		Start: "E",
		Rules: map[string]compiler.Pattern{
			"E": compiler.Choice(
				compiler.Seq(compiler.CallAt("E", 1), compiler.Literal("+"), compiler.Call("n")),
				compiler.Call("n"),
			),
			"n": compiler.Literal("1"),
		},
	}
	prog, err := compiler.Compile(g)
	require.NoError(t, err)
	assert.NotEmpty(t, prog.LeftRecursive)
}

func TestAnalyzeRejectsIndirectLeftRecursion(t *testing.T) {
	// A calls B at its left edge, and B calls A back at its left edge:
	// indirect left recursion, which must be a compile error rather
	// than silently accepted.
	g := compiler.Grammar{
		Start: "A",
		Rules: map[string]compiler.Pattern{
			"A": compiler.Call("B"),
			"B": compiler.Call("A"),
		},
	}
	_, err := compiler.Compile(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indirect left recursion")
}

func TestAnalyzeIgnoresNonLeftEdgeSelfCalls(t *testing.T) {
	// S calls itself only after consuming a literal "x" first: this is
	// ordinary right recursion, not left recursion, so it must not be
	// flagged.
	g := compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Choice(
				compiler.Seq(compiler.Literal("x"), compiler.Call("S")),
				compiler.Literal(""),
			),
		},
	}
	prog, err := compiler.Compile(g)
	require.NoError(t, err)
	assert.Empty(t, prog.LeftRecursive)
}

func TestAnalyzeStopsAtNonPredicateSeqPrefix(t *testing.T) {
	// S's self-call sits after a consuming Any in the sequence, so it
	// is not at the left edge and must not be flagged left-recursive.
	g := compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Choice(
				compiler.Seq(compiler.Any(), compiler.Call("S")),
				compiler.Literal(""),
			),
		},
	}
	prog, err := compiler.Compile(g)
	require.NoError(t, err)
	assert.Empty(t, prog.LeftRecursive)
}

func TestFullCaptureUsedForFixedWidthPatterns(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Capture(pmvm.KindSimple, 0,
				compiler.Seq(compiler.Literal("a"), compiler.Any())),
		},
	})
	require.NoError(t, err)

	foundFull, foundOpen := false, false
	for _, ins := range prog.Code {
		switch ins.Op {
		case pmvm.OpFullCapture:
			foundFull = true
		case pmvm.OpOpenCapture:
			foundOpen = true
		}
	}
	assert.True(t, foundFull, "fixed-width capture should compile to a single FullCapture")
	assert.False(t, foundOpen, "fixed-width capture should not need Open/Close")
}

func TestOpenCloseUsedForVariableWidthPatterns(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Capture(pmvm.KindGroup, 0, compiler.Star(compiler.Literal("a"))),
		},
	})
	require.NoError(t, err)

	foundOpen, foundClose := false, false
	for _, ins := range prog.Code {
		switch ins.Op {
		case pmvm.OpOpenCapture:
			foundOpen = true
		case pmvm.OpCloseCapture:
			foundClose = true
		}
	}
	assert.True(t, foundOpen)
	assert.True(t, foundClose)
}

func TestDisassembleLabelsRules(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Literal("a"),
		},
	})
	require.NoError(t, err)

	out := prog.Disassemble()
	assert.Contains(t, out, "S:")
}
