package pmvm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarete/pmvm"
	"github.com/clarete/pmvm/compiler"
)

// These mirror six representative end-to-end matching scenarios,
// each built directly against the compiler package the way a host
// application would, rather than hand-assembling instructions.

func TestLiteralMatch(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Seq(compiler.Literal("a"), compiler.Literal("b")),
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("ab"), pmvm.DefaultLimits)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 2, result.End)
	assert.Empty(t, result.Captures)

	result, err = pmvm.Match(prog, []byte("ac"), pmvm.DefaultLimits)
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestOrderedChoice(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Choice(compiler.Literal("a"), compiler.Literal("b")),
		},
	})
	require.NoError(t, err)

	for _, tc := range []struct {
		input   string
		matched bool
		end     int
	}{
		{"b", true, 1},
		{"a", true, 1},
		{"c", false, 0},
	} {
		result, err := pmvm.Match(prog, []byte(tc.input), pmvm.DefaultLimits)
		require.NoError(t, err)
		assert.Equal(t, tc.matched, result.Matched, "input %q", tc.input)
		if tc.matched {
			assert.Equal(t, tc.end, result.End, "input %q", tc.input)
		}
	}
}

func TestStarWithPartialCommit(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Star(compiler.Literal("x")),
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("xxxy"), pmvm.DefaultLimits)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, 3, result.End)
}

func TestFullCaptureCollapsesOpenClose(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Capture(pmvm.KindSimple, 0,
				compiler.Seq(compiler.Literal("a"), compiler.Literal("b"))),
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("ab"), pmvm.DefaultLimits)
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Len(t, result.Captures, 1)

	ev := result.Captures[0]
	assert.Equal(t, 0, ev.S)
	assert.Equal(t, 3, ev.Size)
	assert.Equal(t, pmvm.KindSimple, ev.Kind)
}

func TestDirectLeftRecursiveArithmetic(t *testing.T) {
	const (
		keyNum uint16 = iota
		keySum
	)
	g := compiler.Grammar{
		Start: "E",
		Rules: map[string]compiler.Pattern{
			"E": compiler.Choice(
				compiler.Capture(pmvm.KindGroup, keySum, compiler.Seq(
					compiler.CallAt("E", 1),
					compiler.Literal("+"),
					compiler.Call("n"),
				)),
				compiler.Call("n"),
			),
			"n": compiler.Capture(pmvm.KindGroup, keyNum, compiler.Seq(
				compiler.Set([2]byte{'0', '9'}),
				compiler.Span([2]byte{'0', '9'}),
			)),
		},
	}
	prog, err := compiler.Compile(g)
	require.NoError(t, err)
	assert.NotEmpty(t, prog.LeftRecursive, "E should be marked left-recursive")

	result, err := pmvm.Match(prog, []byte("1+2+3"), pmvm.DefaultLimits)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, 5, result.End)

	// The capture log is preorder: a group's Open event sits before its
	// children, so the outermost addition -- (1+2)+3, the last one
	// grown -- is the first entry.
	require.NotEmpty(t, result.Captures)
	outer := result.Captures[0]
	assert.Equal(t, keySum, outer.Key)
	assert.Equal(t, pmvm.KindGroup, outer.Kind)
	assert.Equal(t, 0, outer.S)
	assert.Equal(t, len("1+2+3")+1, outer.Size)
}

func TestMatchTimeCaptureRejecting(t *testing.T) {
	const keyGuard uint16 = 0
	g := compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.RuntimeCapture(keyGuard, compiler.Literal("a")),
		},
	}
	prog, err := compiler.Compile(g, compiler.MatchFunc{
		Key: keyGuard,
		Fn: func(subject []byte, start, end int, captures []pmvm.CaptureEvent) pmvm.MatchTimeResult {
			return pmvm.MatchTimeResult{Outcome: pmvm.MatchTimeFail}
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("a"), pmvm.DefaultLimits)
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestMatchTimeCaptureKeepingAndAppendingValues(t *testing.T) {
	const keyTag uint16 = 0
	g := compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.RuntimeCapture(keyTag, compiler.Literal("a")),
		},
	}
	prog, err := compiler.Compile(g, compiler.MatchFunc{
		Key: keyTag,
		Fn: func(subject []byte, start, end int, captures []pmvm.CaptureEvent) pmvm.MatchTimeResult {
			return pmvm.MatchTimeResult{
				Outcome: pmvm.MatchTimeKeep,
				Values:  []any{"tagged"},
			}
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("a"), pmvm.DefaultLimits)
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Len(t, result.Captures, 1)
	assert.Equal(t, pmvm.KindRuntime, result.Captures[0].Kind)
	assert.Equal(t, []any{"tagged"}, result.Captures[0].Value)
}

func TestMatchTimeCaptureCollapsesWhenNoValuesReturned(t *testing.T) {
	const keyTag uint16 = 0
	g := compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.RuntimeCapture(keyTag, compiler.Literal("a")),
		},
	}
	prog, err := compiler.Compile(g, compiler.MatchFunc{
		Key: keyTag,
		Fn: func(subject []byte, start, end int, captures []pmvm.CaptureEvent) pmvm.MatchTimeResult {
			return pmvm.MatchTimeResult{Outcome: pmvm.MatchTimeKeep}
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("a"), pmvm.DefaultLimits)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Empty(t, result.Captures, "a runtime capture with no new values should collapse")
}

func TestUTFRangeMatchesMultiByteRune(t *testing.T) {
	// U+00E9 (é) encodes as 0xC3 0xA9, inside the Latin-1 Supplement
	// range but outside plain ASCII.
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.UTFRange(0x80, 0xFF),
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("\xc3\xa9"), pmvm.DefaultLimits)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, 2, result.End)
}

func TestUTFRangeRejectsInvalidEncoding(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.UTFRange(0, 0x10FFFF),
		},
	})
	require.NoError(t, err)

	for _, tc := range []struct {
		name  string
		input []byte
	}{
		{"bad continuation byte", []byte{0xC3, 0xFF}},
		{"lone continuation byte", []byte{0x80}},
		{"truncated two-byte sequence", []byte{0xC3}},
	} {
		result, err := pmvm.Match(prog, tc.input, pmvm.DefaultLimits)
		require.NoError(t, err, tc.name)
		assert.False(t, result.Matched, tc.name)
	}
}

func TestUTFRangeRejectsRuneOutsideRange(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.UTFRange('a', 'z'),
		},
	})
	require.NoError(t, err)

	result, err := pmvm.Match(prog, []byte("A"), pmvm.DefaultLimits)
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestCaptureListOverflowWhenLeftRecursiveHeadsNest(t *testing.T) {
	// E grows first (pushing its own capStackFrame), and its second
	// growth iteration calls into F before E ever settles, so F's
	// first entry tries to push a second capStackFrame while E's is
	// still live. With MaxCaptureListDepth capped at 1, that second
	// push is the one that must fail.
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "E",
		Rules: map[string]compiler.Pattern{
			"E": compiler.Choice(
				compiler.Seq(compiler.CallAt("E", 1), compiler.Literal("a"), compiler.Call("F")),
				compiler.Literal(""),
			),
			"F": compiler.Choice(
				compiler.Seq(compiler.CallAt("F", 1), compiler.Literal("b")),
				compiler.Literal(""),
			),
		},
	})
	require.NoError(t, err)

	limits := pmvm.DefaultLimits
	limits.MaxCaptureListDepth = 1

	_, err = pmvm.Match(prog, []byte("a"), limits)
	require.Error(t, err)
	var overflow *pmvm.CaptureListOverflowError
	assert.ErrorAs(t, err, &overflow)
}

func TestStackOverflowIsFatalNotBacktrackable(t *testing.T) {
	// Unlike Star (whose single Choice frame is reused in place by
	// PartialCommit every iteration), right recursion through an
	// ordinary Call pushes one new frame per level, so a long enough
	// input is guaranteed to exhaust a small stack budget.
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Choice(
				compiler.Seq(compiler.Literal("x"), compiler.Call("S")),
				compiler.Literal(""),
			),
		},
	})
	require.NoError(t, err)

	limits := pmvm.DefaultLimits
	limits.MaxStackDepth = 4

	input := make([]byte, 0, 64)
	for i := 0; i < 64; i++ {
		input = append(input, 'x')
	}

	_, err = pmvm.Match(prog, input, limits)
	require.Error(t, err)
	var overflow *pmvm.StackOverflowError
	assert.ErrorAs(t, err, &overflow)
}

func TestExecutionStepMatchesRunResult(t *testing.T) {
	prog, err := compiler.Compile(compiler.Grammar{
		Start: "S",
		Rules: map[string]compiler.Pattern{
			"S": compiler.Seq(compiler.Literal("a"), compiler.Literal("b")),
		},
	})
	require.NoError(t, err)

	ex := pmvm.NewExecution(prog, []byte("ab"), pmvm.DefaultLimits)
	steps := 0
	for !ex.Done() {
		require.NoError(t, ex.Step())
		steps++
		require.Less(t, steps, 1000, "Step should terminate well before this many iterations")
	}
	assert.Equal(t, 2, ex.Position())

	result, err := pmvm.Match(prog, []byte("ab"), pmvm.DefaultLimits)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, result.End, ex.Position())
}
