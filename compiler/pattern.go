// Package compiler turns a Pattern expression tree into a
// *pmvm.Program. There is deliberately no textual grammar syntax here:
// callers build patterns by composing the constructors below, the
// same way grammar_compiler.go consumes an already-parsed AstNode.
package compiler

import "github.com/clarete/pmvm"

// Pattern is one node of the expression tree Compile consumes.
// Implementations are unexported; construct them through the
// functions below.
type Pattern interface {
	emit(c *compiler)
}

// Literal matches an exact byte string.
func Literal(s string) Pattern { return literalPattern(s) }

type literalPattern string

func (p literalPattern) emit(c *compiler) {
	for i := 0; i < len(p); i++ {
		c.emit(pmvm.Instr{Op: pmvm.OpChar, Aux: p[i]})
	}
}

// Any matches exactly one byte.
func Any() Pattern { return anyPattern{} }

type anyPattern struct{}

func (anyPattern) emit(c *compiler) {
	c.emit(pmvm.Instr{Op: pmvm.OpAny})
}

// Set matches one byte that falls in any of ranges (inclusive).
func Set(ranges ...[2]byte) Pattern { return setPattern{ranges} }

type setPattern struct{ ranges [][2]byte }

func (p setPattern) emit(c *compiler) {
	c.emit(pmvm.Instr{Op: pmvm.OpSet, Set: pmvm.NewCharsetFromRanges(p.ranges...)})
}

// Span greedily consumes zero or more bytes in ranges; it is the
// Star(Set(ranges...)) idiom compiled to a single Span instruction
// instead of a Choice/Commit loop.
func Span(ranges ...[2]byte) Pattern { return spanPattern{ranges} }

type spanPattern struct{ ranges [][2]byte }

func (p spanPattern) emit(c *compiler) {
	c.emit(pmvm.Instr{Op: pmvm.OpSpan, Set: pmvm.NewCharsetFromRanges(p.ranges...)})
}

// UTFRange matches one UTF-8 encoded rune in [lo, hi].
func UTFRange(lo, hi rune) Pattern { return utfRangePattern{lo, hi} }

type utfRangePattern struct{ lo, hi rune }

func (p utfRangePattern) emit(c *compiler) {
	c.emit(pmvm.Instr{Op: pmvm.OpUTFRange, Lo: p.lo, Hi: p.hi})
}

// Behind moves the cursor back n bytes, failing when fewer than n
// bytes precede it. It does not test what those n bytes are.
func Behind(n int) Pattern { return behindPattern{n} }

type behindPattern struct{ n int }

func (p behindPattern) emit(c *compiler) {
	c.emit(pmvm.Instr{Op: pmvm.OpBehind, Aux: uint8(p.n)})
}

// Seq matches each pattern in order, all or nothing.
func Seq(items ...Pattern) Pattern { return seqPattern(items) }

type seqPattern []Pattern

func (p seqPattern) emit(c *compiler) {
	for _, item := range p {
		item.emit(c)
	}
}

// Choice tries left first; if it fails without consuming committed
// input, it tries right from the same starting position.
func Choice(left, right Pattern) Pattern { return choicePattern{left, right} }

type choicePattern struct{ left, right Pattern }

func (p choicePattern) emit(c *compiler) {
	l1 := c.newLabel()
	l2 := c.newLabel()
	c.emitBranch(pmvm.OpChoice, l1)
	p.left.emit(c)
	c.emitBranch(pmvm.OpCommit, l2)
	c.placeLabel(l1)
	p.right.emit(c)
	c.placeLabel(l2)
}

// Star matches pat zero or more times, greedily.
func Star(pat Pattern) Pattern { return starPattern{pat} }

type starPattern struct{ pat Pattern }

func (p starPattern) emit(c *compiler) {
	l1 := c.newLabel()
	l2 := c.newLabel()
	c.emitBranch(pmvm.OpChoice, l2)
	c.placeLabel(l1)
	p.pat.emit(c)
	c.emitBranch(pmvm.OpPartialCommit, l1)
	c.placeLabel(l2)
}

// Plus matches pat one or more times.
func Plus(pat Pattern) Pattern { return Seq(pat, Star(pat)) }

// Optional matches pat zero or one times.
func Optional(pat Pattern) Pattern { return optionalPattern{pat} }

type optionalPattern struct{ pat Pattern }

func (p optionalPattern) emit(c *compiler) {
	l1 := c.newLabel()
	c.emitBranch(pmvm.OpChoice, l1)
	p.pat.emit(c)
	c.emitBranch(pmvm.OpCommit, l1)
	c.placeLabel(l1)
}

// And is the positive lookahead predicate: succeeds without consuming
// input iff pat would match here.
func And(pat Pattern) Pattern { return andPattern{pat} }

type andPattern struct{ pat Pattern }

func (p andPattern) emit(c *compiler) {
	l1 := c.newLabel()
	l2 := c.newLabel()
	c.emitBranch(pmvm.OpChoice, l1)
	p.pat.emit(c)
	c.emitBranch(pmvm.OpBackCommit, l2)
	c.placeLabel(l1)
	c.emit(pmvm.Instr{Op: pmvm.OpFail})
	c.placeLabel(l2)
}

// Not is the negative lookahead predicate: succeeds without consuming
// input iff pat would NOT match here.
func Not(pat Pattern) Pattern { return notPattern{pat} }

type notPattern struct{ pat Pattern }

func (p notPattern) emit(c *compiler) {
	l1 := c.newLabel()
	c.emitBranch(pmvm.OpChoice, l1)
	p.pat.emit(c)
	c.emit(pmvm.Instr{Op: pmvm.OpFailTwice})
	c.placeLabel(l1)
}

// Call invokes the named rule. Level distinguishes precedence tiers
// for left-recursive rules used to parse left-associative operators
//; rules with no precedence structure should leave it 0.
func Call(name string) Pattern { return callPattern{name: name} }

// CallAt is Call with an explicit precedence level.
func CallAt(name string, level int) Pattern { return callPattern{name: name, level: level} }

type callPattern struct {
	name  string
	level int
}

func (p callPattern) emit(c *compiler) {
	c.emitCall(p.name, p.level)
}

// Capture wraps pat in a capture of the given kind and key.
func Capture(kind pmvm.CaptureKind, key uint16, pat Pattern) Pattern {
	return capturePattern{kind, key, pat}
}

type capturePattern struct {
	kind pmvm.CaptureKind
	key  uint16
	pat  Pattern
}

func (p capturePattern) emit(c *compiler) {
	// A capture around a pattern whose consumed width is known at
	// compile time needs no open/close pair at all: emitting the body
	// then a single FullCapture records the same (S, Size, Kind, Key)
	// in one instruction instead of two. Position captures keep the
	// Open/Close pair, since CloseCapture gives them zero width.
	if width, ok := fixedWidth(p.pat); ok && p.kind != pmvm.KindPosition {
		p.pat.emit(c)
		c.emit(pmvm.Instr{Op: pmvm.OpFullCapture, Aux: uint8(p.kind), Key: p.key, Offset: int32(width)})
		return
	}
	c.emit(pmvm.Instr{Op: pmvm.OpOpenCapture, Aux: uint8(p.kind), Key: p.key})
	p.pat.emit(c)
	c.emit(pmvm.Instr{Op: pmvm.OpCloseCapture})
}

// fixedWidth reports the exact number of bytes pat always consumes on
// success, when that is known purely from its shape. It is a
// conservative, non-exhaustive analysis: returning false just means
// the Open/Close pair is used instead, never a correctness problem.
func fixedWidth(pat Pattern) (int, bool) {
	switch p := pat.(type) {
	case literalPattern:
		return len(p), true
	case anyPattern:
		return 1, true
	case setPattern:
		return 1, true
	case seqPattern:
		total := 0
		for _, item := range p {
			w, ok := fixedWidth(item)
			if !ok {
				return 0, false
			}
			total += w
		}
		return total, true
	default:
		return 0, false
	}
}

// RuntimeCapture wraps pat in a match-time capture that, once pat
// succeeds, calls the host function registered under key at match
// time.
func RuntimeCapture(key uint16, pat Pattern) Pattern {
	return runtimeCapturePattern{key, pat}
}

type runtimeCapturePattern struct {
	key uint16
	pat Pattern
}

func (p runtimeCapturePattern) emit(c *compiler) {
	c.emit(pmvm.Instr{Op: pmvm.OpOpenCapture, Aux: uint8(pmvm.KindRuntime), Key: p.key})
	p.pat.emit(c)
	c.emit(pmvm.Instr{Op: pmvm.OpCloseRunTime, Key: p.key})
}
