package pmvm

import "fmt"

// Opcode identifies which instruction the match loop should perform.
//
// The grouping mirrors the semantic families of the original LPeg
// opcode set (lpvm.h's Opcode enum): consume, predicate/lookahead,
// control, rule call/return, and capture.
type Opcode uint8

const (
	OpAny Opcode = iota
	OpChar
	OpSet
	OpSpan
	OpUTFRange
	OpBehind

	OpTestAny
	OpTestChar
	OpTestSet

	OpJmp
	OpChoice
	OpCommit
	OpPartialCommit
	OpBackCommit
	OpFail
	OpFailTwice
	OpEnd
	OpGiveup

	OpCall
	OpRet

	OpOpenCapture
	OpCloseCapture
	OpFullCapture
	OpCloseRunTime
)

var opcodeNames = map[Opcode]string{
	OpAny:           "any",
	OpChar:          "char",
	OpSet:           "set",
	OpSpan:          "span",
	OpUTFRange:      "utf_range",
	OpBehind:        "behind",
	OpTestAny:       "test_any",
	OpTestChar:      "test_char",
	OpTestSet:       "test_set",
	OpJmp:           "jmp",
	OpChoice:        "choice",
	OpCommit:        "commit",
	OpPartialCommit: "partial_commit",
	OpBackCommit:    "back_commit",
	OpFail:          "fail",
	OpFailTwice:     "fail_twice",
	OpEnd:           "end",
	OpGiveup:        "giveup",
	OpCall:          "call",
	OpRet:           "ret",
	OpOpenCapture:   "open_capture",
	OpCloseCapture:  "close_capture",
	OpFullCapture:   "full_capture",
	OpCloseRunTime:  "close_runtime",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("illegal(%02x)", uint8(op))
}

// CaptureKind discriminates the role a capture event plays in the
// tree the materialiser reconstructs.
type CaptureKind uint8

const (
	// KindClose is the zero kind, reserved for a log terminator. End
	// does not append one, and CloseCapture turns an open event of
	// this kind into KindSimple.
	KindClose CaptureKind = iota

	// KindSimple is an anonymous capture of a matched range.
	KindSimple

	// KindPosition captures the current position with no consumed
	// bytes (a zero-width marker, e.g. for recording a parse location).
	KindPosition

	// KindGroup captures a named/keyed subtree made of nested
	// captures.
	KindGroup

	// KindRuntime is a capture produced by a host CloseRunTime
	// callback rather than by static program structure.
	KindRuntime
)

func (k CaptureKind) String() string {
	switch k {
	case KindClose:
		return "close"
	case KindSimple:
		return "simple"
	case KindPosition:
		return "position"
	case KindGroup:
		return "group"
	case KindRuntime:
		return "runtime"
	default:
		return "illegal"
	}
}

// Charset is a 256-bit bitmap, one bit per byte value. It is the
// inline character-set payload LPeg uses for Set/Span/TestSet
// instructions ("256 bits = 32 bytes"). Grounded on the shape
// of chronos-tachyon/go-peggy's byteset package, the one example in
// the retrieval pack that models a fixed byte-indexed bitmap instead
// of langlang's variable-width rune charset.
type Charset [32]byte

// NewCharsetFromRanges builds a Charset admitting every byte in each
// [lo,hi] pair.
func NewCharsetFromRanges(ranges ...[2]byte) *Charset {
	var cs Charset
	for _, r := range ranges {
		for c := int(r[0]); c <= int(r[1]); c++ {
			cs.Add(byte(c))
		}
	}
	return &cs
}

// Add sets the bit for byte c.
func (cs *Charset) Add(c byte) {
	cs[c>>3] |= 1 << (c & 7)
}

// Has reports whether byte c belongs to the set.
func (cs *Charset) Has(c byte) bool {
	return cs[c>>3]&(1<<(c&7)) != 0
}

// Instr is one fixed-size instruction word. Unlike the byte-packed
// encoding LPeg uses to keep programs compact in C, Go slices of
// structs already give O(1), position-independent addressing, so
// Instr carries every field a given Opcode might need rather than a
// variable number of trailing words; size_of(instr) is therefore
// always 1 (see Instr.Size).
type Instr struct {
	Op Opcode

	// Aux is the 8-bit auxiliary field: the literal byte for Char,
	// the walk-back count for Behind, or the precedence level k for
	// Call.
	Aux uint8

	// Key is the 16-bit key field: a capture key for
	// Open/Close/FullCapture, or the index into Program.MatchFuncs
	// for CloseRunTime.
	Key uint16

	// Offset is the signed branch offset, relative to the address of
	// the *following* instruction, so that Jmp{Offset:0} is a no-op.
	Offset int32

	// Set holds the inline charset payload for Set/Span/TestSet.
	Set *Charset

	// Lo, Hi hold the UTFRange bounds (inclusive).
	Lo, Hi rune
}

// Size returns the number of instruction slots this instruction
// occupies when advancing the program counter. It is always 1 for
// Instr; the method exists so callers can write p += instr.Size()
// instead of a bare literal, matching LPeg's variable-step decoder
// contract even though the underlying encoding no longer needs one.
func (Instr) Size() int { return 1 }

func (ins Instr) String() string {
	switch ins.Op {
	case OpChar:
		return fmt.Sprintf("char %q", byte(ins.Aux))
	case OpBehind:
		return fmt.Sprintf("behind %d", ins.Aux)
	case OpUTFRange:
		return fmt.Sprintf("utf_range %d..%d", ins.Lo, ins.Hi)
	case OpCall:
		return fmt.Sprintf("call %+d k=%d", ins.Offset, ins.Aux)
	case OpJmp, OpChoice, OpCommit, OpPartialCommit, OpBackCommit,
		OpTestAny, OpTestChar, OpTestSet:
		return fmt.Sprintf("%s %+d", ins.Op, ins.Offset)
	case OpOpenCapture, OpCloseCapture:
		return fmt.Sprintf("%s key=%d", ins.Op, ins.Key)
	case OpFullCapture:
		return fmt.Sprintf("full_capture off=%d key=%d", ins.Offset, ins.Key)
	case OpCloseRunTime:
		return fmt.Sprintf("close_runtime fn=%d", ins.Key)
	default:
		return ins.Op.String()
	}
}
