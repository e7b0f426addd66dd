package pmvm

import (
	"fmt"
	"strings"
)

// Program is a compiled pattern ready to be matched against input.
// It is produced by github.com/clarete/pmvm/compiler and trusted
// verbatim by Match: the VM never re-validates that jumps stay in
// range or that captures balance, keeping that separation between
// compiler and VM clean.
type Program struct {
	// Code is the flat instruction sequence. Instruction addresses are
	// indices into Code, not byte offsets (see Instr.Size).
	Code []Instr

	// MatchFuncs is the registry CloseRunTime instructions index into
	// via Instr.Key.
	MatchFuncs []MatchTimeFunc

	// RuleNames optionally labels Call targets for disassembly and
	// error messages; index is the instruction address, value is a
	// human name. Absent entries disassemble by address alone.
	RuleNames map[int]string

	// LeftRecursive marks the rule-entry addresses the compiler has
	// determined may recurse into themselves at the same input
	// position. A Call
	// targeting one of these addresses goes through the memo-table
	// seed-growing path instead of an ordinary push-and-jump; see
	// vm.go. Absent/false means "ordinary call".
	LeftRecursive map[int]bool
}

// NewProgram wraps a raw instruction sequence with no registered
// match-time functions or rule names, for callers that built Code by
// hand (tests, mostly) rather than through the compiler.
func NewProgram(code []Instr) *Program {
	return &Program{Code: code}
}

// target resolves a branch instruction's absolute destination address.
func (p *Program) target(at int) int {
	return at + 1 + int(p.Code[at].Offset)
}

// Disassemble renders the program as one instruction per line,
// addresses and branch targets included, without any terminal color
// theme; that lives in internal/ansi for callers that want it.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for i, ins := range p.Code {
		fmt.Fprintf(&b, "%4d  %s", i, ins)
		switch ins.Op {
		case OpJmp, OpChoice, OpCommit, OpPartialCommit, OpBackCommit,
			OpTestAny, OpTestChar, OpTestSet, OpCall:
			target := p.target(i)
			if name, ok := p.RuleNames[target]; ok {
				fmt.Fprintf(&b, "\t; -> %d (%s)", target, name)
			} else {
				fmt.Fprintf(&b, "\t; -> %d", target)
			}
		}
		if name, ok := p.RuleNames[i]; ok {
			fmt.Fprintf(&b, "\t%s:", name)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
