package compiler

import (
	"fmt"

	"github.com/clarete/pmvm"
)

// Grammar is a set of named rules plus the rule execution starts
// from. Rules may reference each other (and themselves) by name
// through Call/CallAt in any order; Compile resolves them in a single
// backpatching pass, the way grammar_compiler.go
// resolves forward references to productions that haven't been
// visited yet.
type Grammar struct {
	Start string
	Rules map[string]Pattern
}

// MatchFunc registers a host callback under the key a RuntimeCapture
// pattern references.
type MatchFunc struct {
	Key uint16
	Fn  pmvm.MatchTimeFunc
}

// Compile assembles g into a *pmvm.Program. funcs registers the host
// callbacks any RuntimeCapture pattern needs; a RuntimeCapture
// whose key has no entry here compiles fine but fails at match time
// with a MalformedProgramError, matching the "trusted input" contract
// doc.go describes for pmvm itself.
func Compile(g Grammar, funcs ...MatchFunc) (*pmvm.Program, error) {
	if _, ok := g.Rules[g.Start]; !ok {
		return nil, fmt.Errorf("compiler: start rule %q not defined", g.Start)
	}

	c := &compiler{
		grammar:   g,
		ruleAddrs: map[string]int{},
		labels:    map[label]int{},
		ruleNames: map[int]string{},
		callSites: map[int]string{},
	}

	c.emit(pmvm.Instr{Op: pmvm.OpCall}) // placeholder, patched below
	c.emit(pmvm.Instr{Op: pmvm.OpEnd})
	c.emit(pmvm.Instr{Op: pmvm.OpGiveup})

	// Compile every rule (not just reachable ones) so forward and
	// mutual references always resolve; order doesn't matter since
	// every Call goes through the callSites backpatch list.
	for name := range g.Rules {
		c.compileRule(name)
	}

	if err := c.resolve(); err != nil {
		return nil, err
	}

	startAddr, ok := c.ruleAddrs[g.Start]
	if !ok {
		return nil, fmt.Errorf("compiler: internal error resolving start rule %q", g.Start)
	}
	c.code[0] = pmvm.Instr{Op: pmvm.OpCall, Offset: int32(startAddr - 1)}

	leftRecursive := map[int]bool{}
	for name, addr := range c.ruleAddrs {
		isLR, err := analyzeLeftRecursion(name, g.Rules)
		if err != nil {
			return nil, err
		}
		if isLR {
			leftRecursive[addr] = true
		}
	}

	matchFuncs := make([]pmvm.MatchTimeFunc, 0)
	for _, mf := range funcs {
		for len(matchFuncs) <= int(mf.Key) {
			matchFuncs = append(matchFuncs, nil)
		}
		matchFuncs[mf.Key] = mf.Fn
	}

	return &pmvm.Program{
		Code:          c.code,
		MatchFuncs:    matchFuncs,
		RuleNames:     c.ruleNames,
		LeftRecursive: leftRecursive,
	}, nil
}

type label int

// pendingBranch records one not-yet-resolved branch instruction's
// address and which label it should eventually point at.
type pendingBranch struct {
	at     int
	target label
}

type compiler struct {
	grammar Grammar

	code []pmvm.Instr

	nextLabel   label
	labels      map[label]int // label -> resolved instruction address
	branches    []pendingBranch
	callSites   map[int]string // call instruction address -> rule name
	ruleAddrs   map[string]int
	ruleNames   map[int]string
	compileOnce map[string]bool
}

func (c *compiler) emit(ins pmvm.Instr) int {
	c.code = append(c.code, ins)
	return len(c.code) - 1
}

func (c *compiler) newLabel() label {
	c.nextLabel++
	return c.nextLabel
}

func (c *compiler) placeLabel(l label) {
	c.labels[l] = len(c.code)
}

// emitBranch appends a branch instruction whose Offset is filled in by
// resolve() once every label in the program has a known address.
func (c *compiler) emitBranch(op pmvm.Opcode, target label) int {
	at := c.emit(pmvm.Instr{Op: op})
	c.branches = append(c.branches, pendingBranch{at: at, target: target})
	return at
}

// emitCall appends a Call whose target is the named rule's entry
// point, resolved the same way as a label once every rule has been
// compiled.
func (c *compiler) emitCall(target string, level int) int {
	at := c.emit(pmvm.Instr{Op: pmvm.OpCall, Aux: uint8(level)})
	c.callSites[at] = target
	return at
}

// compileRule compiles rule name's body exactly once, recording its
// entry address in ruleAddrs/ruleNames. Compiling the same rule twice
// (through multiple Call references before resolve) is a no-op.
func (c *compiler) compileRule(name string) {
	if c.compileOnce == nil {
		c.compileOnce = map[string]bool{}
	}
	if c.compileOnce[name] {
		return
	}
	c.compileOnce[name] = true

	pat, ok := c.grammar.Rules[name]
	if !ok {
		// An undefined rule is reported when resolve() tries to look
		// up its address; compiling nothing here keeps Compile's
		// control flow simple.
		return
	}

	addr := len(c.code)
	c.ruleAddrs[name] = addr
	c.ruleNames[addr] = name
	pat.emit(c)
	c.emit(pmvm.Instr{Op: pmvm.OpRet})
}

// resolve fills in every pending branch Offset and Call target now
// that all labels and rule addresses are known.
func (c *compiler) resolve() error {
	for _, b := range c.branches {
		addr, ok := c.labels[b.target]
		if !ok {
			return fmt.Errorf("compiler: internal error: unresolved label %d", b.target)
		}
		ins := c.code[b.at]
		ins.Offset = int32(addr - (b.at + 1))
		c.code[b.at] = ins
	}
	for at, name := range c.callSites {
		addr, ok := c.ruleAddrs[name]
		if !ok {
			return fmt.Errorf("compiler: call to undefined rule %q", name)
		}
		ins := c.code[at]
		ins.Offset = int32(addr - (at + 1))
		c.code[at] = ins
	}
	return nil
}

// analyzeLeftRecursion reports whether rule name can call itself at
// the same input position without first consuming any bytes, and
// rejects grammars where that only happens through another rule
// (indirect left recursion is rejected rather than supported).
func analyzeLeftRecursion(name string, rules map[string]Pattern) (bool, error) {
	visited := map[string]bool{name: true}
	return leftEdgeCallsSelf(name, rules[name], rules, visited)
}

func leftEdgeCallsSelf(head string, pat Pattern, rules map[string]Pattern, visited map[string]bool) (bool, error) {
	switch p := pat.(type) {
	case callPattern:
		if p.name == head {
			return true, nil
		}
		if visited[p.name] {
			// We are back at a rule we've already passed through
			// without having reached head: this cycle does not lead
			// back to head, and p.name's own analysis covers it.
			return false, nil
		}
		next := rules[p.name]
		if next == nil {
			return false, nil
		}
		visited2 := make(map[string]bool, len(visited)+1)
		for k := range visited {
			visited2[k] = true
		}
		visited2[p.name] = true
		found, err := leftEdgeCallsSelf(head, next, rules, visited2)
		if err != nil {
			return false, err
		}
		if found {
			return false, fmt.Errorf(
				"compiler: indirect left recursion detected through rule %q (only direct left recursion is supported)",
				p.name)
		}
		return false, nil

	case seqPattern:
		for _, item := range p {
			found, err := leftEdgeCallsSelf(head, item, rules, visited)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
			if !isZeroWidthPredicate(item) {
				return false, nil
			}
		}
		return false, nil

	case choicePattern:
		foundLeft, err := leftEdgeCallsSelf(head, p.left, rules, visited)
		if err != nil {
			return false, err
		}
		foundRight, err := leftEdgeCallsSelf(head, p.right, rules, visited)
		if err != nil {
			return false, err
		}
		return foundLeft || foundRight, nil

	case starPattern:
		return leftEdgeCallsSelf(head, p.pat, rules, visited)
	case optionalPattern:
		return leftEdgeCallsSelf(head, p.pat, rules, visited)
	case andPattern:
		return leftEdgeCallsSelf(head, p.pat, rules, visited)
	case notPattern:
		return leftEdgeCallsSelf(head, p.pat, rules, visited)
	case capturePattern:
		return leftEdgeCallsSelf(head, p.pat, rules, visited)
	case runtimeCapturePattern:
		return leftEdgeCallsSelf(head, p.pat, rules, visited)

	default:
		return false, nil
	}
}

func isZeroWidthPredicate(pat Pattern) bool {
	switch pat.(type) {
	case andPattern, notPattern:
		return true
	default:
		return false
	}
}
