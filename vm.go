package pmvm

import "unicode/utf8"

// MatchResult is the outcome of running a Program to completion.
// Matched is false when the program exhausted every alternative (an
// ordinary PEG failure, not an error). Match and Execution.Run return
// a non-nil error alongside it only for the resource-exhaustion and
// contract-violation error classes.
type MatchResult struct {
	Matched  bool
	End      int
	Captures []CaptureEvent
}

// Match runs prog against subject once, from position 0, and returns
// the outcome. It is the one-shot entry point, offered alongside the
// stepping Execution API for callers (tests, a debugger, cmd/pmvmdump)
// that want to observe the match incrementally instead.
func Match(prog *Program, subject []byte, limits Limits) (MatchResult, error) {
	ex := NewExecution(prog, subject, limits)
	return ex.Run()
}

// Execution is one in-progress match, steppable one instruction at a
// time (the Step()/Run() split). Its zero value is not usable; build
// one with NewExecution.
type Execution struct {
	prog    *Program
	subject []byte
	limits  Limits

	p int // program counter: index into prog.Code
	s int // cursor: index into subject

	stack    *backtrackStack
	caps     *CaptureLog
	memo     map[memoKey]*memoEntry
	capStack capStack

	done   bool
	failed bool
}

// NewExecution prepares prog to run against subject from position 0.
func NewExecution(prog *Program, subject []byte, limits Limits) *Execution {
	return &Execution{
		prog:    prog,
		subject: subject,
		limits:  limits,
		stack:   newBacktrackStack(limits),
		caps:    NewCaptureLog(limits.initialCaptureSize()),
		memo:    make(map[memoKey]*memoEntry),
	}
}

// Done reports whether the execution has reached End or Giveup.
func (e *Execution) Done() bool { return e.done }

// Position returns the current cursor into the subject.
func (e *Execution) Position() int { return e.s }

// ProgramCounter returns the address of the next instruction Step
// will execute.
func (e *Execution) ProgramCounter() int { return e.p }

// StackDepth returns the number of frames on the backtrack/call stack,
// not counting the bottom sentinel.
func (e *Execution) StackDepth() int { return e.stack.depth() }

// CaptureListDepth returns how many left-recursive heads are currently
// suspended waiting on their own growth iteration.
func (e *Execution) CaptureListDepth() int { return e.capStack.depth() }

// Captures returns a snapshot of the capture log as it stands right
// now; callers mid-Step should not assume it is balanced.
func (e *Execution) Captures() []CaptureEvent { return e.caps.Snapshot(e.caps.Len()) }

// DynamicCaptureCount returns ndyncap, the number of runtime-kind
// events currently in the capture log.
func (e *Execution) DynamicCaptureCount() int {
	n := e.caps.Len()
	return countRuntime(e.caps.events, n)
}

// Run steps the execution to completion.
func (e *Execution) Run() (MatchResult, error) {
	for !e.done {
		if err := e.Step(); err != nil {
			return MatchResult{}, err
		}
	}
	if e.failed {
		return MatchResult{Matched: false}, nil
	}
	return MatchResult{
		Matched:  true,
		End:      e.s,
		Captures: e.caps.Snapshot(e.caps.Len()),
	}, nil
}

// Step executes a single instruction, or a single backtrack/giveup
// action when the previous instruction failed. It returns a non-nil
// error only for fatal, non-backtrackable conditions (stack/capture
// overflow, malformed program, bad match-time position/result count);
// an ordinary PEG failure that exhausts every choice instead sets
// e.done/e.failed and returns nil.
func (e *Execution) Step() error {
	if e.done {
		return nil
	}

	ins, err := e.fetch(e.p)
	if err != nil {
		return err
	}

	switch ins.Op {
	case OpAny:
		if e.s >= len(e.subject) {
			return e.fail()
		}
		e.s++
		e.p++

	case OpChar:
		if e.s >= len(e.subject) || e.subject[e.s] != ins.Aux {
			return e.fail()
		}
		e.s++
		e.p++

	case OpSet:
		if e.s >= len(e.subject) || ins.Set == nil || !ins.Set.Has(e.subject[e.s]) {
			return e.fail()
		}
		e.s++
		e.p++

	case OpSpan:
		for e.s < len(e.subject) && ins.Set != nil && ins.Set.Has(e.subject[e.s]) {
			e.s++
		}
		e.p++

	case OpUTFRange:
		r, size := utf8.DecodeRune(e.subject[e.s:])
		if size == 0 || (r == utf8.RuneError && size == 1) || r < ins.Lo || r > ins.Hi {
			return e.fail()
		}
		e.s += size
		e.p++

	case OpBehind:
		n := int(ins.Aux)
		if e.s < n {
			return e.fail()
		}
		e.s -= n
		e.p++

	case OpTestAny:
		if e.s >= len(e.subject) {
			e.p = e.prog.target(e.p)
		} else {
			e.p++
		}

	case OpTestChar:
		if e.s >= len(e.subject) || e.subject[e.s] != ins.Aux {
			e.p = e.prog.target(e.p)
		} else {
			e.p++
		}

	case OpTestSet:
		if e.s >= len(e.subject) || ins.Set == nil || !ins.Set.Has(e.subject[e.s]) {
			e.p = e.prog.target(e.p)
		} else {
			e.p++
		}

	case OpJmp:
		e.p = e.prog.target(e.p)

	case OpChoice:
		if err := e.stack.push(frame{
			kind:     frameChoice,
			p:        e.prog.target(e.p),
			s:        e.s,
			capLevel: e.caps.Len(),
		}); err != nil {
			return err
		}
		e.p++

	case OpCommit:
		if _, ok := e.stack.pop(); !ok {
			return &MalformedProgramError{P: e.p, Message: "commit with empty choice stack"}
		}
		e.p = e.prog.target(e.p)

	case OpPartialCommit:
		top := e.stack.top()
		top.s = e.s
		top.capLevel = e.caps.Len()
		e.p = e.prog.target(e.p)

	case OpBackCommit:
		f, ok := e.stack.pop()
		if !ok {
			return &MalformedProgramError{P: e.p, Message: "back_commit with empty choice stack"}
		}
		e.s = f.s
		e.caps.Truncate(f.capLevel)
		e.p = e.prog.target(e.p)

	case OpFail:
		return e.fail()

	case OpFailTwice:
		if _, ok := e.stack.pop(); !ok {
			return &MalformedProgramError{P: e.p, Message: "fail_twice with empty choice stack"}
		}
		return e.fail()

	case OpEnd:
		e.done = true
		e.failed = false

	case OpGiveup:
		e.done = true
		e.failed = true

	case OpCall:
		return e.call(ins)

	case OpRet:
		return e.ret()

	case OpOpenCapture:
		if err := e.caps.Append(CaptureEvent{
			S:    e.s,
			Size: 0,
			Kind: CaptureKind(ins.Aux),
			Key:  ins.Key,
		}, e.limits); err != nil {
			return err
		}
		e.p++

	case OpCloseCapture:
		i := e.caps.lastOpenIndex()
		if i < 0 {
			return &MalformedProgramError{P: e.p, Message: "close_capture with no matching open"}
		}
		open := e.caps.At(i)
		open.Size = e.s - open.S + 1
		if open.Kind == KindPosition {
			// a position capture always has zero width regardless of
			// what matched between open and close
			open.Size = 1
		} else if open.Kind == CaptureKind(0) {
			open.Kind = KindSimple
		}
		e.caps.SetAt(i, open)
		e.p++

	case OpFullCapture:
		length := int(ins.Offset)
		start := e.s - length
		if start < 0 {
			return &MalformedProgramError{P: e.p, Message: "full_capture length exceeds consumed input"}
		}
		if err := e.caps.Append(CaptureEvent{
			S:    start,
			Size: length + 1,
			Kind: CaptureKind(ins.Aux),
			Key:  ins.Key,
		}, e.limits); err != nil {
			return err
		}
		e.p++

	case OpCloseRunTime:
		if err := e.closeRunTime(ins); err != nil {
			return err
		}

	default:
		return &MalformedProgramError{P: e.p, Message: "illegal opcode"}
	}

	return nil
}

func (e *Execution) fetch(p int) (Instr, error) {
	if p < 0 || p >= len(e.prog.Code) {
		return Instr{}, &MalformedProgramError{P: p, Message: "program counter out of range"}
	}
	return e.prog.Code[p], nil
}

// call implements OpCall, branching between an ordinary push-and-jump
// and the memo-table seed-growing protocol for rules the compiler
// marked left-recursive.
func (e *Execution) call(ins Instr) error {
	target := e.prog.target(e.p)
	ret := e.p + 1

	if !e.prog.LeftRecursive[target] {
		if err := e.stack.push(frame{kind: frameCall, p: ret}); err != nil {
			return err
		}
		e.p = target
		return nil
	}

	k := int(ins.Aux)
	key := memoKey{pA: target, s0: e.s}
	entry, seen := e.memo[key]

	if !seen {
		entry = &memoEntry{x: lrFail, k: k}
		e.memo[key] = entry
		if err := e.capStack.push(capStackFrame{pA: target, s0: e.s}, e.limits.maxCaptureListDepth()); err != nil {
			return err
		}
		if err := e.stack.push(frame{
			kind:     frameLeftRecursive,
			p:        ret,
			s:        e.s,
			capLevel: e.caps.Len(),
			pA:       target,
			x:        lrFail,
			level:    k,
		}); err != nil {
			return err
		}
		e.p = target
		return nil
	}

	// Re-entering the same head at the same position: this is the
	// recursive call a growth iteration makes back into itself. If no
	// seed has matched yet, direct left recursion is pruned (the base
	// case must match without recursing). If a seed exists but this
	// call site's precedence level is lower than the level the seed
	// was established at, the call also fails, which is what gives left-
	// associative precedence climbing its shape.
	if entry.x == lrFail || k < entry.k {
		return e.fail()
	}
	e.s = entry.x
	if err := e.caps.Splice(entry.captures, e.limits); err != nil {
		return err
	}
	e.p = ret
	return nil
}

// ret implements OpRet, including the seed-growing loop a
// frameLeftRecursive entry drives.
func (e *Execution) ret() error {
	f, ok := e.stack.pop()
	if !ok {
		return &MalformedProgramError{P: e.p, Message: "ret with empty call stack"}
	}

	if f.kind == frameCall {
		e.p = f.p
		return nil
	}
	if f.kind != frameLeftRecursive {
		return &MalformedProgramError{P: e.p, Message: "ret matched a choice frame"}
	}

	key := memoKey{pA: f.pA, s0: f.s}
	entry := e.memo[key]

	if e.s > entry.x {
		// Grew past the previous best: remember this seed and try
		// again from the same starting position to see if another
		// round grows further.
		entry.x = e.s
		entry.k = f.level
		entry.captures = e.caps.Snapshot(e.caps.Len())[f.capLevel:]
		entry.ndyncap = countRuntime(entry.captures, len(entry.captures))

		e.s = f.s
		e.caps.Truncate(f.capLevel)
		if err := e.stack.push(f); err != nil {
			return err
		}
		e.p = f.pA
		return nil
	}

	return e.settleLeftRecursion(f, entry)
}

// settleLeftRecursion stops growing a left-recursive head, restoring
// its best-known seed (or propagating failure if none was ever found)
// and returning to the original call site.
func (e *Execution) settleLeftRecursion(f frame, entry *memoEntry) error {
	// Restore the capture log to what it held at entry, and erase the
	// memo entry: the frame is being popped for good either way, never
	// retried again.
	e.caps.Truncate(f.capLevel)
	delete(e.memo, memoKey{pA: f.pA, s0: f.s})
	e.capStack.pop()

	if entry.x == lrFail {
		return e.fail()
	}
	e.s = entry.x
	if err := e.caps.Splice(entry.captures, e.limits); err != nil {
		return err
	}
	e.p = f.p
	return nil
}

// closeRunTime implements OpCloseRunTime: invoke the registered host
// callback over the range since the matching OpenCapture and apply
// whichever of Fail/Keep/Advance it reports.
func (e *Execution) closeRunTime(ins Instr) error {
	i := e.caps.lastOpenIndex()
	if i < 0 {
		return &MalformedProgramError{P: e.p, Message: "close_runtime with no matching open"}
	}
	open := e.caps.At(i)

	if int(ins.Key) >= len(e.prog.MatchFuncs) {
		return &MalformedProgramError{P: e.p, Message: "close_runtime references unknown function"}
	}
	fn := e.prog.MatchFuncs[ins.Key]
	if fn == nil {
		return &MalformedProgramError{P: e.p, Message: "close_runtime function is nil"}
	}

	nested := e.caps.Snapshot(e.caps.Len())[i+1:]
	result := fn(e.subject, open.S, e.s, nested)

	switch result.Outcome {
	case MatchTimeFail:
		return e.fail()

	case MatchTimeKeep:
		// position unchanged

	case MatchTimeAdvance:
		if result.Pos < e.s || result.Pos > len(e.subject) {
			return &InvalidPositionError{Pos: result.Pos, Current: e.s, Limit: len(e.subject)}
		}
		e.s = result.Pos

	default:
		return &MalformedProgramError{P: e.p, Message: "match-time callback returned an unknown outcome"}
	}

	if len(result.Values) > e.limits.maxDynamicResults() {
		return &TooManyResultsError{Limit: e.limits.maxDynamicResults()}
	}

	// No new values and no nested captures: the whole capture
	// collapses rather than leaving an empty runtime event behind.
	if len(result.Values) == 0 && i == e.caps.Len()-1 {
		e.caps.Truncate(i)
		e.p++
		return nil
	}

	open.Size = e.s - open.S + 1
	open.Kind = KindRuntime
	if len(result.Values) > 0 {
		open.Value = result.Values
	}
	e.caps.SetAt(i, open)
	e.p++
	return nil
}

// fail unwinds the backtrack/call stack until it finds a choice frame
// to resume at, a left-recursive frame whose best seed can stand in
// for a fresh failure, or exhausts the stack entirely (overall
// match failure).
func (e *Execution) fail() error {
	for {
		f, ok := e.stack.pop()
		if !ok {
			e.done = true
			e.failed = true
			return nil
		}

		switch f.kind {
		case frameCall:
			// an ordinary call frame is not a choice point; keep
			// unwinding past it
			continue

		case frameChoice:
			e.s = f.s
			e.caps.Truncate(f.capLevel)
			e.p = f.p
			return nil

		case frameLeftRecursive:
			key := memoKey{pA: f.pA, s0: f.s}
			entry := e.memo[key]
			return e.settleLeftRecursion(f, entry)
		}
	}
}
