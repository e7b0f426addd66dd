package pmvm

// CaptureEvent is one entry in the append-only capture log. Size == 0 means open, Size == 1 means closed
// with zero length or host-produced, Size > 1 means a full capture of
// (Size-1) bytes ending at S.
type CaptureEvent struct {
	S    int
	Size int
	Kind CaptureKind
	Key  uint16

	// Value carries the payload a host CloseRunTime callback attached
	// to a KindRuntime event, replacing the original's index into a
	// shared Lua value stack.
	Value any
}

func (e CaptureEvent) isOpen() bool { return e.Size == 0 }

// CaptureLog is the append-only capture event list produced while
// matching. It always keeps at least one free slot after an append so
// CloseRunTime/ClosedCapture paths can write a terminator without
// rechecking (the same invariant lpvm.c's growcap maintains).
type CaptureLog struct {
	events []CaptureEvent
}

// NewCaptureLog allocates a log with room for at least initial
// entries plus the one free slot invariant.
func NewCaptureLog(initial int) *CaptureLog {
	return &CaptureLog{events: make([]CaptureEvent, 0, initial+1)}
}

// Len returns captop, the number of entries currently in the log.
func (l *CaptureLog) Len() int { return len(l.events) }

// At returns the event at index i.
func (l *CaptureLog) At(i int) CaptureEvent { return l.events[i] }

// SetAt overwrites the event at index i.
func (l *CaptureLog) SetAt(i int, e CaptureEvent) { l.events[i] = e }

// Last returns a pointer to the most recently appended event. The
// caller must ensure Len() > 0.
func (l *CaptureLog) Last() *CaptureEvent { return &l.events[len(l.events)-1] }

// Append adds one event to the end of the log, growing it first if
// necessary.
func (l *CaptureLog) Append(e CaptureEvent, limits Limits) error {
	if err := l.grow(1, limits); err != nil {
		return err
	}
	l.events = append(l.events, e)
	return nil
}

// Truncate resets the log to its first n entries (a FAIL/BackCommit
// rewind to a saved watermark).
func (l *CaptureLog) Truncate(n int) { l.events = l.events[:n] }

// Snapshot returns a copy of the first n events, used when a
// left-recursive head's growth iteration commits a new best seed into
// the memo table.
func (l *CaptureLog) Snapshot(n int) []CaptureEvent {
	out := make([]CaptureEvent, n)
	copy(out, l.events[:n])
	return out
}

// Splice appends a previously-snapshotted segment onto the live log.
// Left-recursive splicing must be atomic with respect to the rest of
// the log, which a single bulk
// append naturally satisfies.
func (l *CaptureLog) Splice(segment []CaptureEvent, limits Limits) error {
	if err := l.grow(len(segment), limits); err != nil {
		return err
	}
	l.events = append(l.events, segment...)
	return nil
}

// grow ensures capacity for n more entries plus the one-free-slot
// invariant, following a doubling/9-8 growth policy (ported from
// lpvm.c's growcap, whose comment explains the arithmetic is chosen to
// avoid integer overflow for large capture counts).
func (l *CaptureLog) grow(n int, limits Limits) error {
	have := cap(l.events) - len(l.events)
	if have > n {
		return nil
	}
	needed := len(l.events) + n + 1
	maxNew := limits.maxCaptureEntries()
	var newSize int
	switch {
	case needed < maxNew/2:
		newSize = needed * 2
	case needed < (maxNew/9)*8:
		newSize = needed + needed/8
	default:
		return &CaptureOverflowError{Limit: maxNew}
	}
	next := make([]CaptureEvent, len(l.events), newSize)
	copy(next, l.events)
	l.events = next
	return nil
}

// lastOpenIndex returns the index of the most recently appended
// still-open event (LIFO nesting discipline for Open/Close pairs), or
// -1 if none is open. CloseCapture and CloseRunTime both use this to
// find the event they close.
func (l *CaptureLog) lastOpenIndex() int {
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].isOpen() {
			return i
		}
	}
	return -1
}

// countRuntime returns the number of KindRuntime events in
// events[:n], used to keep ndyncap honest as match-time captures are
// opened and closed.
func countRuntime(events []CaptureEvent, n int) int {
	c := 0
	for i := 0; i < n; i++ {
		if events[i].Kind == KindRuntime {
			c++
		}
	}
	return c
}
