package materialize

import (
	"fmt"

	"github.com/clarete/pmvm"
)

// Event is the minimal view materialize needs of one pmvm.CaptureEvent,
// kept as an alias so this package never has to import pmvm's
// internals beyond what CaptureKind/CaptureEvent already export.
type Event = pmvm.CaptureEvent

// From walks a flat, well-nested capture log (as returned in
// pmvm.MatchResult.Captures) and rebuilds the Value tree it encodes.
// pmvm.Match always produces a well-nested log, so From only reports
// an error when handed one built or edited by hand.
func From(events []Event) ([]Value, error) {
	values, rest, err := materializeRun(events)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("materialize: %d unconsumed capture events", len(rest))
	}
	return values, nil
}

// materializeRun consumes every event in the slice, top to bottom,
// until it runs out. A group's children are collected by
// materializeOne itself, not by a recursive call to this function.
func materializeRun(events []Event) ([]Value, []Event, error) {
	var out []Value
	for len(events) > 0 {
		v, rest, err := materializeOne(events)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, v)
		events = rest
	}
	return out, events, nil
}

// materializeOne materializes exactly the value the first event in
// events encodes, consuming its whole subtree (for a group, every
// following event whose range fits inside its own), and returns
// whatever events remain after it.
//
// OpenCapture appends exactly one log entry per capture; Close/
// CloseRunTime mutate that entry in place to fill in Size rather than
// appending a second "close" marker. The log is therefore already a
// preorder tree walk: a group's children are precisely the entries
// immediately following it whose byte range lies inside its own.
func materializeOne(events []Event) (Value, []Event, error) {
	e := events[0]
	rest := events[1:]
	if e.Size == 0 {
		return nil, nil, fmt.Errorf("materialize: unterminated capture at %d", e.S)
	}
	rg := NewRange(e.S, e.S+e.Size-1)

	switch e.Kind {
	case pmvm.KindSimple:
		return NewString(rg), rest, nil

	case pmvm.KindPosition:
		return NewPosition(e.S), rest, nil

	case pmvm.KindRuntime:
		values, _ := e.Value.([]any)
		return NewRuntime(e.Key, values, rg), rest, nil

	case pmvm.KindGroup:
		var children []Value
		for len(rest) > 0 && rg.Contains(eventRange(rest[0])) {
			var (
				child Value
				err   error
			)
			child, rest, err = materializeOne(rest)
			if err != nil {
				return nil, nil, err
			}
			children = append(children, child)
		}
		return NewGroup(e.Key, children, rg), rest, nil

	default:
		return nil, nil, fmt.Errorf("materialize: unexpected capture kind %v", e.Kind)
	}
}

func eventRange(e Event) Range {
	return NewRange(e.S, e.S+e.Size-1)
}
