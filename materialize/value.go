package materialize

import (
	"fmt"
	"strings"
)

// Value is one node of the tree a capture log materializes into.
// Each of the four concrete kinds mirrors one thing the capture log
// can record: a plain matched range, a named/keyed group of nested
// values, a zero-width position marker, or a host-produced match-time
// result.
type Value interface {
	Type() string
	Range() Range
	String(subject []byte) string
	Accept(ValueVisitor) error
}

type ValueVisitor interface {
	VisitString(n *String) error
	VisitGroup(n *Group) error
	VisitPosition(n *Position) error
	VisitRuntime(n *Runtime) error
}

// String is an anonymous capture of a matched byte range.
type String struct{ rg Range }

func NewString(rg Range) *String { return &String{rg: rg} }

func (n String) Type() string               { return "string" }
func (n String) Range() Range               { return n.rg }
func (n String) String(subject []byte) string { return n.rg.Str(subject) }
func (n *String) Accept(v ValueVisitor) error { return v.VisitString(n) }

// Group is a keyed capture made of nested values. Key is the numeric
// key the capture was compiled with; nothing in this package maps it
// back to a name.
type Group struct {
	rg    Range
	Key   uint16
	Items []Value
}

func NewGroup(key uint16, items []Value, rg Range) *Group {
	return &Group{Key: key, Items: items, rg: rg}
}

func (n Group) Type() string { return "group" }
func (n Group) Range() Range { return n.rg }
func (n *Group) Accept(v ValueVisitor) error { return v.VisitGroup(n) }
func (n Group) String(subject []byte) string {
	var s strings.Builder
	fmt.Fprintf(&s, "Group<%d>(", n.Key)
	for i, item := range n.Items {
		s.WriteString(item.String(subject))
		if i < len(n.Items)-1 {
			s.WriteString(", ")
		}
	}
	s.WriteString(")")
	return s.String()
}

// Position is a zero-width marker recording a cursor with no
// consumed bytes.
type Position struct{ rg Range }

func NewPosition(at int) *Position { return &Position{rg: Range{Start: at, End: at}} }

func (n Position) Type() string                 { return "position" }
func (n Position) Range() Range                 { return n.rg }
func (n *Position) Accept(v ValueVisitor) error { return v.VisitPosition(n) }
func (n Position) String([]byte) string         { return fmt.Sprintf("@%d", n.rg.Start) }

// Runtime is the result of a match-time capture callback: the matched
// range plus whatever extra values the host attached.
type Runtime struct {
	rg     Range
	Key    uint16
	Values []any
}

func NewRuntime(key uint16, values []any, rg Range) *Runtime {
	return &Runtime{Key: key, Values: values, rg: rg}
}

func (n Runtime) Type() string                 { return "runtime" }
func (n Runtime) Range() Range                 { return n.rg }
func (n *Runtime) Accept(v ValueVisitor) error { return v.VisitRuntime(n) }
func (n Runtime) String(subject []byte) string {
	return fmt.Sprintf("Runtime<%d>(%q, %v)", n.Key, n.rg.Str(subject), n.Values)
}

// Text flattens a Value tree back to the plain substring it covers.
func Text(subject []byte, v Value) string {
	var out strings.Builder
	_ = v.Accept(&textVisitor{subject: subject, out: &out})
	return out.String()
}

type textVisitor struct {
	subject []byte
	out     *strings.Builder
}

func (v *textVisitor) VisitString(n *String) error {
	v.out.WriteString(n.rg.Str(v.subject))
	return nil
}

func (v *textVisitor) VisitGroup(n *Group) error {
	for _, item := range n.Items {
		if err := item.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *textVisitor) VisitPosition(*Position) error { return nil }

func (v *textVisitor) VisitRuntime(n *Runtime) error {
	v.out.WriteString(n.rg.Str(v.subject))
	return nil
}
