package materialize

import (
	"strconv"
	"strings"
)

// FormatFunc applies a theme token to a piece of already-rendered
// text; cmd/pmvmdump supplies one backed by internal/ansi, and
// PrettyString supplies the identity function.
type FormatFunc[T any] func(input string, token T) string

// treePrinter is the generic box-drawing accumulator the Value
// visitors below write through; adapted unchanged from langlang's
// go/tree_printer.go, which already generalized over the format-token
// type.
type treePrinter[T any] struct {
	padStr *[]string
	output *strings.Builder
	format FormatFunc[T]
}

func newTreePrinter[T any](format FormatFunc[T]) *treePrinter[T] {
	return &treePrinter[T]{
		padStr: &[]string{},
		output: &strings.Builder{},
		format: format,
	}
}

func (tp *treePrinter[T]) indent(s string) {
	*tp.padStr = append(*tp.padStr, s)
}

func (tp *treePrinter[T]) unindent() {
	index := len(*tp.padStr) - 1
	*tp.padStr = (*tp.padStr)[:index]
}

func (tp *treePrinter[T]) padding() {
	for _, item := range *tp.padStr {
		tp.write(item)
	}
}

func (tp *treePrinter[T]) writel(s string) {
	tp.write(s)
	tp.output.WriteRune('\n')
}

func (tp *treePrinter[T]) write(s string) {
	tp.output.WriteString(s)
}

func (tp *treePrinter[T]) pwrite(s string) {
	tp.padding()
	tp.write(s)
}

var literalSanitizer = strings.NewReplacer(
	`"`, `\"`,
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalSanitizer.Replace(s)
}

// FormatToken names the syntax classes the tree printer colors.
type FormatToken int

const (
	TokenNone FormatToken = iota
	TokenRange
	TokenLiteral
	TokenGroup
	TokenRuntime
)

// PrettyString renders v as an indented tree with no coloring.
func PrettyString(subject []byte, v Value) string {
	tp := NewTreePrinter(subject, func(s string, _ FormatToken) string { return s })
	_ = v.Accept(tp)
	return tp.output.String()
}

// HighlightPrettyString renders v as an indented tree, coloring tokens
// through format.
func HighlightPrettyString(subject []byte, v Value, format FormatFunc[FormatToken]) string {
	tp := NewTreePrinter(subject, format)
	_ = v.Accept(tp)
	return tp.output.String()
}

// TreePrinter is a ValueVisitor that renders a tree to lines of text.
type TreePrinter struct {
	subject []byte
	index   *LineIndex
	*treePrinter[FormatToken]
}

func NewTreePrinter(subject []byte, format FormatFunc[FormatToken]) *TreePrinter {
	return &TreePrinter{
		subject:     subject,
		index:       NewLineIndex(subject),
		treePrinter: newTreePrinter(format),
	}
}

func (v *TreePrinter) span(r Range) string { return v.index.Span(r).String() }

func (v *TreePrinter) VisitString(n *String) error {
	text := escapeLiteral(n.String(v.subject))
	v.write(v.format(`"`+text+`"`, TokenLiteral))
	v.write(v.format(" ("+v.span(n.rg)+")", TokenRange))
	return nil
}

func (v *TreePrinter) VisitPosition(n *Position) error {
	v.write(v.format(n.String(v.subject), TokenRange))
	return nil
}

func (v *TreePrinter) VisitRuntime(n *Runtime) error {
	label := n.String(v.subject)
	v.write(v.format(label, TokenRuntime))
	v.write(v.format(" ("+v.span(n.rg)+")", TokenRange))
	return nil
}

func (v *TreePrinter) VisitGroup(n *Group) error {
	header := v.format("Group<"+strconv.Itoa(int(n.Key))+">", TokenGroup)
	v.writel(header + v.format(" ("+v.span(n.rg)+")", TokenRange))
	for i, item := range n.Items {
		last := i == len(n.Items)-1
		if last {
			v.pwrite("└── ")
			v.indent("    ")
		} else {
			v.pwrite("├── ")
			v.indent("│   ")
		}
		item.Accept(v)
		v.unindent()
		if !last {
			v.write("\n")
		}
	}
	return nil
}
