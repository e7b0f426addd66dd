// Command pmvmdump compiles one of a few built-in demo patterns,
// matches it against an input, and prints the result: either the
// compiled program's disassembly (-asm-only), or the match end and the
// materialized value tree. It does not print the raw capture log. It
// exists to exercise github.com/clarete/pmvm,
// github.com/clarete/pmvm/compiler and github.com/clarete/pmvm/materialize
// end to end without a host application, the same role langlang's
// cmd/langlang/main.go plays for its own grammar/VM pair.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/clarete/pmvm"
	"github.com/clarete/pmvm/compiler"
	"github.com/clarete/pmvm/internal/ansi"
	"github.com/clarete/pmvm/materialize"
)

type args struct {
	demo      *string
	inputPath *string
	list      *bool
	asmOnly   *bool
	noColor   *bool
}

func readArgs() *args {
	a := &args{
		demo:      flag.String("demo", "literal", "Name of the built-in demo grammar to compile and run"),
		inputPath: flag.String("input", "", "Path to the input file (defaults to stdin)"),
		list:      flag.Bool("list", false, "List the built-in demos and exit"),
		asmOnly:   flag.Bool("asm-only", false, "Print the compiled program's disassembly and exit"),
		noColor:   flag.Bool("no-color", false, "Disable ANSI highlighting of the printed value tree"),
	}
	flag.Parse()
	return a
}

func main() {
	a := readArgs()

	if *a.list {
		listDemos()
		return
	}

	d, ok := demos[*a.demo]
	if !ok {
		names := demoNames()
		sort.Strings(names)
		log.Fatalf("unknown demo %q (known demos: %v)", *a.demo, names)
	}

	prog, err := compiler.Compile(d.grammar, d.funcs...)
	if err != nil {
		log.Fatalf("compile %q: %s", *a.demo, err)
	}

	if *a.asmOnly {
		fmt.Print(prog.Disassemble())
		return
	}

	subject, err := readInput(*a.inputPath)
	if err != nil {
		log.Fatalf("read input: %s", err)
	}

	result, err := pmvm.Match(prog, subject, pmvm.DefaultLimits)
	if err != nil {
		log.Fatalf("match: %s", err)
	}
	if !result.Matched {
		fmt.Println("NO MATCH")
		os.Exit(1)
	}

	fmt.Printf("matched %d/%d bytes\n", result.End, len(subject))

	values, err := materialize.From(result.Captures)
	if err != nil {
		log.Fatalf("materialize: %s", err)
	}
	for _, v := range values {
		if *a.noColor {
			fmt.Println(materialize.PrettyString(subject, v))
		} else {
			fmt.Println(materialize.HighlightPrettyString(subject, v, colorToken))
		}
	}
}

func colorToken(s string, tok materialize.FormatToken) string {
	switch tok {
	case materialize.TokenRange:
		return ansi.Color(ansi.DefaultTheme.Span, "%s", s)
	case materialize.TokenLiteral:
		return ansi.Color(ansi.DefaultTheme.Literal, "%s", s)
	case materialize.TokenGroup:
		return ansi.Color(ansi.DefaultTheme.Operand, "%s", s)
	case materialize.TokenRuntime:
		return ansi.Color(ansi.DefaultTheme.Accent, "%s", s)
	default:
		return s
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
