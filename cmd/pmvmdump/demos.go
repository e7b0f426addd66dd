package main

import (
	"fmt"

	"github.com/clarete/pmvm"
	"github.com/clarete/pmvm/compiler"
)

// Capture keys used by the demo grammars below. They are only
// meaningful within a single demo's Grammar; nothing outside this
// file interprets them.
const (
	keyNum uint16 = iota
	keySum
	keyWord
	keyGuard
)

// demo bundles a grammar with the host callbacks its RuntimeCaptures
// need, plus a one-line description shown by -list.
type demo struct {
	description string
	grammar     compiler.Grammar
	funcs       []compiler.MatchFunc
}

var demos = map[string]demo{
	"literal": {
		description: `Char('a'); Char('b'); End -- scenario 1`,
		grammar: compiler.Grammar{
			Start: "S",
			Rules: map[string]compiler.Pattern{
				"S": compiler.Seq(compiler.Literal("a"), compiler.Literal("b")),
			},
		},
	},

	"choice": {
		description: `Choice(Literal("a"), Literal("b")) -- scenario 2`,
		grammar: compiler.Grammar{
			Start: "S",
			Rules: map[string]compiler.Pattern{
				"S": compiler.Choice(compiler.Literal("a"), compiler.Literal("b")),
			},
		},
	},

	"star": {
		description: `Star(Literal("x")) -- scenario 3`,
		grammar: compiler.Grammar{
			Start: "S",
			Rules: map[string]compiler.Pattern{
				"S": compiler.Star(compiler.Literal("x")),
			},
		},
	},

	"fullcapture": {
		description: `Capture(simple, Seq(Literal("a"), Literal("b"))) -- scenario 4`,
		grammar: compiler.Grammar{
			Start: "S",
			Rules: map[string]compiler.Pattern{
				"S": compiler.Capture(pmvm.KindSimple, keyWord,
					compiler.Seq(compiler.Literal("a"), compiler.Literal("b"))),
			},
		},
	},

	"arith": {
		description: `E <- E "+" n / n, n <- [0-9]+ -- scenario 5 (direct left recursion)`,
		grammar: compiler.Grammar{
			Start: "E",
			Rules: map[string]compiler.Pattern{
				"E": compiler.Choice(
					compiler.Capture(pmvm.KindGroup, keySum, compiler.Seq(
						compiler.CallAt("E", 1),
						compiler.Literal("+"),
						compiler.Call("n"),
					)),
					compiler.Call("n"),
				),
				"n": compiler.Capture(pmvm.KindGroup, keyNum, compiler.Seq(
					compiler.Set([2]byte{'0', '9'}),
					compiler.Span([2]byte{'0', '9'}),
				)),
			},
		},
	},

	"reject": {
		description: `RuntimeCapture(Literal("a")) whose host callback always rejects -- scenario 6`,
		grammar: compiler.Grammar{
			Start: "S",
			Rules: map[string]compiler.Pattern{
				"S": compiler.RuntimeCapture(keyGuard, compiler.Literal("a")),
			},
		},
		funcs: []compiler.MatchFunc{
			{
				Key: keyGuard,
				Fn: func(subject []byte, start, end int, captures []pmvm.CaptureEvent) pmvm.MatchTimeResult {
					return pmvm.MatchTimeResult{Outcome: pmvm.MatchTimeFail}
				},
			},
		},
	},
}

func demoNames() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	return names
}

func listDemos() {
	for _, name := range demoNames() {
		fmt.Printf("%-12s %s\n", name, demos[name].description)
	}
}
