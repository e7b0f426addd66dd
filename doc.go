// Package pmvm implements a virtual machine for compiled Parsing
// Expression Grammar programs, augmented with direct left-recursion
// and match-time (dynamic) captures.
//
// Given a program produced by github.com/clarete/pmvm/compiler and an
// input byte string, Match either reports failure or returns the end
// position reached together with an ordered capture log describing the
// subtrees of the match. github.com/clarete/pmvm/materialize turns that
// log into host-facing values.
//
// The package trusts its input program: it does not re-validate the
// invariants the compiler is responsible for (every Call has a
// matching Ret, every OpenCapture is dominated by a close, offsets
// land on instruction boundaries, the final reachable instruction is
// End). Some violations are detected during the match and reported as
// *MalformedProgramError (an out-of-range program counter, a Ret or
// Commit with no frame to pop, an illegal opcode, an unregistered
// match-time function); the others give undefined results.
package pmvm
