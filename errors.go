package pmvm

import "fmt"

// StackOverflowError is returned when the backtrack/call stack would
// have to grow past Limits.MaxStackDepth. This is a resource-exhaustion
// failure: fatal, not backtrackable.
type StackOverflowError struct {
	Limit int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("pmvm: backtrack stack overflow (current limit is %d)", e.Limit)
}

// CaptureOverflowError is returned when the capture log would have to
// grow past the size its growth policy allows.
type CaptureOverflowError struct {
	Limit int
}

func (e *CaptureOverflowError) Error() string {
	return fmt.Sprintf("pmvm: too many captures (limit %d)", e.Limit)
}

// CaptureListOverflowError is returned when more left-recursive heads
// are growing at once than Limits.MaxCaptureListDepth allows. This is
// distinct from CaptureOverflowError: that one bounds the size of a
// single capture log, this one bounds how many simultaneous
// left-recursive invocations may be suspended waiting on their own
// growth iteration.
type CaptureListOverflowError struct {
	Limit int
}

func (e *CaptureListOverflowError) Error() string {
	return fmt.Sprintf("pmvm: too many capture lists (limit %d)", e.Limit)
}

// TooManyResultsError is returned when a match-time capture callback
// returns more extra values than Limits.MaxDynamicResults allows.
type TooManyResultsError struct {
	Limit int
}

func (e *TooManyResultsError) Error() string {
	return fmt.Sprintf("pmvm: too many results in match-time capture (limit %d)", e.Limit)
}

// InvalidPositionError is returned when a CloseRunTime callback
// returns an Advance position outside [current, limit].
type InvalidPositionError struct {
	Pos, Current, Limit int
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf(
		"pmvm: invalid position %d returned by match-time capture (must be in [%d,%d])",
		e.Pos, e.Current, e.Limit)
}

// MalformedProgramError reports a programming-bug-class contract
// violation: a Ret with nothing left to return to, an out-of-range
// program counter, or similar. The
// compiler is responsible for never producing programs that trigger
// this; seeing it means the program handed to Match was not well
// formed.
type MalformedProgramError struct {
	P       int
	Message string
}

func (e *MalformedProgramError) Error() string {
	return fmt.Sprintf("pmvm: malformed program at instruction %d: %s", e.P, e.Message)
}
