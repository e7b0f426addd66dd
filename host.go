package pmvm

// MatchTimeOutcome discriminates the three things a match-time capture
// callback may do: fail the match, succeed without consuming input,
// or succeed and advance the cursor.
type MatchTimeOutcome uint8

const (
	// MatchTimeFail causes the CloseRunTime instruction to fail like
	// any other failing instruction: the backtrack stack unwinds to
	// the nearest choice/left-recursive frame.
	MatchTimeFail MatchTimeOutcome = iota

	// MatchTimeKeep succeeds without moving the cursor.
	MatchTimeKeep

	// MatchTimeAdvance succeeds and moves the cursor to Pos, which
	// must lie in [current, limit]; Match reports
	// *InvalidPositionError if it does not.
	MatchTimeAdvance
)

// MatchTimeResult is what a MatchTimeFunc returns. Values holds the
// extra captures the callback wants attached to the log at the
// matched range, in order; Match reports *TooManyResultsError if len
// exceeds Limits.MaxDynamicResults.
type MatchTimeResult struct {
	Outcome MatchTimeOutcome
	Pos     int
	Values  []any
}

// MatchTimeFunc is a host-supplied callback for a CloseRunTime
// instruction. subject is the full input, start and end delimit the
// range matched since the corresponding OpenCapture, and captures
// lists the raw capture events recorded inside that range (callers
// that want a Value tree run them through
// github.com/clarete/pmvm/materialize themselves).
//
// Unlike the original's Lua closures operating over a shared value
// stack, a MatchTimeFunc is a plain Go func value closing over
// whatever state the caller needs, which is why CaptureEvent.Value
// carries results directly instead of a stack index.
type MatchTimeFunc func(subject []byte, start, end int, captures []CaptureEvent) MatchTimeResult
