package pmvm

// Limits bounds the resources a single Match invocation may consume.
// lpvm.c names these explicitly (MAXSTACKIDX, MAXNEWSIZE, SHRT_MAX);
// unlike string-keyed Config (a good fit for an open-ended compiler
// configuration surface), this is a small, fixed, strongly-typed set,
// so it is a plain struct rather than a map.
type Limits struct {
	// MaxStackDepth bounds the backtrack/call stack (lpvm.c's
	// MAXSTACKIDX). Exceeding it is fatal (*StackOverflowError).
	MaxStackDepth int

	// InitialCaptureSize is the initial capacity reserved for the
	// capture log (lpvm.c's INITCAPSIZE).
	InitialCaptureSize int

	// MaxCaptureEntries bounds how large the capture log may grow
	// (lpvm.c's MAXNEWSIZE, adapted to Go's int range instead of C's
	// size_t/sizeof(Capture) arithmetic).
	MaxCaptureEntries int

	// MaxDynamicResults bounds how many extra values a single
	// CloseRunTime callback may return (lpvm.c's SHRT_MAX check).
	MaxDynamicResults int

	// MaxCaptureListDepth bounds how many left-recursive heads may be
	// growing at once (lpvm.c's capstack, doubled by doublecapstack and
	// reported as "too many captures lists" on overflow). This is
	// independent of MaxCaptureEntries, which bounds the size of a
	// single capture log rather than how many of them are live.
	MaxCaptureListDepth int
}

// DefaultLimits mirrors the constants LPeg ships with: a handful of
// initial capture slots and permissive but finite ceilings.
var DefaultLimits = Limits{
	MaxStackDepth:       100_000,
	InitialCaptureSize:  8,
	MaxCaptureEntries:   1 << 24,
	MaxDynamicResults:   1<<15 - 1, // SHRT_MAX
	MaxCaptureListDepth: 4096,
}

func (l Limits) maxStackDepth() int {
	if l.MaxStackDepth <= 0 {
		return DefaultLimits.MaxStackDepth
	}
	return l.MaxStackDepth
}

func (l Limits) maxCaptureEntries() int {
	if l.MaxCaptureEntries <= 0 {
		return DefaultLimits.MaxCaptureEntries
	}
	return l.MaxCaptureEntries
}

func (l Limits) initialCaptureSize() int {
	if l.InitialCaptureSize <= 0 {
		return DefaultLimits.InitialCaptureSize
	}
	return l.InitialCaptureSize
}

func (l Limits) maxDynamicResults() int {
	if l.MaxDynamicResults <= 0 {
		return DefaultLimits.MaxDynamicResults
	}
	return l.MaxDynamicResults
}

func (l Limits) maxCaptureListDepth() int {
	if l.MaxCaptureListDepth <= 0 {
		return DefaultLimits.MaxCaptureListDepth
	}
	return l.MaxCaptureListDepth
}
