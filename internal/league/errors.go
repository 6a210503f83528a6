package league

import "errors"

var (
	// ErrPredictionLocked is the authoritative rejection of a write for a
	// match whose lock instant has passed at receipt time (server clock).
	ErrPredictionLocked = errors.New("prediction window is locked")

	// ErrStaleSequence means an incoming write carried a lower edit sequence
	// number than the stored prediction. The newer value wins.
	ErrStaleSequence = errors.New("stale prediction sequence")

	ErrMatchNotFound = errors.New("match not found")
)
