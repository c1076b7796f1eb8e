package engine

import "errors"

// ErrCycleLimit is returned when a single turn exceeds the configured number
// of Chat/Tools cycles without reaching a terminal assistant message.
var ErrCycleLimit = errors.New("tool cycle limit exceeded")
